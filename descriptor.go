package tinyhsm

import "reflect"

// StateID identifies one state within a machine type. IDs are expected to be
// a small dense enumeration starting at 0; the registry indexes them in a
// flat array.
type StateID int

// Null is the reserved "no state" marker. It may not be registered.
const Null StateID = -1

// EventID identifies one kind of event.
type EventID int

// Event is what gets posted to a machine. Events are queued by value and must
// stay copyable.
type Event struct {
	ID      EventID
	Payload any
}

// State is implemented by user state types. OnEvent handles one event and
// reports whether it was consumed; returning false passes the event on to the
// parent state.
//
// There is no entry method: the constructor registered for the state is the
// entry action. Implement Exiter for an exit action.
type State interface {
	OnEvent(ev Event) bool
}

// Exiter is optionally implemented by states that need an exit action. OnExit
// runs when the state is left, before its frame is vacated, in strict
// leaf-to-root order.
type Exiter interface {
	OnExit()
}

// Constructor builds a state in the frame belonging to its level. It runs
// during entry, top-down along the target path, and is the state's entry
// action. It must return a non-nil State.
type Constructor func(m *Machine) State

// Descriptor is the static metadata for one registered state. Descriptors are
// created at registration time and never mutated afterwards.
type Descriptor struct {
	ID     StateID
	Parent StateID // equal to ID for a root state
	Level  int     // number of transitive parents, root = 0
	Size   uintptr
	Align  uintptr
	Name   string
	New    Constructor
}

// Root reports whether the descriptor marks a root state.
func (d *Descriptor) Root() bool { return d.ID == d.Parent }

// Prototype captures the storage footprint, display name and constructor of
// one state type, without binding it to an identity or a place in the tree.
// The registry's Add turns a Prototype plus (id, parent) into a Descriptor.
type Prototype struct {
	size      uintptr
	align     uintptr
	name      string
	construct Constructor
}

// NewPrototype derives a Prototype from the state type S. Size and alignment
// come from the type itself (dereferenced when S is a pointer type), so the
// layout planner sees the real storage footprint of the state's data.
func NewPrototype[S State](construct func(m *Machine) S) Prototype {
	t := reflect.TypeOf((*S)(nil)).Elem()
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	p := Prototype{
		name:  t.Name(),
		size:  t.Size(),
		align: uintptr(t.Align()),
	}
	if construct != nil {
		p.construct = func(m *Machine) State { return construct(m) }
	}
	return p
}

// Name returns the prototype's display name, derived from the Go type.
func (p Prototype) Name() string { return p.name }
