package tinyhsm

import (
	"fmt"
	"strconv"
	"sync"
)

// Registry holds the descriptors for every state of one machine type. It is
// built exactly once, frozen on first use, and shared read-only by all
// instances of that machine type afterwards. Registration must finish before
// the first machine is constructed.
//
// Lookup is O(1): descriptors live in a flat slice indexed by StateID, which
// is why IDs should form a small dense enumeration.
type Registry struct {
	byID     []*Descriptor
	count    int
	maxLevel int
	frozen   bool
	layout   Layout
}

// NewRegistry returns an empty, unfrozen registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// AddState registers the state type S under id, with parent as its enclosing
// state. Passing id == parent makes it a root (level 0); otherwise the parent
// must already be registered. The state's storage footprint is taken from S.
func AddState[S State](r *Registry, id, parent StateID, construct func(m *Machine) S) error {
	return r.Add(id, parent, NewPrototype(construct))
}

// Add registers one state from a prebuilt prototype. Most callers use the
// typed AddState; Add exists for loaders that assemble the tree from data
// (see package chartdef).
func (r *Registry) Add(id, parent StateID, p Prototype) error {
	if r.frozen {
		return fmt.Errorf("state %d: %w", id, ErrFrozen)
	}
	if id == Null {
		return fmt.Errorf("state %d: %w", id, ErrReservedID)
	}
	if id < 0 {
		return fmt.Errorf("state %d: %w", id, ErrNegativeID)
	}
	if p.construct == nil {
		return fmt.Errorf("state %d: %w", id, ErrNilConstructor)
	}
	if r.Find(id) != nil {
		return fmt.Errorf("state %d: %w", id, ErrDuplicateState)
	}
	level := 0
	if id != parent {
		pd := r.Find(parent)
		if pd == nil {
			return fmt.Errorf("state %d, parent %d: %w", id, parent, ErrUnknownParent)
		}
		level = pd.Level + 1
	}
	for int(id) >= len(r.byID) {
		r.byID = append(r.byID, nil)
	}
	r.byID[id] = &Descriptor{
		ID:     id,
		Parent: parent,
		Level:  level,
		Size:   p.size,
		Align:  p.align,
		Name:   p.name,
		New:    p.construct,
	}
	r.count++
	if level > r.maxLevel {
		r.maxLevel = level
	}
	return nil
}

// Find returns the descriptor registered under id, or nil.
func (r *Registry) Find(id StateID) *Descriptor {
	if id < 0 || int(id) >= len(r.byID) {
		return nil
	}
	return r.byID[id]
}

// Len returns the number of registered states.
func (r *Registry) Len() int { return r.count }

// MaxLevel returns the deepest nesting level in the tree.
func (r *Registry) MaxLevel() int { return r.maxLevel }

// Name returns the display name for id, falling back to the numeric form for
// unregistered ids.
func (r *Registry) Name(id StateID) string {
	if d := r.Find(id); d != nil && d.Name != "" {
		return d.Name
	}
	return "#" + strconv.Itoa(int(id))
}

// Descriptors returns a snapshot of all registered descriptors in id order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, r.count)
	for _, d := range r.byID {
		if d != nil {
			out = append(out, *d)
		}
	}
	return out
}

// freeze seals the registry and plans the storage layout. Called by the first
// machine construction; further Add calls fail with ErrFrozen.
func (r *Registry) freeze() {
	if r.frozen {
		return
	}
	r.layout = PlanLayout(r)
	r.frozen = true
}

// Layout returns the storage layout planned from this registry. Freezes the
// registry on first call.
func (r *Registry) Layout() Layout {
	r.freeze()
	return r.layout
}

// LazyRegistry builds a registry exactly once, on first use, and then hands
// out the same frozen instance. It is the per-machine-type singleton: declare
// one at package level next to the state types and let every machine
// constructor go through Get. The one-time build is race-free even when the
// first instances are constructed concurrently.
type LazyRegistry struct {
	once  sync.Once
	setup func(*Registry) error
	reg   *Registry
	err   error
}

// NewLazyRegistry wraps a setup function that performs all AddState calls.
func NewLazyRegistry(setup func(*Registry) error) *LazyRegistry {
	return &LazyRegistry{setup: setup}
}

// Get returns the built registry, running setup on the first call. A setup
// error is sticky: every subsequent Get reports it.
func (l *LazyRegistry) Get() (*Registry, error) {
	l.once.Do(func() {
		r := NewRegistry()
		if err := l.setup(r); err != nil {
			l.err = err
			return
		}
		r.freeze()
		l.reg = r
	})
	return l.reg, l.err
}
