package tinyhsm

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
)

// phase tracks what the engine is doing, mainly to police Transition calls:
// a transition may only be requested while an event is being dispatched,
// never from an entry or exit path.
type phase uint8

const (
	phaseIdle phase = iota
	phaseDispatch
	phaseEnter
	phaseExit
)

// Machine is one running instance of a machine type. It owns its frames and
// event queue exclusively; the registry and layout behind it are shared,
// immutable data. A Machine is not safe for concurrent use, see package isr
// for caller-side serialization.
type Machine struct {
	reg    *Registry
	layout Layout
	name   string
	owner  any
	log    *slog.Logger

	frames  []frame       // one per level, 0..maxLevel
	current []*Descriptor // active chain, a root-anchored prefix of the frames
	next    []*Descriptor // target chain scratch, reused across transitions
	arena   []byte

	queue   eventQueue
	pending StateID
	phase   phase
	busy    bool // a drain or initial entry is in flight
}

// New constructs a machine instance over the given registry, freezing it if
// this is the first use. All per-instance storage is allocated here; the
// machine allocates nothing when changing state afterwards.
//
// The instance starts empty. Call SetStart before posting events.
func New(reg *Registry, opts ...Option) *Machine {
	reg.freeze()
	l := reg.Layout()
	m := &Machine{
		reg:     reg,
		layout:  l,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		pending: Null,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.name == "" {
		m.name = uuid.NewString()
	}
	m.frames = make([]frame, l.MaxLevel+1)
	m.current = make([]*Descriptor, 0, l.MaxLevel+1)
	m.next = make([]*Descriptor, 0, l.MaxLevel+1)
	m.arena = make([]byte, l.ArenaSize())
	for i := range m.frames {
		m.frames[i].scratch = m.arena[l.Offsets[i]:l.Offsets[i+1]:l.Offsets[i+1]]
	}
	return m
}

// Post appends an event to the queue and, unless a drain is already in
// flight, processes the queue until empty. Events posted from inside a
// handler are appended and picked up by the in-flight drain, so exactly one
// drain runs at a time and every event completes (including its resulting
// transition) before the next begins.
func (m *Machine) Post(ev Event) {
	m.queue.push(ev)
	if m.busy {
		return
	}
	m.drain()
}

func (m *Machine) drain() {
	m.busy = true
	defer func() { m.busy = false }()
	for !m.queue.empty() {
		// Copy out the front: handlers may push and grow the backing slice.
		ev := m.queue.front()
		m.dispatch(ev)
		m.queue.pop()
	}
}

// dispatch delivers one event, innermost state first, bubbling to ancestors
// until a handler consumes it, then applies any recorded transition. With no
// active state this is a no-op; so is an event that reaches the root
// unhandled.
func (m *Machine) dispatch(ev Event) {
	if len(m.current) == 0 {
		return
	}
	m.phase = phaseDispatch
	handled := false
	level := len(m.current)
	for !handled && level > 0 {
		level--
		handled = m.frames[level].occupant.OnEvent(ev)
	}
	m.phase = phaseIdle
	if !handled {
		m.log.Debug("event unhandled", "machine", m.name, "event", ev.ID)
	}
	m.runPending()
}

// Transition records id as the pending transition target. Call it from
// inside OnEvent only; the structural change is applied after the event's
// full bubbling pass returns, so queries made later in the same pass still
// see the pre-transition chain. Calling it again before then overwrites the
// previous target (last write wins).
//
// Requests from entry or exit paths are rejected with ErrNotDispatching:
// a freshly entered state must not redirect the transition that created it.
func (m *Machine) Transition(id StateID) error {
	if m.phase != phaseDispatch {
		return fmt.Errorf("target %d: %w", id, ErrNotDispatching)
	}
	if m.reg.Find(id) == nil {
		return fmt.Errorf("target %d: %w", id, ErrUnknownState)
	}
	m.pending = id
	return nil
}

// runPending applies recorded transitions until none remains. Since
// Transition is refused outside dispatch, entry actions cannot chain further
// transitions and the loop settles after one application.
func (m *Machine) runPending() {
	for m.pending != Null {
		d := m.reg.Find(m.pending)
		m.pending = Null
		m.applyTransition(d)
	}
}

// Current returns the id of the active leaf, or Null when the machine has no
// active state.
func (m *Machine) Current() StateID {
	if len(m.current) == 0 {
		return Null
	}
	return m.current[len(m.current)-1].ID
}

// Depth returns the number of occupied frames (leaf level + 1), zero when
// the machine is not started.
func (m *Machine) Depth() int { return len(m.current) }

// ActivePath returns the identities of the active chain, root to leaf. Empty
// when the machine has no active state.
func (m *Machine) ActivePath() []StateID {
	path := make([]StateID, len(m.current))
	for i, d := range m.current {
		path[i] = d.ID
	}
	return path
}

// Pending returns the queue backlog, including the event being dispatched.
func (m *Machine) Pending() int { return m.queue.size() }

// Name returns the instance name given via WithName, or the generated id.
func (m *Machine) Name() string { return m.name }

// Owner returns the value attached via WithOwner, nil when unset. State
// constructors use it to reach the object that embeds or wraps the machine,
// since the shared registry cannot capture per-instance references.
func (m *Machine) Owner() any { return m.owner }

// Registry returns the shared registry backing this instance.
func (m *Machine) Registry() *Registry { return m.reg }

// Layout returns the storage plan backing this instance.
func (m *Machine) Layout() Layout { return m.layout }

// Scratch returns the level's slice of the instance arena, sized to the
// largest state that can occupy the level. States may use it as fixed
// backing storage for payloads that must not allocate; it is reused, not
// cleared, across occupants of the level.
func (m *Machine) Scratch(level int) []byte {
	return m.frames[level].scratch
}
