package tinyhsm

import "fmt"

// frame is the storage slot for one nesting level. The occupant is the live
// state constructed for this level, or nil while the frame is vacant. A
// frame's scratch buffer points into the instance arena and survives
// occupant changes.
//
// Invariant: frames 0..k are occupied and frames above k are vacant, where k
// is the current leaf's level. Violations are engine corruption and panic.
type frame struct {
	occupant State
	desc     *Descriptor
	scratch  []byte
}

// SetStart performs the initial entry: it enters every state from the root
// down to id. The machine must be fresh (or freshly stopped); starting an
// already-started machine fails with ErrAlreadyStarted.
//
// Events posted by entry actions during the initial descent are queued and
// drained once the full path is entered.
func (m *Machine) SetStart(id StateID) error {
	if len(m.current) != 0 {
		return fmt.Errorf("at %s: %w", m.reg.Name(m.Current()), ErrAlreadyStarted)
	}
	d := m.reg.Find(id)
	if d == nil {
		return fmt.Errorf("start state %d: %w", id, ErrUnknownState)
	}
	m.busy = true
	m.applyTransition(d)
	m.busy = false
	m.drain()
	return nil
}

// Stop unwinds the active chain, leaf to root, and clears the queue and any
// recorded transition. Idempotent: stopping an empty machine performs no exit
// calls. After Stop the instance may be restarted with SetStart.
//
// Must not be called from inside a handler.
func (m *Machine) Stop() {
	m.exitTo(0)
	m.pending = Null
	m.queue.reset()
}

// applyTransition moves the active chain to the target path: exit the levels
// below the first point where the chains differ, leaf to root, then enter the
// remaining target states, root to leaf. States above the least common
// ancestor are never touched.
func (m *Machine) applyTransition(target *Descriptor) {
	m.populateNext(target)
	bottom := 0
	if len(m.current) > 0 {
		bottom = m.firstDiffering()
	}
	m.exitTo(bottom)
	m.enterRemaining()
	m.log.Debug("transition applied",
		"machine", m.name, "state", target.Name, "level", target.Level)
}

// populateNext fills the target-chain scratch with target's ancestor path,
// indexed by level. The registry guarantees every parent exists and that a
// root's parent is itself.
func (m *Machine) populateNext(target *Descriptor) {
	n := target.Level + 1
	if cap(m.next) < n {
		m.next = make([]*Descriptor, n)
	} else {
		m.next = m.next[:n]
	}
	d := target
	for {
		m.next[d.Level] = d
		if d.Level == 0 {
			break
		}
		d = m.reg.Find(d.Parent)
	}
}

// firstDiffering returns the lowest level at which the active chain and the
// target chain disagree: everything below it is exited, everything from it
// down the target chain is entered. A transition to the current leaf is the
// one special case, the leaf itself is exited and re-entered while every
// ancestor stays put.
func (m *Machine) firstDiffering() int {
	if m.current[len(m.current)-1] == m.next[len(m.next)-1] {
		return m.next[len(m.next)-1].Level
	}
	level := 0
	for level < len(m.current) && level < len(m.next) && m.current[level] == m.next[level] {
		level++
	}
	return level
}

// exitTo vacates frames leaf-first until only bottom levels remain occupied.
func (m *Machine) exitTo(bottom int) {
	for len(m.current) > bottom {
		level := len(m.current) - 1
		fr := &m.frames[level]
		if fr.occupant == nil {
			panic(fmt.Sprintf("tinyhsm: exit of vacant frame at level %d", level))
		}
		m.phase = phaseExit
		if ex, ok := fr.occupant.(Exiter); ok {
			ex.OnExit()
		}
		m.phase = phaseIdle
		m.log.Debug("state exited", "machine", m.name, "state", fr.desc.Name, "level", level)
		fr.occupant = nil
		fr.desc = nil
		m.current = m.current[:level]
	}
}

// enterRemaining constructs target states top-down until the active chain
// matches the target chain.
func (m *Machine) enterRemaining() {
	for len(m.current) < len(m.next) {
		level := len(m.current)
		d := m.next[level]
		fr := &m.frames[level]
		if fr.occupant != nil {
			panic(fmt.Sprintf("tinyhsm: entry into occupied frame at level %d", level))
		}
		// The chain records the entering state before its constructor runs,
		// so the constructor can reach its parent's frame.
		m.current = append(m.current, d)
		m.phase = phaseEnter
		st := d.New(m)
		m.phase = phaseIdle
		if st == nil {
			panic(fmt.Sprintf("tinyhsm: constructor for %s returned nil", d.Name))
		}
		fr.occupant = st
		fr.desc = d
		m.log.Debug("state entered", "machine", m.name, "state", d.Name, "level", level)
	}
}

// ActiveState returns the occupant for id, but only when id lies on the
// currently active root-to-leaf path. It never fails: a machine with no
// active state, an unregistered id, or an id off the active path all report
// false.
func (m *Machine) ActiveState(id StateID) (State, bool) {
	d := m.reg.Find(id)
	if d == nil || d.Level >= len(m.current) || m.current[d.Level].ID != id {
		return nil, false
	}
	fr := &m.frames[d.Level]
	if fr.occupant == nil { // id is mid-entry, its frame not yet occupied
		return nil, false
	}
	return fr.occupant, true
}

// Active is ActiveState narrowed to a concrete state type.
func Active[S State](m *Machine, id StateID) (S, bool) {
	st, ok := m.ActiveState(id)
	if !ok {
		var zero S
		return zero, false
	}
	s, ok := st.(S)
	return s, ok
}

// Parent returns the occupant one level above the currently active leaf,
// checked against the expected identity and narrowed to S. It fails with
// ErrNoParent when the leaf is the root (or the machine is empty) and with
// ErrTypeMismatch when the frame above the leaf holds some other state.
func Parent[S State](m *Machine, expected StateID) (S, error) {
	var zero S
	if len(m.current) < 2 {
		return zero, ErrNoParent
	}
	fr := &m.frames[len(m.current)-2]
	if fr.desc.ID != expected {
		return zero, fmt.Errorf("expected %s, active parent is %s: %w",
			m.reg.Name(expected), fr.desc.Name, ErrTypeMismatch)
	}
	s, ok := fr.occupant.(S)
	if !ok {
		return zero, fmt.Errorf("parent %s has type %T: %w", fr.desc.Name, fr.occupant, ErrTypeMismatch)
	}
	return s, nil
}
