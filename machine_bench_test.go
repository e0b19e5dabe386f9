package tinyhsm_test

import (
	"testing"

	"github.com/tinyhsm/tinyhsm"
)

const (
	benchRootID  tinyhsm.StateID = 0
	benchLeafAID tinyhsm.StateID = 1
	benchLeafBID tinyhsm.StateID = 2

	benchEvFlip tinyhsm.EventID = 1
	benchEvNoop tinyhsm.EventID = 2
)

type benchRoot struct{}

func (benchRoot) OnEvent(tinyhsm.Event) bool { return false }

type benchLeaf struct {
	m    *tinyhsm.Machine
	peer tinyhsm.StateID
}

func (s *benchLeaf) OnEvent(ev tinyhsm.Event) bool {
	switch ev.ID {
	case benchEvFlip:
		_ = s.m.Transition(s.peer)
		return true
	case benchEvNoop:
		return true
	}
	return false
}

func newBenchMachine(b *testing.B) *tinyhsm.Machine {
	b.Helper()
	reg := tinyhsm.NewRegistry()
	must := func(err error) {
		if err != nil {
			b.Fatalf("registry setup: %v", err)
		}
	}
	must(tinyhsm.AddState(reg, benchRootID, benchRootID, func(*tinyhsm.Machine) benchRoot {
		return benchRoot{}
	}))
	must(tinyhsm.AddState(reg, benchLeafAID, benchRootID, func(m *tinyhsm.Machine) *benchLeaf {
		return &benchLeaf{m: m, peer: benchLeafBID}
	}))
	must(tinyhsm.AddState(reg, benchLeafBID, benchRootID, func(m *tinyhsm.Machine) *benchLeaf {
		return &benchLeaf{m: m, peer: benchLeafAID}
	}))

	m := tinyhsm.New(reg)
	if err := m.SetStart(benchLeafAID); err != nil {
		b.Fatalf("start: %v", err)
	}
	return m
}

// BenchmarkTransition measures one full dispatch that exits the current leaf
// and enters its sibling.
func BenchmarkTransition(b *testing.B) {
	m := newBenchMachine(b)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Post(tinyhsm.Event{ID: benchEvFlip})
	}
}

// BenchmarkDispatchHandled measures a dispatch that the leaf consumes without
// requesting a transition.
func BenchmarkDispatchHandled(b *testing.B) {
	m := newBenchMachine(b)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Post(tinyhsm.Event{ID: benchEvNoop})
	}
}

// BenchmarkDispatchBubbled measures an event no state handles, so it walks the
// whole active path before being discarded.
func BenchmarkDispatchBubbled(b *testing.B) {
	m := newBenchMachine(b)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Post(tinyhsm.Event{ID: 99})
	}
}

// BenchmarkDeepTransition measures a transition between leaves in two
// separate four-level subtrees, the worst case for exit and entry work.
func BenchmarkDeepTransition(b *testing.B) {
	const depth = 4

	reg := tinyhsm.NewRegistry()
	must := func(err error) {
		if err != nil {
			b.Fatalf("registry setup: %v", err)
		}
	}
	must(tinyhsm.AddState(reg, 0, 0, func(*tinyhsm.Machine) benchRoot {
		return benchRoot{}
	}))

	// Two chains hanging off the shared root: 1..4 and 11..14.
	addChain := func(base tinyhsm.StateID, peerLeaf tinyhsm.StateID) {
		parent := tinyhsm.StateID(0)
		for i := 1; i <= depth; i++ {
			id := base + tinyhsm.StateID(i)
			if i < depth {
				must(tinyhsm.AddState(reg, id, parent, func(*tinyhsm.Machine) benchRoot {
					return benchRoot{}
				}))
			} else {
				must(tinyhsm.AddState(reg, id, parent, func(m *tinyhsm.Machine) *benchLeaf {
					return &benchLeaf{m: m, peer: peerLeaf}
				}))
			}
			parent = id
		}
	}
	addChain(0, 10+depth)
	addChain(10, 0+depth)

	m := tinyhsm.New(reg)
	if err := m.SetStart(depth); err != nil {
		b.Fatalf("start: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Post(tinyhsm.Event{ID: benchEvFlip})
	}
}
