package isr_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinyhsm/tinyhsm"
	"github.com/tinyhsm/tinyhsm/isr"
)

const (
	stCounting tinyhsm.StateID = 0
	evTick     tinyhsm.EventID = 1
)

// counting tallies every event it sees; dispatch is single-threaded, so a
// plain int is enough to detect lost or torn posts.
type counting struct {
	seen int
}

func (s *counting) OnEvent(ev tinyhsm.Event) bool {
	if ev.ID == evTick {
		s.seen++
		return true
	}
	return false
}

func newCountingMachine(t *testing.T) (*tinyhsm.Machine, *counting) {
	t.Helper()
	var leaf *counting
	reg := tinyhsm.NewRegistry()
	require.NoError(t, tinyhsm.AddState(reg, stCounting, stCounting, func(*tinyhsm.Machine) *counting {
		leaf = &counting{}
		return leaf
	}))
	m := tinyhsm.New(reg)
	require.NoError(t, m.SetStart(stCounting))
	return m, leaf
}

func TestGuardDefaultsToMutexCover(t *testing.T) {
	m, leaf := newCountingMachine(t)
	g := isr.Guard(m, nil)

	g.Post(tinyhsm.Event{ID: evTick})
	g.PostSync(tinyhsm.Event{ID: evTick})
	assert.Equal(t, 2, leaf.seen)
	assert.Same(t, m, g.Machine())
}

func hammer(g *isr.Guarded, producers, perProducer int) {
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				if p%2 == 0 {
					g.Post(tinyhsm.Event{ID: evTick})
				} else {
					g.PostSync(tinyhsm.Event{ID: evTick})
				}
			}
		}(p)
	}
	wg.Wait()
}

func TestGuardedConcurrentPostMutex(t *testing.T) {
	m, leaf := newCountingMachine(t)
	g := isr.Guard(m, &isr.MutexCover{})

	const producers, perProducer = 8, 200
	hammer(g, producers, perProducer)

	assert.Equal(t, producers*perProducer, leaf.seen)
	assert.Zero(t, m.Pending())
}

func TestGuardedConcurrentPostSpin(t *testing.T) {
	m, leaf := newCountingMachine(t)
	g := isr.Guard(m, &isr.SpinCover{})

	const producers, perProducer = 8, 200
	hammer(g, producers, perProducer)

	assert.Equal(t, producers*perProducer, leaf.seen)
	assert.Zero(t, m.Pending())
}

func TestCoverBracketsNest(t *testing.T) {
	// Protect and Sync on the same cover must exclude each other, not just
	// their own side.
	covers := map[string]isr.Cover{
		"mutex": &isr.MutexCover{},
		"spin":  &isr.SpinCover{},
	}
	for name, c := range covers {
		t.Run(name, func(t *testing.T) {
			var shared, got int
			var wg sync.WaitGroup
			for p := 0; p < 4; p++ {
				wg.Add(1)
				go func(p int) {
					defer wg.Done()
					for i := 0; i < 500; i++ {
						if p%2 == 0 {
							c.Protect()
							shared++
							c.Unprotect()
						} else {
							c.Sync()
							shared++
							c.Unsync()
						}
					}
				}(p)
			}
			wg.Wait()
			c.Protect()
			got = shared
			c.Unprotect()
			assert.Equal(t, 2000, got)
		})
	}
}
