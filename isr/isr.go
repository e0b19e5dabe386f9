// Package isr provides the critical-section primitives for sharing a machine
// between thread context and interrupt-style context.
//
// The engine itself is single-threaded and never locks. When one producer
// runs at interrupt priority (on hosted Go: a high-priority goroutine, a
// signal handler trampoline, a cgo callback) and another in ordinary thread
// context, both sides go through a Cover: the thread side brackets its
// critical sections with Protect/Unprotect, the interrupt side with
// Sync/Unsync. Each pair is a paired acquire/release, so data written inside
// one side's bracket is visible to the other.
//
// Guarded wraps a Machine so that every Post happens inside such a bracket.
package isr

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/tinyhsm/tinyhsm"
)

// Cover serializes thread-context critical sections against interrupt-context
// code. Protect/Unprotect bracket the thread side, Sync/Unsync the interrupt
// side.
type Cover interface {
	Protect()
	Unprotect()
	Sync()
	Unsync()
}

// MutexCover is the hosted implementation: both sides take the same mutex.
// Use it whenever the "interrupt" side is allowed to block.
type MutexCover struct {
	mu sync.Mutex
}

func (c *MutexCover) Protect()   { c.mu.Lock() }
func (c *MutexCover) Unprotect() { c.mu.Unlock() }
func (c *MutexCover) Sync()      { c.mu.Lock() }
func (c *MutexCover) Unsync()    { c.mu.Unlock() }

// SpinCover gates both sides on one atomic flag, the closest analogue of an
// interrupt-disable gate. Acquire spins; sections guarded by it must stay
// short and must never block.
type SpinCover struct {
	held atomic.Bool
}

func (c *SpinCover) acquire() {
	for !c.held.CompareAndSwap(false, true) {
		runtime.Gosched()
	}
}

func (c *SpinCover) release() {
	c.held.Store(false)
}

func (c *SpinCover) Protect()   { c.acquire() }
func (c *SpinCover) Unprotect() { c.release() }
func (c *SpinCover) Sync()      { c.acquire() }
func (c *SpinCover) Unsync()    { c.release() }

// Guarded serializes event posting to one machine through a Cover. The
// machine's drain runs inside the bracket, preserving run-to-completion
// across producers.
type Guarded struct {
	cover Cover
	m     *tinyhsm.Machine
}

// Guard wraps m. A nil cover defaults to a MutexCover.
func Guard(m *tinyhsm.Machine, cover Cover) *Guarded {
	if cover == nil {
		cover = &MutexCover{}
	}
	return &Guarded{cover: cover, m: m}
}

// Post delivers an event from thread context.
func (g *Guarded) Post(ev tinyhsm.Event) {
	g.cover.Protect()
	defer g.cover.Unprotect()
	g.m.Post(ev)
}

// PostSync delivers an event from interrupt context.
func (g *Guarded) PostSync(ev tinyhsm.Event) {
	g.cover.Sync()
	defer g.cover.Unsync()
	g.m.Post(ev)
}

// Machine returns the wrapped instance. Direct use bypasses the cover.
func (g *Guarded) Machine() *tinyhsm.Machine { return g.m }
