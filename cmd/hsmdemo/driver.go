package main

import (
	"log/slog"

	"github.com/tinyhsm/tinyhsm"
	"github.com/tinyhsm/tinyhsm/callback"
)

// A small serial-port driver chart, the classic embedded use case for this
// engine: two root states (port closed / port open) with the open side
// nesting an idle state and active transfer states.
//
//	Closed          Open
//	                 ├── Idle
//	                 ├── Transmitting
//	                 └── Receiving

const (
	stClosed tinyhsm.StateID = iota
	stOpen
	stIdle
	stTransmitting
	stReceiving
)

const (
	evOpen tinyhsm.EventID = iota
	evClose
	evTxStart
	evTxDone
	evRxByte
	evRxIdle
)

// Driver owns the machine instance and the completion callbacks external
// code may attach.
type Driver struct {
	m         *tinyhsm.Machine
	txPending []byte // handed to Transmitting on entry
	onTxDone  callback.Callback[int]
	onRxDone  callback.Callback[[]byte]
}

// Write requests a transfer. Accepted only while the driver sits in Idle;
// otherwise the event bubbles away unhandled.
func (d *Driver) Write(data []byte) {
	d.txPending = data
	d.m.Post(tinyhsm.Event{ID: evTxStart})
}

var driverRegistry = tinyhsm.NewLazyRegistry(func(r *tinyhsm.Registry) error {
	if err := tinyhsm.AddState(r, stClosed, stClosed, newClosed); err != nil {
		return err
	}
	if err := tinyhsm.AddState(r, stOpen, stOpen, newOpen); err != nil {
		return err
	}
	if err := tinyhsm.AddState(r, stIdle, stOpen, newIdle); err != nil {
		return err
	}
	if err := tinyhsm.AddState(r, stTransmitting, stOpen, newTransmitting); err != nil {
		return err
	}
	return tinyhsm.AddState(r, stReceiving, stOpen, newReceiving)
})

// NewDriver builds a driver instance in the closed state.
func NewDriver(log *slog.Logger) (*Driver, error) {
	reg, err := driverRegistry.Get()
	if err != nil {
		return nil, err
	}
	d := &Driver{}
	d.m = tinyhsm.New(reg,
		tinyhsm.WithName("serial0"),
		tinyhsm.WithOwner(d),
		tinyhsm.WithLogger(log),
	)
	if err := d.m.SetStart(stClosed); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Driver) Machine() *tinyhsm.Machine { return d.m }

// Closed: the port is down. Only open requests matter here.
type Closed struct {
	d *Driver
}

func newClosed(m *tinyhsm.Machine) *Closed {
	return &Closed{d: driverOf(m)}
}

func (s *Closed) OnEvent(ev tinyhsm.Event) bool {
	if ev.ID == evOpen {
		s.d.m.Transition(stIdle)
		return true
	}
	return false
}

// Open: common behavior for the whole open side of the chart. Close requests
// bubble up here from any substate.
type Open struct {
	d      *Driver
	opened int // transfers completed while open
}

func newOpen(m *tinyhsm.Machine) *Open {
	return &Open{d: driverOf(m)}
}

func (s *Open) OnEvent(ev tinyhsm.Event) bool {
	if ev.ID == evClose {
		s.d.m.Transition(stClosed)
		return true
	}
	return false
}

// Idle: open, nothing in flight.
type Idle struct {
	d *Driver
}

func newIdle(m *tinyhsm.Machine) *Idle {
	return &Idle{d: driverOf(m)}
}

func (s *Idle) OnEvent(ev tinyhsm.Event) bool {
	switch ev.ID {
	case evTxStart:
		s.d.m.Transition(stTransmitting)
		return true
	case evRxByte:
		s.d.m.Transition(stReceiving)
		return true
	}
	return false
}

// Transmitting: a write is in flight. The payload lives in the level's
// scratch buffer, so starting a transfer allocates nothing.
type Transmitting struct {
	d   *Driver
	buf []byte
	n   int
}

func newTransmitting(m *tinyhsm.Machine) *Transmitting {
	d := driverOf(m)
	s := &Transmitting{d: d, buf: m.Scratch(1)}
	s.n = copy(s.buf, d.txPending)
	d.txPending = nil
	return s
}

func (s *Transmitting) OnEvent(ev tinyhsm.Event) bool {
	if ev.ID == evTxDone {
		if p, err := tinyhsm.Parent[*Open](s.d.m, stOpen); err == nil {
			p.opened++
		}
		s.d.m.Transition(stIdle)
		return true
	}
	return false
}

func (s *Transmitting) OnExit() {
	s.d.onTxDone.Invoke(s.n)
}

// Receiving: bytes are arriving. Accumulates into the scratch buffer until
// the line goes idle.
type Receiving struct {
	d   *Driver
	buf []byte
	n   int
}

func newReceiving(m *tinyhsm.Machine) *Receiving {
	return &Receiving{d: driverOf(m), buf: m.Scratch(1)}
}

func (s *Receiving) OnEvent(ev tinyhsm.Event) bool {
	switch ev.ID {
	case evRxByte:
		if b, ok := ev.Payload.(byte); ok && s.n < len(s.buf) {
			s.buf[s.n] = b
			s.n++
		}
		return true
	case evRxIdle:
		if p, err := tinyhsm.Parent[*Open](s.d.m, stOpen); err == nil {
			p.opened++
		}
		s.d.m.Transition(stIdle)
		return true
	}
	return false
}

func (s *Receiving) OnExit() {
	s.d.onRxDone.Invoke(s.buf[:s.n])
}

// driverOf recovers the Driver that owns a machine instance.
func driverOf(m *tinyhsm.Machine) *Driver {
	return m.Owner().(*Driver)
}
