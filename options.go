package tinyhsm

import "log/slog"

// Option applies per-instance configuration to a Machine.
type Option func(*Machine)

// WithName sets the instance name used in log records and visualizations.
// Unnamed instances get a generated UUID.
func WithName(name string) Option {
	return func(m *Machine) {
		m.name = name
	}
}

// WithOwner attaches the owning object to the instance, retrievable from
// state constructors via Machine.Owner. Constructors registered for a machine
// type are shared by all its instances, so per-instance context has to travel
// through the machine handle.
func WithOwner(owner any) Option {
	return func(m *Machine) {
		m.owner = owner
	}
}

// WithLogger enables structured instrumentation: entries, exits, applied
// transitions and unhandled events are logged at Debug level. By default the
// machine logs nowhere.
func WithLogger(log *slog.Logger) Option {
	return func(m *Machine) {
		if log != nil {
			m.log = log
		}
	}
}

// WithQueueCapacity preallocates the event queue's backing storage, avoiding
// growth during the first bursts. The queue still grows past this if needed.
func WithQueueCapacity(n int) Option {
	return func(m *Machine) {
		if n > 0 {
			m.queue.store = make([]Event, 0, n)
		}
	}
}
