// Package tinyhsm implements a hierarchical state machine runtime for
// deterministic-timing workloads.
//
// A machine is described by a static tree of states. Each state sits at a
// nesting level given by its number of transitive parents (root = 0), and at
// most one state per level is active at any instant. The active states always
// form a contiguous root-to-leaf path: entering a leaf enters every ancestor
// above it first, and a transition between two leaves exits exactly the
// levels below their least common ancestor before entering the new branch.
//
// States are ordinary Go types implementing the State interface. The
// registered constructor doubles as the entry action and the optional Exiter
// implementation as the exit action, so a state's lifetime is exactly the
// span during which it is active. The registry is built once
// per machine type, the storage layout (per-level capacities and arena
// offsets) is planned once from it, and after a machine instance is
// constructed the engine performs no further allocation: frames, the active
// chain, the target-chain scratch and the event queue's steady-state storage
// are all preallocated.
//
// # Event dispatch
//
// Post appends an event to the instance's queue and, if no drain is in
// flight, drains it: each event is delivered to the innermost active state
// and bubbles to ancestors until one reports it handled. A handler requests a
// state change by calling Transition, which only records the target; the
// structural change is applied after the full bubbling pass for that event
// returns. Events posted from inside a handler are appended and processed
// within the same drain, never recursively, so every event runs to completion
// before the next one starts.
//
// # Concurrency
//
// A Machine instance is single-threaded by design. The Registry and Layout
// are immutable after the one-time build and may be shared by any number of
// instances without locking. Sharing one instance between goroutines (or an
// interrupt-style context) requires external serialization; see package isr.
package tinyhsm
