package tinyhsm

// queueNormLimit is the backlog size past which push starts compacting popped
// space at the front of the slice.
const queueNormLimit = 15

// eventQueue is a FIFO that is expected to drain to empty regularly, which is
// what the run-to-completion loop guarantees. That expectation lets it live
// in a single slice: popping advances a head index, and when the queue
// empties the slice is reset in place, so the steady state allocates nothing.
// If a drain is slow to catch up, push compacts the live elements down to the
// front instead of letting the slice grow without bound.
type eventQueue struct {
	store []Event
	head  int
}

func (q *eventQueue) push(ev Event) {
	if len(q.store) > queueNormLimit && q.head > len(q.store)/2 {
		n := copy(q.store, q.store[q.head:])
		q.store = q.store[:n]
		q.head = 0
	}
	q.store = append(q.store, ev)
}

// pop discards the front element. Call only after front.
func (q *eventQueue) pop() {
	q.head++
	if q.head == len(q.store) {
		q.head = 0
		q.store = q.store[:0]
	}
}

func (q *eventQueue) front() Event {
	return q.store[q.head]
}

func (q *eventQueue) empty() bool {
	return len(q.store) == 0
}

func (q *eventQueue) size() int {
	return len(q.store) - q.head
}

func (q *eventQueue) reset() {
	q.head = 0
	q.store = q.store[:0]
}
