package tinyhsm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func drainIDs(q *eventQueue) []EventID {
	var out []EventID
	for !q.empty() {
		out = append(out, q.front().ID)
		q.pop()
	}
	return out
}

func TestEventQueueFIFO(t *testing.T) {
	var q eventQueue
	assert.True(t, q.empty())

	for i := 0; i < 5; i++ {
		q.push(Event{ID: EventID(i)})
	}
	assert.Equal(t, 5, q.size())
	assert.Equal(t, []EventID{0, 1, 2, 3, 4}, drainIDs(&q))
	assert.True(t, q.empty())
	assert.Equal(t, 0, q.size())
}

func TestEventQueuePushDuringDrain(t *testing.T) {
	var q eventQueue
	q.push(Event{ID: 1})
	q.push(Event{ID: 2})

	assert.Equal(t, EventID(1), q.front().ID)
	q.push(Event{ID: 3}) // posted mid-drain, must come out last
	q.pop()

	assert.Equal(t, []EventID{2, 3}, drainIDs(&q))
}

func TestEventQueueResetsStorageWhenDrained(t *testing.T) {
	var q eventQueue
	q.push(Event{ID: 1})
	q.pop()

	// Fully drained: head index rewinds, storage is reused in place.
	assert.Equal(t, 0, q.head)
	assert.Empty(t, q.store)

	q.push(Event{ID: 2})
	assert.Equal(t, EventID(2), q.front().ID)
}

func TestEventQueueRenormalization(t *testing.T) {
	var q eventQueue
	for i := 0; i < queueNormLimit+5; i++ {
		q.push(Event{ID: EventID(i)})
	}
	// Consume most of the backlog without letting it drain to empty.
	for i := 0; i < queueNormLimit; i++ {
		q.pop()
	}
	before := q.size()

	// The next push compacts the live tail down to the front.
	q.push(Event{ID: 99})
	assert.Equal(t, 0, q.head)
	assert.Equal(t, before+1, q.size())

	want := []EventID{EventID(queueNormLimit), EventID(queueNormLimit + 1),
		EventID(queueNormLimit + 2), EventID(queueNormLimit + 3), EventID(queueNormLimit + 4), 99}
	assert.Equal(t, want, drainIDs(&q))
}

func TestEventQueueReset(t *testing.T) {
	var q eventQueue
	q.push(Event{ID: 1})
	q.push(Event{ID: 2})
	q.reset()
	assert.True(t, q.empty())
	assert.Equal(t, 0, q.size())
}
