// Package stream provides the event plumbing between the reasoning engine and
// the client-facing emitter: two FIFO queues and a router that decides which
// queue each engine event lands in.
package stream

import (
	"sync"

	"github.com/feastline/concierge/internal/domain"
)

// Queue is an unbounded FIFO of events safe for concurrent producers and a
// single consumer. Ready carries at most one pending signal; a consumer that
// drains with TryPop until empty before selecting on Ready never misses a
// push.
type Queue struct {
	mu    sync.Mutex
	items []domain.Event
	ready chan struct{}
}

func NewQueue() *Queue {
	return &Queue{ready: make(chan struct{}, 1)}
}

// Push appends an event and signals readiness. It never blocks.
func (q *Queue) Push(e domain.Event) {
	q.mu.Lock()
	q.items = append(q.items, e)
	q.mu.Unlock()
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// TryPop removes and returns the oldest event, or reports false if the queue
// is empty.
func (q *Queue) TryPop() (domain.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return domain.Event{}, false
	}
	e := q.items[0]
	q.items = q.items[1:]
	return e, true
}

// Ready returns a channel that receives after a Push. The signal is
// coalesced, not per-event.
func (q *Queue) Ready() <-chan struct{} {
	return q.ready
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
