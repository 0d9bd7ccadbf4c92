package event

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrQueueFull   = errors.New("event queue full")
	ErrQueueClosed = errors.New("event queue closed")
)

// Queue is a bounded, non-blocking event queue. Multiple producers may
// push concurrently; one consumer pops.
type Queue struct {
	mu     sync.RWMutex
	ch     chan Event
	closed bool
}

// NewQueue allocates a queue with the given capacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{ch: make(chan Event, capacity)}
}

// TryPush enqueues an event without blocking. A full queue returns
// ErrQueueFull, never a silent drop. The read lock keeps the channel
// open for the duration of the send, so a concurrent Close cannot
// panic an in-flight push.
func (q *Queue) TryPush(e Event) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.ch <- e:
		return nil
	default:
		return ErrQueueFull
	}
}

// Pop blocks until an event is available. The second return is false
// once the queue is closed and drained, or the context is done.
func (q *Queue) Pop(ctx context.Context) (Event, bool) {
	select {
	case <-ctx.Done():
		return Event{}, false
	case e, ok := <-q.ch:
		if !ok {
			return Event{}, false
		}
		return e, true
	}
}

// Len reports the number of queued events.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Close stops the queue from accepting new events. Queued events remain
// poppable until drained.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
}
