// Package queue provides a concurrent, unbounded FIFO queue of
// swap.Event values, decoupling a chain observer's poll loop (which must
// never block on a slow consumer) from the rate at which a swapexec
// Store can durably append events.
package queue

import (
	"sync"

	"github.com/atomicswapd/swapd/swap"
)

// EventQueue is a concurrency-safe, unbounded FIFO of swap.Event values.
// A single writer goroutine (the chain observer) calls Push; a single
// reader goroutine (the event pump feeding Store.Append) calls Pop in a
// loop until it returns ok=false.
type EventQueue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	items    []swap.Event
	closed   bool
	overflow int
}

// New returns an empty EventQueue.
func New() *EventQueue {
	q := &EventQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends e to the back of the queue and wakes any blocked Pop.
func (q *EventQueue) Push(e swap.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.overflow++
		return
	}
	q.items = append(q.items, e)
	q.cond.Signal()
}

// Pop removes and returns the front of the queue, blocking until an item
// is available or the queue is closed. ok is false only once the queue is
// closed and drained.
func (q *EventQueue) Pop() (e swap.Event, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return swap.Event{}, false
	}

	e, q.items = q.items[0], q.items[1:]
	return e, true
}

// Close marks the queue closed: pending items still drain via Pop, but no
// further Push calls are accepted (they're counted instead, see
// Overflow). Safe to call more than once.
func (q *EventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

// Overflow reports how many Push calls were dropped after Close.
func (q *EventQueue) Overflow() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.overflow
}

// Len reports the number of items currently queued.
func (q *EventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
