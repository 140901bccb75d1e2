// Package queue provides the thread-safe FIFO handoff between the pipeline
// producer and its workers. Take blocks until an item is available; Put
// blocks only when the queue was built with a capacity bound and is full.
// Both calls honor context cancellation without corrupting queue state.
package queue

import (
	"context"
	"sync"

	"github.com/textmill/textmill/pkg/core/task"
)

// TaskQueue is an internally synchronized FIFO of task envelopes. Callers
// never need an external lock. A zero capacity means unbounded: Put never
// blocks the producer.
type TaskQueue struct {
	mu       sync.Mutex
	items    []task.Envelope
	capacity int

	// Edge-triggered wakeups for blocked consumers/producers. Buffered by
	// one so a signal sent with nobody waiting is not lost; Take and Put
	// re-signal when work or space remains, so no waiter sleeps through a
	// wakeup meant for it.
	notEmpty chan struct{}
	notFull  chan struct{}
}

// New creates a TaskQueue. capacity <= 0 yields an unbounded queue.
func New(capacity int) *TaskQueue {
	if capacity < 0 {
		capacity = 0
	}
	return &TaskQueue{
		capacity: capacity,
		notEmpty: make(chan struct{}, 1),
		notFull:  make(chan struct{}, 1),
	}
}

// Put inserts an envelope at the tail of the queue. For a bounded queue it
// blocks while the queue is full; cancellation of ctx while blocked returns
// ctx.Err() and leaves the queue untouched. An already-cancelled ctx fails
// immediately even when space is available, so a cancelled producer stops
// adding items instead of finishing its batch.
func (q *TaskQueue) Put(ctx context.Context, env task.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for {
		q.mu.Lock()
		if q.capacity == 0 || len(q.items) < q.capacity {
			q.items = append(q.items, env)
			spare := q.capacity == 0 || len(q.items) < q.capacity
			q.mu.Unlock()
			signal(q.notEmpty)
			if spare {
				signal(q.notFull)
			}
			return nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.notFull:
		}
	}
}

// Take removes and returns the envelope at the head of the queue, blocking
// until one is available. Envelopes are delivered in insertion order and
// each is delivered to exactly one caller. Cancellation of ctx while blocked
// returns ctx.Err(); an already-cancelled ctx fails immediately even when
// items are queued, so a cancelled worker does not drain the backlog.
func (q *TaskQueue) Take(ctx context.Context) (task.Envelope, error) {
	if err := ctx.Err(); err != nil {
		return task.Envelope{}, err
	}

	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			env := q.items[0]
			q.items = q.items[1:]
			remaining := len(q.items)
			q.mu.Unlock()
			if remaining > 0 {
				signal(q.notEmpty)
			}
			signal(q.notFull)
			return env, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return task.Envelope{}, ctx.Err()
		case <-q.notEmpty:
		}
	}
}

// Len returns the number of envelopes currently queued. Useful for logging
// only; the value is stale the moment it is returned.
func (q *TaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Capacity returns the configured bound, 0 meaning unbounded.
func (q *TaskQueue) Capacity() int {
	return q.capacity
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
