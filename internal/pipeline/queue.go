// Package pipeline provides the bounded inter-stage queues and worker
// orchestration shared by every stage of the behavioral traffic pipeline,
// following the channel-based consumer/producer loops in
// flow-enricher/internal/flow-enricher/consumer.go and enricher.go, and
// §5/§9's requirement that the "global_state" aggregate become an explicit
// context struct rather than module-level mutable state.
package pipeline

import "sync"

// Queue is a bounded MPMC queue with a drop-oldest backpressure policy
// (§4.1, §7: "Backpressure on bounded queues causes the producer to
// drop-oldest; this is a design choice (liveness over completeness)").
// It is built on a buffered channel rather than a container/list/mutex
// ring, since Go's channel semantics already give us the needed multi-
// producer/multi-consumer safety; only the drop-oldest Put needs an extra
// mutex to make "pop the oldest, then push" atomic.
type Queue[T any] struct {
	mu sync.Mutex
	ch chan T

	droppedTotal uint64
}

// NewQueue creates a Queue with the given bounded capacity.
func NewQueue[T any](capacity int) *Queue[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue[T]{ch: make(chan T, capacity)}
}

// Put enqueues v, dropping the oldest queued item first if the queue is
// full. Returns true if an item was dropped to make room.
func (q *Queue[T]) Put(v T) (dropped bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	select {
	case q.ch <- v:
		return false
	default:
	}

	select {
	case <-q.ch:
		dropped = true
		q.droppedTotal++
	default:
	}
	select {
	case q.ch <- v:
	default:
		// Another producer raced us and refilled the slot; give up rather
		// than block, preserving the non-blocking contract of Put.
	}
	return dropped
}

// Get blocks until an item is available or done is closed, returning
// ok=false in the latter case.
func (q *Queue[T]) Get(done <-chan struct{}) (v T, ok bool) {
	select {
	case v, ok = <-q.ch:
		return v, ok
	case <-done:
		return v, false
	}
}

// TryGet returns immediately with ok=false if the queue is empty.
func (q *Queue[T]) TryGet() (v T, ok bool) {
	select {
	case v, ok = <-q.ch:
		return v, ok
	default:
		return v, false
	}
}

// Len reports the current number of queued items.
func (q *Queue[T]) Len() int {
	return len(q.ch)
}

// DroppedTotal reports the cumulative number of items dropped by Put due to
// a full queue.
func (q *Queue[T]) DroppedTotal() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.droppedTotal
}

// Close closes the underlying channel. Only the sole producer may call
// this; consumers observe it via Get returning ok=false once drained.
func (q *Queue[T]) Close() {
	close(q.ch)
}
