// Package queue is a bounded FIFO ring buffer.
package queue

import "sync"

// Queue holds up to size-1 values; one slot stays empty to tell full from empty.
type Queue[T any] struct {
	mu         sync.Mutex
	buf        []T
	head, tail int
}

func (q *Queue[T]) Init(size int) {
	if size < 2 {
		size = 2
	}
	q.buf = make([]T, size)
	q.head, q.tail = 0, 0
}

func (q *Queue[T]) TryPush(v T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	next := (q.head + 1) % len(q.buf)
	if next == q.tail { // full
		return false
	}
	q.buf[q.head] = v
	q.head = next
	return true
}

func (q *Queue[T]) TryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero T
	if q.head == q.tail {
		return zero, false
	}
	v := q.buf[q.tail]
	q.buf[q.tail] = zero
	q.tail = (q.tail + 1) % len(q.buf)
	return v, true
}

// Len is the number of queued values.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return (q.head - q.tail + len(q.buf)) % len(q.buf)
}
