package engine

// queue is a FIFO of events produced between two drains.
// Not safe for concurrent use; engines guard it with their own mutex.
type queue[T any] struct {
	items []T
}

func (q *queue[T]) push(items ...T) {
	q.items = append(q.items, items...)
}

// drain returns all queued items in order and empties the queue.
func (q *queue[T]) drain() []T {
	if len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

func (q *queue[T]) clear() {
	q.items = nil
}
