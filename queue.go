package tickwait

// queue is a FIFO queue backed by two alternating slices.
//
// A tick pass detaches the queued items; anything pushed while the pass runs
// lands in the other slice and is reattached behind the items the pass kept.
type queue[E any] struct {
	items []E
	head  int
	spare []E
}

func (q *queue[E]) Len() int {
	return len(q.items) - q.head
}

func (q *queue[E]) Empty() bool {
	return q.Len() == 0
}

func (q *queue[E]) Push(v E) {
	if q.head != 0 && len(q.items) == cap(q.items) {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items, q.head = q.items[:n], 0
	}
	q.items = append(q.items, v)
}

func (q *queue[E]) Pop() (v E) {
	q.items[q.head], v = v, q.items[q.head]
	q.head++
	if q.head == len(q.items) {
		q.items, q.head = q.items[:0], 0
	}
	return v
}

// detach removes and returns every item in the queue.
// The caller owns the returned slice until it calls reattach.
func (q *queue[E]) detach() []E {
	s := q.items[q.head:]
	q.items, q.head = q.spare[:0], 0
	q.spare = nil
	return s
}

// reattach puts kept, a prefix of the slice returned by detach, back in
// front of the items pushed since then.
// The caller must have cleared the rest of that slice.
func (q *queue[E]) reattach(kept []E) {
	arrivals := q.items[q.head:]
	if len(arrivals) != 0 {
		kept = append(kept, arrivals...)
	}
	clear(q.items[:cap(q.items)])
	q.spare = q.items[:0]
	q.items, q.head = kept, 0
}

// drain removes every item in the queue and calls f on each, in order.
func (q *queue[E]) drain(f func(E)) {
	for !q.Empty() {
		f(q.Pop())
	}
}
