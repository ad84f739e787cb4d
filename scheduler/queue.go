package scheduler

import "container/heap"

// queue is a heap of pending requests: highest priority first, then lowest
// sequence number first.
//
// Fresh requests get increasing sequence numbers, requests put back after a
// rate-limit get decreasing negative ones, which places them ahead of every
// other request of the same priority.
type queue []*Request

func (q queue) Len() int { return len(q) }

func (q queue) Less(i, j int) bool {
	if q[i].Priority != q[j].Priority {
		return q[i].Priority > q[j].Priority
	}
	return q[i].seq < q[j].seq
}

func (q queue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *queue) Push(x any) {
	r := x.(*Request)
	r.index = len(*q)
	*q = append(*q, r)
}

func (q *queue) Pop() any {
	old := *q
	n := len(old)
	r := old[n-1]
	old[n-1] = nil
	r.index = -1
	*q = old[:n-1]
	return r
}

// victim returns the request to shed when the queue is full: the lowest
// priority one, and among those the oldest.
func (q queue) victim() *Request {
	var v *Request
	for _, r := range q {
		if v == nil || r.Priority < v.Priority || (r.Priority == v.Priority && r.seq < v.seq) {
			v = r
		}
	}
	return v
}

var _ heap.Interface = (*queue)(nil)
