package scheduler

import "time"

// trigger binds a due time to one delivery of one notification.
type trigger struct {
	dueAt          time.Time
	userID         int64
	notificationID string
	seq            uint64 // insertion order, breaks ties on dueAt
	index          int
}

// triggerHeap is a container/heap min-heap ordered by (dueAt, seq).
type triggerHeap []*trigger

func (h triggerHeap) Len() int { return len(h) }

func (h triggerHeap) Less(i, j int) bool {
	if h[i].dueAt.Equal(h[j].dueAt) {
		return h[i].seq < h[j].seq
	}
	return h[i].dueAt.Before(h[j].dueAt)
}

func (h triggerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *triggerHeap) Push(x any) {
	t := x.(*trigger)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *triggerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
