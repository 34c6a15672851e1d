package sim

import "container/heap"

// EventQueue orders events by time. At equal times primary events leave
// before secondary ones, and otherwise events leave in arrival order. The
// queue is not safe for concurrent use.
type EventQueue struct {
	events  eventHeap
	arrival uint64
}

// NewEventQueue creates an empty queue.
func NewEventQueue() *EventQueue {
	return &EventQueue{}
}

// Push adds an event.
func (q *EventQueue) Push(evt Event) {
	heap.Push(&q.events, queuedEvent{evt: evt, arrival: q.arrival})
	q.arrival++
}

// Pop removes and returns the earliest event.
func (q *EventQueue) Pop() Event {
	return heap.Pop(&q.events).(queuedEvent).evt
}

// Peek returns the earliest event without removing it.
func (q *EventQueue) Peek() Event {
	return q.events[0].evt
}

// Len returns the number of queued events.
func (q *EventQueue) Len() int {
	return len(q.events)
}

type queuedEvent struct {
	evt     Event
	arrival uint64
}

type eventHeap []queuedEvent

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	a, b := h[i], h[j]

	if ta, tb := a.evt.Time(), b.evt.Time(); ta != tb {
		return ta < tb
	}

	if sa, sb := a.evt.IsSecondary(), b.evt.IsSecondary(); sa != sb {
		return !sa
	}

	return a.arrival < b.arrival
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(queuedEvent))
}

func (h *eventHeap) Pop() any {
	old := *h
	last := old[len(old)-1]
	old[len(old)-1] = queuedEvent{}
	*h = old[:len(old)-1]

	return last
}
