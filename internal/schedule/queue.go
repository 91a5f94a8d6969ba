package schedule

import (
	"sort"
	"time"
)

// Event is a queue element: one pending occurrence of a definition.
//
// Ownership: an Event belongs to the Queue between insertion and Pop;
// the engine owns it for the duration of one execution, then either
// drops it (RecurNone) or reinserts it with a fresh Due.
type Event struct {
	Due         time.Time
	Action      Action
	Description string
	Recurrence  Recurrence
}

// Queue keeps pending events sorted ascending by due instant, ties broken
// by insertion order. It carries no lock: the load phase finishes before
// the engine loop starts, and afterwards the loop goroutine is the only
// reader and writer.
type Queue struct {
	events []Event
}

func NewQueue() *Queue { return &Queue{} }

func (q *Queue) Len() int { return len(q.events) }

// Insert places the event at its sorted position.
func (q *Queue) Insert(e Event) {
	// First slot strictly after e.Due: equal due instants keep insertion order.
	i := sort.Search(len(q.events), func(i int) bool {
		return q.events[i].Due.After(e.Due)
	})
	q.events = append(q.events, Event{})
	copy(q.events[i+1:], q.events[i:])
	q.events[i] = e
}

// Peek returns the earliest event without removing it.
func (q *Queue) Peek() (Event, bool) {
	if len(q.events) == 0 {
		return Event{}, false
	}
	return q.events[0], true
}

// Pop removes and returns the earliest event.
func (q *Queue) Pop() (Event, bool) {
	if len(q.events) == 0 {
		return Event{}, false
	}
	e := q.events[0]
	copy(q.events, q.events[1:])
	q.events = q.events[:len(q.events)-1]
	return e, true
}
