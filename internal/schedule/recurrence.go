package schedule

import (
	"fmt"
	"time"
)

// Recurrence decides whether and how an event's due instant advances
// after it fires.
type Recurrence int

const (
	RecurNone Recurrence = iota
	RecurMinutely
	RecurHourly
	RecurDaily
)

func (r Recurrence) String() string {
	switch r {
	case RecurNone:
		return "none"
	case RecurMinutely:
		return "minute"
	case RecurHourly:
		return "hour"
	case RecurDaily:
		return "day"
	default:
		return fmt.Sprintf("recurrence(%d)", int(r))
	}
}

// ParseRecurrence maps a definition's repeat tag. Unknown tags are an
// error: silently accepting an event that would never be scheduled hides
// config typos.
func ParseRecurrence(tag string) (Recurrence, error) {
	switch tag {
	case "", "none":
		return RecurNone, nil
	case "minute":
		return RecurMinutely, nil
	case "hour":
		return RecurHourly, nil
	case "day":
		return RecurDaily, nil
	default:
		return 0, &MalformedDefinitionError{Field: "repeat", Reason: fmt.Sprintf("unknown recurrence %q", tag)}
	}
}

// interval returns one unit of the recurrence granularity.
func (r Recurrence) interval() time.Duration {
	switch r {
	case RecurMinutely:
		return time.Minute
	case RecurHourly:
		return time.Hour
	case RecurDaily:
		return 24 * time.Hour
	default:
		return 0
	}
}

// TimeOfDay is the wall-clock component carried by repeating definitions.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// ParseTimeOfDay parses "HH:MM:SS".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		return TimeOfDay{}, &MalformedDefinitionError{Field: "event_time", Reason: fmt.Sprintf("invalid time of day %q", s)}
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
}

// InitialDue computes the first due instant for a repeating definition:
// the time-of-day is combined with now at the matching granularity, then
// pushed forward one granularity unit if the result is not strictly in
// the future. The first occurrence is therefore always ahead of now.
func InitialDue(rec Recurrence, tod TimeOfDay, now time.Time) (time.Time, error) {
	var due time.Time
	switch rec {
	case RecurDaily:
		due = time.Date(now.Year(), now.Month(), now.Day(), tod.Hour, tod.Minute, tod.Second, 0, now.Location())
	case RecurHourly:
		due = time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), tod.Minute, tod.Second, 0, now.Location())
	case RecurMinutely:
		due = time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), now.Minute(), tod.Second, 0, now.Location())
	default:
		return time.Time{}, &MalformedDefinitionError{Field: "repeat", Reason: "recurrence carries no time of day"}
	}
	if !due.After(now) {
		due = due.Add(rec.interval())
	}
	return due, nil
}

// InitialDueAt validates a one-shot definition's literal timestamp.
func InitialDueAt(at, now time.Time) (time.Time, error) {
	if !at.After(now) {
		return time.Time{}, &PastEventError{At: at, Now: now}
	}
	return at, nil
}

// NextDue advances a fired recurring event. The step is added to the
// previous due instant, never to the current time, so the occurrence
// phase stays stable even when execution was briefly delayed.
func NextDue(prev time.Time, rec Recurrence) time.Time {
	iv := rec.interval()
	if iv <= 0 {
		return prev
	}
	return prev.Add(iv)
}
