package schedule

import (
	"errors"
	"testing"
	"time"
)

func TestInitialDueRepeats(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		rec  Recurrence
		tod  TimeOfDay
		now  time.Time
		want time.Time
	}{
		{
			// Daily event at 08:00 loaded at 09:00 rolls to the next day.
			name: "daily past today",
			rec:  RecurDaily,
			tod:  TimeOfDay{Hour: 8},
			now:  time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
			want: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
		},
		{
			// Hourly at :15:30 loaded at 10:10 is still reachable this hour.
			name: "hourly same hour",
			rec:  RecurHourly,
			tod:  TimeOfDay{Minute: 15, Second: 30},
			now:  time.Date(2026, 3, 1, 10, 10, 0, 0, time.UTC),
			want: time.Date(2026, 3, 1, 10, 15, 30, 0, time.UTC),
		},
		{
			name: "hourly next hour",
			rec:  RecurHourly,
			tod:  TimeOfDay{Minute: 15, Second: 30},
			now:  time.Date(2026, 3, 1, 10, 20, 0, 0, time.UTC),
			want: time.Date(2026, 3, 1, 11, 15, 30, 0, time.UTC),
		},
		{
			name: "minutely same minute",
			rec:  RecurMinutely,
			tod:  TimeOfDay{Second: 45},
			now:  time.Date(2026, 3, 1, 10, 10, 10, 0, time.UTC),
			want: time.Date(2026, 3, 1, 10, 10, 45, 0, time.UTC),
		},
		{
			// An exact match is not strictly in the future: advance one unit.
			name: "minutely exact now",
			rec:  RecurMinutely,
			tod:  TimeOfDay{Second: 10},
			now:  time.Date(2026, 3, 1, 10, 10, 10, 0, time.UTC),
			want: time.Date(2026, 3, 1, 10, 11, 10, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := InitialDue(tt.rec, tt.tod, tt.now)
			if err != nil {
				t.Fatalf("InitialDue error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("InitialDue = %v, want %v", got, tt.want)
			}
			if !got.After(tt.now) {
				t.Fatalf("first occurrence %v not strictly after now %v", got, tt.now)
			}
		})
	}
}

func TestInitialDueAtRejectsPast(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if _, err := InitialDueAt(now.Add(-time.Second), now); err == nil {
		t.Fatal("expected PastEventError for elapsed timestamp")
	}
	var past *PastEventError
	_, err := InitialDueAt(now, now)
	if !errors.As(err, &past) {
		t.Fatalf("timestamp equal to now must be rejected, got %v", err)
	}
	if _, err := InitialDueAt(now.Add(time.Second), now); err != nil {
		t.Fatalf("future timestamp rejected: %v", err)
	}
}

func TestNextDuePhaseStability(t *testing.T) {
	t.Parallel()
	// The next occurrence steps from the previous due instant, so the
	// seconds component never drifts no matter how late execution ran.
	due := time.Date(2026, 3, 1, 10, 0, 42, 0, time.UTC)
	for i := 0; i < 100; i++ {
		due = NextDue(due, RecurMinutely)
		if due.Second() != 42 {
			t.Fatalf("occurrence %d drifted to seconds=%d", i, due.Second())
		}
	}

	daily := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)
	next := NextDue(daily, RecurDaily)
	if want := daily.Add(24 * time.Hour); !next.Equal(want) {
		t.Fatalf("NextDue daily = %v, want %v", next, want)
	}
}

func TestParseRecurrence(t *testing.T) {
	t.Parallel()
	for tag, want := range map[string]Recurrence{
		"":       RecurNone,
		"none":   RecurNone,
		"minute": RecurMinutely,
		"hour":   RecurHourly,
		"day":    RecurDaily,
	} {
		got, err := ParseRecurrence(tag)
		if err != nil {
			t.Fatalf("ParseRecurrence(%q) error: %v", tag, err)
		}
		if got != want {
			t.Fatalf("ParseRecurrence(%q) = %v, want %v", tag, got, want)
		}
	}

	var malformed *MalformedDefinitionError
	if _, err := ParseRecurrence("weekly"); !errors.As(err, &malformed) {
		t.Fatalf("unknown tag must be a malformed-definition error, got %v", err)
	}
}

func TestParseTimeOfDay(t *testing.T) {
	t.Parallel()
	tod, err := ParseTimeOfDay("23:15:05")
	if err != nil {
		t.Fatalf("ParseTimeOfDay error: %v", err)
	}
	if tod.Hour != 23 || tod.Minute != 15 || tod.Second != 5 {
		t.Fatalf("unexpected result: %+v", tod)
	}
	if _, err := ParseTimeOfDay("24:00:00"); err == nil {
		t.Fatal("expected error for invalid hour")
	}
}
