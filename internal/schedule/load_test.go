package schedule

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var loadNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestLoadMixedDefinitions(t *testing.T) {
	t.Parallel()
	input := `[
		{"event_time": "08:00:00", "callback": "pulse", "pin": 17, "duration": 0.2, "repeat": "day", "description": "morning pulse"},
		{"event_time": "2025-01-01T00:00:00Z", "callback": "activate", "pin": 22, "description": "stale one-shot"},
		{"event_time": "00:30:00", "callback": "deactivate", "pin": 22, "repeat": "hour"},
		{"event_time": "00:00:30", "callback": "resync", "repeat": "minute"},
		{"event_time": "08:00:00", "callback": "launch", "pin": 5, "repeat": "day"}
	]`

	res, err := Load(strings.NewReader(input), loadNow)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(res.Events) != 3 {
		t.Fatalf("loaded %d events, want 3", len(res.Events))
	}
	if len(res.Rejections) != 2 {
		t.Fatalf("got %d rejections, want 2 (past one-shot, unknown callback)", len(res.Rejections))
	}
	// Rejections must keep their source index for the log line.
	if res.Rejections[0].Index != 1 || res.Rejections[1].Index != 4 {
		t.Fatalf("unexpected rejection indexes: %+v", res.Rejections)
	}

	pulse := res.Events[0]
	if pulse.Action.Kind != ActionPulse || pulse.Action.Pin != "GPIO17" {
		t.Fatalf("unexpected pulse action: %+v", pulse.Action)
	}
	if pulse.Action.Duration != 200*time.Millisecond {
		t.Fatalf("pulse duration = %v, want 200ms", pulse.Action.Duration)
	}
	if want := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC); !pulse.Due.Equal(want) {
		t.Fatalf("pulse due = %v, want %v", pulse.Due, want)
	}

	if len(res.Pins) != 2 {
		t.Fatalf("got %d pin references, want 2", len(res.Pins))
	}
}

func TestLoadRejectsOnlyTheBadRecord(t *testing.T) {
	t.Parallel()
	input := `[
		{"event_time": "08:00:00", "callback": "activate", "pin": 17, "repeat": "day", "descriptoin": "typo"},
		{"event_time": "08:30:00", "callback": "deactivate", "pin": 17, "repeat": "day", "description": "survivor"},
		"not an object"
	]`

	res, err := Load(strings.NewReader(input), loadNow)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(res.Events) != 1 || res.Events[0].Description != "survivor" {
		t.Fatalf("loaded %+v, want only the valid record", res.Events)
	}
	if len(res.Rejections) != 2 {
		t.Fatalf("got %d rejections, want 2 (typoed field, non-object)", len(res.Rejections))
	}
	if res.Rejections[0].Index != 0 || res.Rejections[1].Index != 2 {
		t.Fatalf("unexpected rejection indexes: %+v", res.Rejections)
	}
	for _, rej := range res.Rejections {
		var malformed *MalformedDefinitionError
		if !errors.As(rej.Err, &malformed) {
			t.Fatalf("rejection %d error = %v, want MalformedDefinitionError", rej.Index, rej.Err)
		}
	}
}

func TestLoadWholesaleMalformed(t *testing.T) {
	t.Parallel()
	if _, err := Load(strings.NewReader("{not json"), loadNow); err == nil {
		t.Fatal("expected error for malformed stream")
	}
	if _, err := Load(strings.NewReader("[] []"), loadNow); err == nil {
		t.Fatal("expected error for trailing data")
	}
}

func TestResolveValidation(t *testing.T) {
	t.Parallel()
	pin := 4
	neg := -1.0

	tests := []struct {
		name string
		def  Definition
	}{
		{name: "pin action without pin", def: Definition{EventTime: "08:00:00", Callback: "activate", Repeat: "day"}},
		{name: "negative pulse duration", def: Definition{EventTime: "08:00:00", Callback: "pulse", Pin: &pin, Duration: &neg, Repeat: "day"}},
		{name: "missing event time", def: Definition{Callback: "resync"}},
		{name: "bad timestamp", def: Definition{EventTime: "tomorrow", Callback: "resync"}},
		{name: "bad time of day", def: Definition{EventTime: "25:00:00", Callback: "resync", Repeat: "hour"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Resolve(tt.def, loadNow); err == nil {
				t.Fatalf("Resolve(%+v) accepted a malformed definition", tt.def)
			}
		})
	}
}

func TestResolveDefaults(t *testing.T) {
	t.Parallel()
	pin := 17
	ev, pi, err := Resolve(Definition{EventTime: "10:00:00", Callback: "pulse", Pin: &pin, Repeat: "day"}, loadNow)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if ev.Action.Duration != DefaultPulseDuration {
		t.Fatalf("default pulse duration = %v, want %v", ev.Action.Duration, DefaultPulseDuration)
	}
	if ev.Description == "" {
		t.Fatal("expected a generated description")
	}
	if pi == nil || pi.InitialOn {
		t.Fatalf("pin init = %+v, want off by default", pi)
	}

	on := true
	_, pi, err = Resolve(Definition{EventTime: "10:00:00", Callback: "activate", Pin: &pin, PinInitialValue: &on, Repeat: "day"}, loadNow)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if pi == nil || !pi.InitialOn {
		t.Fatalf("pin init = %+v, want initial on", pi)
	}
}

func TestResolveOneShotRFC3339(t *testing.T) {
	t.Parallel()
	ev, _, err := Resolve(Definition{EventTime: "2026-03-01T10:30:00Z", Callback: "resync"}, loadNow)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if ev.Recurrence != RecurNone {
		t.Fatalf("recurrence = %v, want none", ev.Recurrence)
	}
	if want := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC); !ev.Due.Equal(want) {
		t.Fatalf("due = %v, want %v", ev.Due, want)
	}

	// Zoneless timestamps read as UTC.
	ev, _, err = Resolve(Definition{EventTime: "2026-03-01T10:30:00", Callback: "resync"}, loadNow)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if want := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC); !ev.Due.Equal(want) {
		t.Fatalf("due = %v, want %v", ev.Due, want)
	}
}
