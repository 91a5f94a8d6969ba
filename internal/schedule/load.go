package schedule

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// DefaultPulseDuration applies when a pulse definition omits duration.
const DefaultPulseDuration = 100 * time.Millisecond

// Definition is one record of the event file, read once at startup.
type Definition struct {
	EventTime       string   `json:"event_time"`
	Callback        string   `json:"callback"`
	Pin             *int     `json:"pin,omitempty"`
	Duration        *float64 `json:"duration,omitempty"` // seconds
	PinInitialValue *bool    `json:"pin_initial_value,omitempty"`
	Description     string   `json:"description,omitempty"`
	Repeat          string   `json:"repeat,omitempty"`
}

// PinInit is a pin referenced by a definition, with the initial state of
// its first reference (later references are ignored by the binder).
type PinInit struct {
	Name      string
	InitialOn bool
}

// Rejection reports one dropped definition. Rejections never abort the
// load of the remaining definitions.
type Rejection struct {
	Index       int
	Description string
	Err         error
}

// LoadResult is the outcome of parsing an event file.
type LoadResult struct {
	Events     []Event
	Pins       []PinInit
	Rejections []Rejection
}

// Load parses a JSON array of definitions and resolves each against now.
// A wholesale-malformed stream returns an error and no events; individual
// bad records are collected in Rejections.
func Load(r io.Reader, now time.Time) (LoadResult, error) {
	var res LoadResult

	b, err := io.ReadAll(r)
	if err != nil {
		return res, fmt.Errorf("read event file: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	var raws []json.RawMessage
	if err := dec.Decode(&raws); err != nil {
		return res, fmt.Errorf("decode event file: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return res, fmt.Errorf("decode event file: trailing data")
		}
		return res, fmt.Errorf("decode event file: %w", err)
	}

	// Each record decodes on its own, so one bad definition (a typoed
	// field, a wrong type) rejects only itself.
	for i, raw := range raws {
		def, err := decodeDefinition(raw)
		if err != nil {
			res.Rejections = append(res.Rejections, Rejection{Index: i, Description: def.Description, Err: err})
			continue
		}
		ev, pin, err := Resolve(def, now)
		if err != nil {
			res.Rejections = append(res.Rejections, Rejection{Index: i, Description: def.Description, Err: err})
			continue
		}
		if pin != nil {
			res.Pins = append(res.Pins, *pin)
		}
		res.Events = append(res.Events, ev)
	}
	return res, nil
}

// decodeDefinition strictly decodes one record. The description is
// recovered on a best-effort basis so rejections stay identifiable.
func decodeDefinition(raw json.RawMessage) (Definition, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var def Definition
	if err := dec.Decode(&def); err != nil {
		var loose Definition
		_ = json.Unmarshal(raw, &loose)
		return loose, &MalformedDefinitionError{Field: "record", Reason: err.Error()}
	}
	return def, nil
}

// Resolve validates one definition and computes its first due instant.
func Resolve(def Definition, now time.Time) (Event, *PinInit, error) {
	kind, err := ParseActionKind(def.Callback)
	if err != nil {
		return Event{}, nil, err
	}
	rec, err := ParseRecurrence(def.Repeat)
	if err != nil {
		return Event{}, nil, err
	}

	action := Action{Kind: kind}
	var pin *PinInit
	switch kind {
	case ActionActivate, ActionDeactivate, ActionPulse:
		if def.Pin == nil {
			return Event{}, nil, &MalformedDefinitionError{Field: "pin", Reason: "required for pin actions"}
		}
		action.Pin = pinName(*def.Pin)
		pin = &PinInit{Name: action.Pin}
		if def.PinInitialValue != nil {
			pin.InitialOn = *def.PinInitialValue
		}
	case ActionResync:
		// no pin
	}
	if kind == ActionPulse {
		action.Duration = DefaultPulseDuration
		if def.Duration != nil {
			if *def.Duration <= 0 {
				return Event{}, nil, &MalformedDefinitionError{Field: "duration", Reason: "must be positive"}
			}
			action.Duration = time.Duration(*def.Duration * float64(time.Second))
		}
	}

	var due time.Time
	if rec == RecurNone {
		at, err := parseTimestamp(def.EventTime)
		if err != nil {
			return Event{}, nil, err
		}
		due, err = InitialDueAt(at, now)
		if err != nil {
			return Event{}, nil, err
		}
	} else {
		tod, err := ParseTimeOfDay(def.EventTime)
		if err != nil {
			return Event{}, nil, err
		}
		due, err = InitialDue(rec, tod, now)
		if err != nil {
			return Event{}, nil, err
		}
	}

	desc := def.Description
	if desc == "" {
		desc = fmt.Sprintf("%s %s", kind, action.Pin)
	}
	return Event{Due: due, Action: action, Description: desc, Recurrence: rec}, pin, nil
}

// parseTimestamp accepts RFC3339 and zoneless ISO timestamps; the latter
// are interpreted as UTC, matching the reference-time convention.
func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, &MalformedDefinitionError{Field: "event_time", Reason: "required"}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, &MalformedDefinitionError{Field: "event_time", Reason: fmt.Sprintf("invalid timestamp %q", s)}
}

// pinName is the logical identifier the actuator layer binds.
func pinName(pin int) string {
	return fmt.Sprintf("GPIO%d", pin)
}
