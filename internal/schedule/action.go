package schedule

import (
	"fmt"
	"time"
)

// ActionKind enumerates the effects an event can trigger.
type ActionKind int

const (
	ActionActivate ActionKind = iota
	ActionDeactivate
	ActionPulse
	ActionResync
)

func (k ActionKind) String() string {
	switch k {
	case ActionActivate:
		return "activate"
	case ActionDeactivate:
		return "deactivate"
	case ActionPulse:
		return "pulse"
	case ActionResync:
		return "resync"
	default:
		return fmt.Sprintf("action(%d)", int(k))
	}
}

// Action is a tagged variant interpreted by the engine.
// Pin and Duration are meaningful only for the pin-backed kinds;
// keeping the data here (instead of closures over engine state) makes
// events inspectable and trivially testable.
type Action struct {
	Kind     ActionKind
	Pin      string
	Duration time.Duration
}

// ParseActionKind maps a definition's callback name to its kind.
func ParseActionKind(name string) (ActionKind, error) {
	switch name {
	case "activate":
		return ActionActivate, nil
	case "deactivate":
		return ActionDeactivate, nil
	case "pulse":
		return ActionPulse, nil
	case "resync":
		return ActionResync, nil
	default:
		return 0, &MalformedDefinitionError{Field: "callback", Reason: fmt.Sprintf("unknown action %q", name)}
	}
}
