package schedule

import (
	"fmt"
	"time"
)

// PastEventError rejects a one-shot definition whose timestamp already
// elapsed at load time. The definition is dropped; loading continues.
type PastEventError struct {
	At  time.Time
	Now time.Time
}

func (e *PastEventError) Error() string {
	return fmt.Sprintf("event time %s is in the past (now %s)",
		e.At.Format(time.RFC3339), e.Now.Format(time.RFC3339))
}

// MalformedDefinitionError marks a definition with a missing or invalid
// required field. The definition is dropped; loading continues.
type MalformedDefinitionError struct {
	Field  string
	Reason string
}

func (e *MalformedDefinitionError) Error() string {
	return fmt.Sprintf("malformed event definition: %s: %s", e.Field, e.Reason)
}
