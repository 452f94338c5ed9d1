package scheduling

import (
	"fmt"
	"strings"
)

// ValidationError marks a malformed candidate. It blocks submission before
// anything reaches the conflict check or the state machine.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConflictError carries the full list of conflicting appointments so the
// caller can present specifics rather than a bare boolean.
type ConflictError struct {
	Conflicts []Conflict
}

func (e *ConflictError) Error() string {
	parts := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		parts = append(parts, fmt.Sprintf("%s at %s", c.AppointmentID, c.Start))
	}
	return fmt.Sprintf("candidate overlaps %d appointment(s): %s", len(e.Conflicts), strings.Join(parts, ", "))
}

// IllegalTransitionError reports a status change not present in the
// transition table. It is fatal to that single mutation attempt only.
type IllegalTransitionError struct {
	From Status
	To   Status
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal status transition %s -> %s", e.From, e.To)
}
