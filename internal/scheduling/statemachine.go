package scheduling

import (
	"time"
)

// transitions is the closed allowed-transition table. Cancelled is a dead
// end; completed can only be explicitly reactivated back to scheduled.
var transitions = map[Status][]Status{
	StatusScheduled:  {StatusConfirmed, StatusInProgress, StatusCancelled},
	StatusConfirmed:  {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusScheduled, StatusCancelled},
	StatusCompleted:  {StatusScheduled},
	StatusCancelled:  {},
}

// CanTransition reports whether from -> to appears in the transition table.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition returns a copy of the appointment moved to the target status,
// with lifecycle timestamps applied:
//
//   - entering in-progress sets StartedAt once, never overwriting it
//   - entering completed sets CompletedAt
//   - reactivating out of completed clears CompletedAt but keeps StartedAt,
//     so the consultation history survives a re-open
//
// Entering in-progress deliberately does not re-run conflict detection: the
// slot was reserved at creation time, and that trust boundary is the
// caller's contract.
func Transition(a Appointment, target Status, now time.Time) (Appointment, error) {
	if !target.Valid() {
		return Appointment{}, &ValidationError{Field: "status", Reason: "unknown status"}
	}
	if !CanTransition(a.Status, target) {
		return Appointment{}, &IllegalTransitionError{From: a.Status, To: target}
	}

	updated := a
	updated.Status = target
	updated.UpdatedAt = now

	switch target {
	case StatusInProgress:
		if updated.StartedAt == nil {
			started := now
			updated.StartedAt = &started
		}
	case StatusCompleted:
		completed := now
		updated.CompletedAt = &completed
	case StatusScheduled:
		// Pause from in-progress or reactivation from completed.
		updated.CompletedAt = nil
	}

	return updated, nil
}
