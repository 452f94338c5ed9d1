package scheduling

import (
	"time"

	"github.com/google/uuid"
)

// Candidate is a proposed appointment before persistence.
type Candidate struct {
	PatientID       uuid.UUID
	ProviderID      uuid.UUID
	Date            time.Time
	Start           TimeOfDay
	DurationMinutes int
	Type            AppointmentType
	Priority        Priority
	Notes           string
}

func (c Candidate) End() int {
	return c.Start.Minutes() + c.DurationMinutes
}

// Validate rejects malformed candidates before any conflict check runs.
func (c Candidate) Validate() error {
	if c.PatientID == uuid.Nil {
		return &ValidationError{Field: "patient", Reason: "required"}
	}
	if c.ProviderID == uuid.Nil {
		return &ValidationError{Field: "provider", Reason: "required"}
	}
	if c.Date.IsZero() {
		return &ValidationError{Field: "date", Reason: "required"}
	}
	if !c.Start.Valid() {
		return &ValidationError{Field: "time", Reason: "must be a valid time of day"}
	}
	if c.DurationMinutes <= 0 {
		return &ValidationError{Field: "duration", Reason: "must be positive"}
	}
	if !c.Type.Valid() {
		return &ValidationError{Field: "type", Reason: "unknown appointment type"}
	}
	if !c.Priority.Valid() {
		return &ValidationError{Field: "priority", Reason: "unknown priority"}
	}
	return nil
}

// Conflict describes one existing appointment the candidate overlaps.
type Conflict struct {
	AppointmentID   uuid.UUID
	PatientID       uuid.UUID
	Start           TimeOfDay
	DurationMinutes int
}

// FindConflicts reports every non-cancelled appointment of the candidate's
// provider on the candidate's date whose [start, end) interval overlaps the
// candidate's. Intervals are half-open, so touching boundaries do not
// conflict. The check is advisory: it sees only the snapshot the caller
// passes in, and the authoritative check-and-insert belongs to the
// persistence layer.
func FindConflicts(c Candidate, existing []Appointment) []Conflict {
	var conflicts []Conflict
	for _, a := range existing {
		if a.ProviderID != c.ProviderID || a.Status == StatusCancelled {
			continue
		}
		if !SameDate(a.Date, c.Date) {
			continue
		}
		if c.Start.Minutes() < a.End() && a.Start.Minutes() < c.End() {
			conflicts = append(conflicts, Conflict{
				AppointmentID:   a.ID,
				PatientID:       a.PatientID,
				Start:           a.Start,
				DurationMinutes: a.DurationMinutes,
			})
		}
	}
	return conflicts
}
