package scheduling

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

type AppointmentType string

const (
	TypeConsultation AppointmentType = "consultation"
	TypeFollowUp     AppointmentType = "follow-up"
	TypeProcedure    AppointmentType = "procedure"
	TypeEmergency    AppointmentType = "emergency"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Appointment is the central scheduling entity. PatientID and ProviderID are
// weak references into the external directories; this package never validates
// their existence.
type Appointment struct {
	ID              uuid.UUID
	PatientID       uuid.UUID
	ProviderID      uuid.UUID
	Date            time.Time // calendar date, midnight UTC
	Start           TimeOfDay
	DurationMinutes int
	Type            AppointmentType
	Priority        Priority
	Status          Status
	StartedAt       *time.Time
	CompletedAt     *time.Time
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// End returns the exclusive end of the appointment interval, in minutes from
// midnight.
func (a Appointment) End() int {
	return a.Start.Minutes() + a.DurationMinutes
}

// Terminal reports whether no further forward transition exists. Completed
// appointments can still be explicitly reactivated, but they count as closed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (t AppointmentType) Valid() bool {
	switch t {
	case TypeConsultation, TypeFollowUp, TypeProcedure, TypeEmergency:
		return true
	}
	return false
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// SameDate compares two timestamps on their UTC calendar date only.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
