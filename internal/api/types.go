package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/careloop/clinic-scheduler/internal/appointment"
	"github.com/careloop/clinic-scheduler/internal/scheduling"
)

const dateLayout = "2006-01-02"

type CreateAppointmentRequest struct {
	PatientID       string `json:"patient_id"`
	ProviderID      string `json:"provider_id"`
	Date            string `json:"date"` // 2006-01-02
	Time            string `json:"time"` // 15:04
	DurationMinutes int    `json:"duration_minutes"`
	Type            string `json:"type"`
	Priority        string `json:"priority"`
	Notes           string `json:"notes,omitempty"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type AppointmentResponse struct {
	ID              uuid.UUID  `json:"id"`
	PatientID       uuid.UUID  `json:"patient_id"`
	ProviderID      uuid.UUID  `json:"provider_id"`
	Date            string     `json:"date"`
	Time            string     `json:"time"`
	DurationMinutes int        `json:"duration_minutes"`
	Type            string     `json:"type"`
	Priority        string     `json:"priority"`
	Status          string     `json:"status"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	Notes           string     `json:"notes,omitempty"`
}

func toAppointmentResponse(a scheduling.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:              a.ID,
		PatientID:       a.PatientID,
		ProviderID:      a.ProviderID,
		Date:            a.Date.UTC().Format(dateLayout),
		Time:            a.Start.String(),
		DurationMinutes: a.DurationMinutes,
		Type:            string(a.Type),
		Priority:        string(a.Priority),
		Status:          string(a.Status),
		StartedAt:       a.StartedAt,
		CompletedAt:     a.CompletedAt,
		Notes:           a.Notes,
	}
}

func toAppointmentResponses(appts []scheduling.Appointment) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(appts))
	for _, a := range appts {
		out = append(out, toAppointmentResponse(a))
	}
	return out
}

type SlotResponse struct {
	Time        string               `json:"time"`
	Available   bool                 `json:"available"`
	Appointment *AppointmentResponse `json:"appointment,omitempty"`
}

type QueueSummaryResponse struct {
	Waiting              []AppointmentResponse `json:"waiting"`
	Active               []AppointmentResponse `json:"active"`
	CompletedToday       []AppointmentResponse `json:"completed_today"`
	TotalPatients        int                   `json:"total_patients"`
	CompletionRate       float64               `json:"completion_rate"`
	AverageActiveMinutes float64               `json:"average_active_minutes"`
}

type PersonResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type ProviderResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Specialty *string   `json:"specialty,omitempty"`
}

func toProviderResponses(providers []appointment.Provider) []ProviderResponse {
	out := make([]ProviderResponse, 0, len(providers))
	for _, p := range providers {
		out = append(out, ProviderResponse{ID: p.ID, Name: p.Name, Specialty: p.Specialty})
	}
	return out
}

func toPatientResponses(patients []appointment.Patient) []PersonResponse {
	out := make([]PersonResponse, 0, len(patients))
	for _, p := range patients {
		out = append(out, PersonResponse{ID: p.ID, Name: p.Name})
	}
	return out
}

type ConflictDescriptor struct {
	AppointmentID   uuid.UUID `json:"appointment_id"`
	PatientID       uuid.UUID `json:"patient_id"`
	Time            string    `json:"time"`
	DurationMinutes int       `json:"duration_minutes"`
}

type ErrorResponse struct {
	Error     string               `json:"error"`
	Details   string               `json:"details,omitempty"`
	Conflicts []ConflictDescriptor `json:"conflicts,omitempty"`
}
