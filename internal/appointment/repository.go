package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/careloop/clinic-scheduler/internal/scheduling"
)

var (
	ErrPatientNotFound     = errors.New("patient not found")
	ErrProviderNotFound    = errors.New("provider not found")
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrStaleAppointment is returned when a compare-and-set update finds the
	// appointment in a different status than the caller read. The transition
	// must be re-derived from the latest row, never force-written.
	ErrStaleAppointment = errors.New("appointment changed since it was read")
)

// Filter narrows appointment listings. Nil fields match everything.
type Filter struct {
	Date       *time.Time
	ProviderID *uuid.UUID
}

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetProviderByID(ctx context.Context, id uuid.UUID) (*Provider, error)
	ListPatients(ctx context.Context, limit, offset int) ([]Patient, error)
	ListProviders(ctx context.Context, limit, offset int) ([]Provider, error)

	ListAppointments(ctx context.Context, f Filter) ([]scheduling.Appointment, error)
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*scheduling.Appointment, error)

	CreateAppointment(ctx context.Context, c scheduling.Candidate) (*scheduling.Appointment, error)

	// UpdateAppointment persists the already-transitioned appointment, but
	// only if the stored status still equals prev. A miss returns
	// ErrStaleAppointment.
	UpdateAppointment(ctx context.Context, a scheduling.Appointment, prev scheduling.Status) (*scheduling.Appointment, error)

	InsertEvent(ctx context.Context, ev EventLog) error
}
