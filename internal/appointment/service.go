package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/careloop/clinic-scheduler/internal/config"
	redisclient "github.com/careloop/clinic-scheduler/internal/redis"
	"github.com/careloop/clinic-scheduler/internal/scheduling"
)

const (
	EventAppointmentScheduled = "APPOINTMENT_SCHEDULED"
	EventAppointmentConfirmed = "APPOINTMENT_CONFIRMED"
	EventConsultationStarted  = "CONSULTATION_STARTED"
	EventConsultationPaused   = "CONSULTATION_PAUSED"
	EventConsultationComplete = "CONSULTATION_COMPLETED"
	EventAppointmentCancelled = "APPOINTMENT_CANCELLED"
	EventAppointmentReopened  = "APPOINTMENT_REOPENED"
)

var (
	// ErrBookingInProgress means another caller holds the provider's booking
	// lock right now; the request is safe to retry.
	ErrBookingInProgress = errors.New("provider is being booked, please retry")
)

// transitionRetries bounds the optimistic-concurrency retry loop when a
// compare-and-set status update loses a race.
const transitionRetries = 3

type Service struct {
	repo   Repository
	locker redisclient.Locker
	cfg    config.Config
	log    zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, locker redisclient.Locker, cfg config.Config, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
	}
}

func (s *Service) operatingHours() scheduling.OperatingHours {
	return scheduling.OperatingHours{
		StartHour: s.cfg.OperatingStartHour,
		EndHour:   s.cfg.OperatingEndHour,
	}
}

// Schedule books a new appointment. The conflict check against the caller's
// snapshot is advisory; the authoritative check-and-insert runs inside a
// per-provider/day distributed lock so concurrent callers cannot both pass
// the overlap test and persist.
func (s *Service) Schedule(ctx context.Context, cand scheduling.Candidate) (*scheduling.Appointment, error) {
	if err := cand.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetPatientByID(ctx, cand.PatientID); err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}
	if _, err := s.repo.GetProviderByID(ctx, cand.ProviderID); err != nil {
		if errors.Is(err, ErrProviderNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load provider: %w", err)
	}

	// Advisory pass outside the lock, so the common conflict case fails fast
	// without serializing on Redis.
	existing, err := s.providerDay(ctx, cand.ProviderID, cand.Date)
	if err != nil {
		return nil, err
	}
	if conflicts := scheduling.FindConflicts(cand, existing); len(conflicts) > 0 {
		return nil, &scheduling.ConflictError{Conflicts: conflicts}
	}

	var created *scheduling.Appointment

	err = s.locker.WithBookingLock(ctx, cand.ProviderID, cand.Date, func(lockCtx context.Context) error {
		// Re-check inside the critical section against a fresh snapshot.
		latest, err := s.providerDay(lockCtx, cand.ProviderID, cand.Date)
		if err != nil {
			return err
		}
		if conflicts := scheduling.FindConflicts(cand, latest); len(conflicts) > 0 {
			return &scheduling.ConflictError{Conflicts: conflicts}
		}

		appt, err := s.repo.CreateAppointment(lockCtx, cand)
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}
		created = appt

		s.logEvent(lockCtx, appt.ID, EventAppointmentScheduled, map[string]any{
			"provider_id": cand.ProviderID.String(),
			"patient_id":  cand.PatientID.String(),
			"date":        cand.Date.UTC().Format("2006-01-02"),
			"time":        cand.Start.String(),
			"duration":    cand.DurationMinutes,
		})
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrBookingInProgress
		}
		return nil, err
	}

	s.log.Info().
		Str("appointment_id", created.ID.String()).
		Str("provider_id", cand.ProviderID.String()).
		Str("time", cand.Start.String()).
		Msg("appointment scheduled")

	return created, nil
}

// UpdateStatus applies a lifecycle transition through the state machine and
// persists it with a compare-and-set on the previous status. A lost race
// reloads the row and re-derives the transition rather than overwriting,
// so StartedAt/CompletedAt are never clobbered by a stale writer.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, target scheduling.Status) (*scheduling.Appointment, error) {
	var lastErr error

	for attempt := 0; attempt < transitionRetries; attempt++ {
		current, err := s.repo.GetAppointmentByID(ctx, id)
		if err != nil {
			return nil, err
		}

		next, err := scheduling.Transition(*current, target, s.now().UTC())
		if err != nil {
			return nil, err
		}

		updated, err := s.repo.UpdateAppointment(ctx, next, current.Status)
		if err != nil {
			if errors.Is(err, ErrStaleAppointment) {
				lastErr = err
				continue
			}
			return nil, fmt.Errorf("update appointment status: %w", err)
		}

		s.logEvent(ctx, updated.ID, statusEvent(current.Status, target), map[string]any{
			"from": string(current.Status),
			"to":   string(target),
		})

		s.log.Info().
			Str("appointment_id", updated.ID.String()).
			Str("from", string(current.Status)).
			Str("to", string(target)).
			Msg("appointment status updated")

		return updated, nil
	}

	return nil, fmt.Errorf("status update contention on %s: %w", id, lastErr)
}

// DaySlots lays out the bookable slots of a provider's day from the current
// appointment snapshot.
func (s *Service) DaySlots(ctx context.Context, providerID uuid.UUID, date time.Time) ([]scheduling.TimeSlot, error) {
	if _, err := s.repo.GetProviderByID(ctx, providerID); err != nil {
		return nil, err
	}

	existing, err := s.providerDay(ctx, providerID, date)
	if err != nil {
		return nil, err
	}

	return scheduling.GenerateSlots(date, s.operatingHours(), s.cfg.SlotMinutes, existing)
}

// QueueSummary re-derives the operational queues and metrics for a date.
func (s *Service) QueueSummary(ctx context.Context, date time.Time) (scheduling.QueueSummary, error) {
	day := date.UTC().Truncate(24 * time.Hour)
	appts, err := s.repo.ListAppointments(ctx, Filter{Date: &day})
	if err != nil {
		return scheduling.QueueSummary{}, fmt.Errorf("list appointments: %w", err)
	}

	// Use the wall clock when aggregating today so active durations are
	// live; for any other reference date the date itself anchors the
	// completed-today partition.
	ref := s.now().UTC()
	if !scheduling.SameDate(ref, day) {
		ref = day
	}

	return scheduling.Aggregate(appts, ref), nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*scheduling.Appointment, error) {
	return s.repo.GetAppointmentByID(ctx, id)
}

func (s *Service) ListAppointments(ctx context.Context, f Filter) ([]scheduling.Appointment, error) {
	return s.repo.ListAppointments(ctx, f)
}

func (s *Service) ListProviders(ctx context.Context, limit, offset int) ([]Provider, error) {
	limit = clampLimit(limit)
	return s.repo.ListProviders(ctx, limit, max(offset, 0))
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]Patient, error) {
	limit = clampLimit(limit)
	return s.repo.ListPatients(ctx, limit, max(offset, 0))
}

func (s *Service) providerDay(ctx context.Context, providerID uuid.UUID, date time.Time) ([]scheduling.Appointment, error) {
	day := date.UTC().Truncate(24 * time.Hour)
	appts, err := s.repo.ListAppointments(ctx, Filter{Date: &day, ProviderID: &providerID})
	if err != nil {
		return nil, fmt.Errorf("list provider day: %w", err)
	}
	return appts, nil
}

func statusEvent(from, to scheduling.Status) string {
	switch to {
	case scheduling.StatusConfirmed:
		return EventAppointmentConfirmed
	case scheduling.StatusInProgress:
		return EventConsultationStarted
	case scheduling.StatusCompleted:
		return EventConsultationComplete
	case scheduling.StatusCancelled:
		return EventAppointmentCancelled
	case scheduling.StatusScheduled:
		if from == scheduling.StatusCompleted {
			return EventAppointmentReopened
		}
		return EventConsultationPaused
	}
	return "STATUS_CHANGED"
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn().Err(err).Str("event", eventType).Msg("failed to marshal event payload")
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     s.now().UTC(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.log.Warn().Err(err).
			Str("event", eventType).
			Str("appointment_id", appointmentID.String()).
			Msg("failed to insert event log")
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}
