package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/careloop/clinic-scheduler/internal/appointment"
	"github.com/careloop/clinic-scheduler/internal/scheduling"
)

// Service is the slice of appointment.Service the handlers need; tests
// substitute a fake.
type Service interface {
	Schedule(ctx context.Context, cand scheduling.Candidate) (*scheduling.Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, target scheduling.Status) (*scheduling.Appointment, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (*scheduling.Appointment, error)
	ListAppointments(ctx context.Context, f appointment.Filter) ([]scheduling.Appointment, error)
	DaySlots(ctx context.Context, providerID uuid.UUID, date time.Time) ([]scheduling.TimeSlot, error)
	QueueSummary(ctx context.Context, date time.Time) (scheduling.QueueSummary, error)
	ListProviders(ctx context.Context, limit, offset int) ([]appointment.Provider, error)
	ListPatients(ctx context.Context, limit, offset int) ([]appointment.Patient, error)
}

func createAppointmentHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return
		}
		providerID, err := uuid.Parse(req.ProviderID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_provider_id", "provider_id must be a valid UUID")
			return
		}
		date, err := time.ParseInLocation(dateLayout, req.Date, time.UTC)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}
		start, err := scheduling.ParseTimeOfDay(req.Time)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_time", "time must be HH:MM")
			return
		}

		cand := scheduling.Candidate{
			PatientID:       patientID,
			ProviderID:      providerID,
			Date:            date,
			Start:           start,
			DurationMinutes: req.DurationMinutes,
			Type:            scheduling.AppointmentType(req.Type),
			Priority:        scheduling.Priority(req.Priority),
			Notes:           req.Notes,
		}

		appt, err := svc.Schedule(r.Context(), cand)
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(*appt))
	}
}

func updateStatusHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req UpdateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := svc.UpdateStatus(r.Context(), id, scheduling.Status(req.Status))
		if err != nil {
			handleStatusError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(*appt))
	}
}

func getAppointmentHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			if errors.Is(err, appointment.ErrAppointmentNotFound) {
				writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(*appt))
	}
}

func listAppointmentsHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var f appointment.Filter

		if d := r.URL.Query().Get("date"); d != "" {
			date, err := time.ParseInLocation(dateLayout, d, time.UTC)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
				return
			}
			f.Date = &date
		}
		if p := r.URL.Query().Get("provider_id"); p != "" {
			providerID, err := uuid.Parse(p)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_provider_id", "provider_id must be a valid UUID")
				return
			}
			f.ProviderID = &providerID
		}

		appts, err := svc.ListAppointments(r.Context(), f)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponses(appts))
	}
}

func providerSlotsHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providerID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_provider_id", "id must be a valid UUID")
			return
		}

		date := time.Now().UTC()
		if d := r.URL.Query().Get("date"); d != "" {
			date, err = time.ParseInLocation(dateLayout, d, time.UTC)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
				return
			}
		}

		slots, err := svc.DaySlots(r.Context(), providerID, date)
		if err != nil {
			if errors.Is(err, appointment.ErrProviderNotFound) {
				writeError(w, http.StatusNotFound, "provider_not_found", err.Error())
				return
			}
			var verr *scheduling.ValidationError
			if errors.As(err, &verr) {
				writeError(w, http.StatusBadRequest, "invalid_request", verr.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]SlotResponse, 0, len(slots))
		for _, s := range slots {
			sr := SlotResponse{Time: s.Time.String(), Available: s.Available}
			if s.Appointment != nil {
				ar := toAppointmentResponse(*s.Appointment)
				sr.Appointment = &ar
			}
			resp = append(resp, sr)
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func queueSummaryHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := time.Now().UTC()
		if d := r.URL.Query().Get("date"); d != "" {
			parsed, err := time.ParseInLocation(dateLayout, d, time.UTC)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
				return
			}
			date = parsed
		}

		summary, err := svc.QueueSummary(r.Context(), date)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, QueueSummaryResponse{
			Waiting:              toAppointmentResponses(summary.Waiting),
			Active:               toAppointmentResponses(summary.Active),
			CompletedToday:       toAppointmentResponses(summary.CompletedToday),
			TotalPatients:        summary.TotalPatients,
			CompletionRate:       summary.CompletionRate,
			AverageActiveMinutes: summary.AverageActiveMinutes,
		})
	}
}

func listProvidersHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := pagination(r)
		providers, err := svc.ListProviders(r.Context(), limit, offset)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, toProviderResponses(providers))
	}
}

func listPatientsHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := pagination(r)
		patients, err := svc.ListPatients(r.Context(), limit, offset)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, toPatientResponses(patients))
	}
}

func handleScheduleError(w http.ResponseWriter, err error) {
	var verr *scheduling.ValidationError
	var cerr *scheduling.ConflictError

	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "invalid_candidate", verr.Error())
	case errors.As(err, &cerr):
		writeConflict(w, cerr)
	case errors.Is(err, appointment.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, appointment.ErrProviderNotFound):
		writeError(w, http.StatusNotFound, "provider_not_found", err.Error())
	case errors.Is(err, appointment.ErrBookingInProgress):
		writeError(w, http.StatusConflict, "booking_in_progress", "provider is currently being booked, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleStatusError(w http.ResponseWriter, err error) {
	var verr *scheduling.ValidationError
	var terr *scheduling.IllegalTransitionError

	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "invalid_status", verr.Error())
	case errors.As(err, &terr):
		writeError(w, http.StatusConflict, "illegal_transition", terr.Error())
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, appointment.ErrStaleAppointment):
		writeError(w, http.StatusConflict, "concurrent_update", "appointment changed underneath the request, please retry")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func writeConflict(w http.ResponseWriter, cerr *scheduling.ConflictError) {
	resp := ErrorResponse{
		Error:   "schedule_conflict",
		Details: cerr.Error(),
	}
	for _, c := range cerr.Conflicts {
		resp.Conflicts = append(resp.Conflicts, ConflictDescriptor{
			AppointmentID:   c.AppointmentID,
			PatientID:       c.PatientID,
			Time:            c.Start.String(),
			DurationMinutes: c.DurationMinutes,
		})
	}
	writeJSON(w, http.StatusConflict, resp)
}

func pagination(r *http.Request) (limit, offset int) {
	limit, offset = 20, 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := parsePositive(v); err == nil {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := parsePositive(v); err == nil {
			offset = n
		}
	}
	return limit, offset
}
