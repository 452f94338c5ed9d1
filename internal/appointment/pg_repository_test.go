package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careloop/clinic-scheduler/internal/scheduling"
)

var apptCols = []string{
	"id", "patient_id", "provider_id", "date", "start_minute", "duration_minutes",
	"type", "priority", "status", "started_at", "completed_at", "notes", "created_at", "updated_at",
}

func apptRow(a scheduling.Appointment) *pgxmock.Rows {
	return pgxmock.NewRows(apptCols).AddRow(
		a.ID, a.PatientID, a.ProviderID, a.Date, a.Start.Minutes(), a.DurationMinutes,
		a.Type, a.Priority, a.Status, a.StartedAt, a.CompletedAt, a.Notes, a.CreatedAt, a.UpdatedAt,
	)
}

func storedAppointment() scheduling.Appointment {
	now := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	return scheduling.Appointment{
		ID:              uuid.New(),
		PatientID:       uuid.New(),
		ProviderID:      uuid.New(),
		Date:            time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		Start:           scheduling.TimeOfDay{Hour: 9, Minute: 30},
		DurationMinutes: 30,
		Type:            scheduling.TypeConsultation,
		Priority:        scheduling.PriorityMedium,
		Status:          scheduling.StatusScheduled,
		Notes:           "first visit",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestPgRepository_GetAppointmentByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	want := storedAppointment()

	mock.ExpectQuery(`SELECT .+ FROM appointments\s+WHERE id = \$1`).
		WithArgs(want.ID).
		WillReturnRows(apptRow(want))

	repo := NewPgRepositoryWithDB(mock)
	got, err := repo.GetAppointmentByID(context.Background(), want.ID)
	require.NoError(t, err)

	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, "09:30", got.Start.String())
	assert.Equal(t, scheduling.StatusScheduled, got.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRepository_GetAppointmentByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectQuery(`SELECT .+ FROM appointments\s+WHERE id = \$1`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	repo := NewPgRepositoryWithDB(mock)
	_, err = repo.GetAppointmentByID(context.Background(), id)
	require.ErrorIs(t, err, ErrAppointmentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRepository_ListAppointments_Filters(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	want := storedAppointment()
	day := want.Date
	providerID := want.ProviderID

	mock.ExpectQuery(`SELECT .+ FROM appointments WHERE 1=1 AND date = \$1 AND provider_id = \$2 ORDER BY date, start_minute`).
		WithArgs(day, providerID).
		WillReturnRows(apptRow(want))

	repo := NewPgRepositoryWithDB(mock)
	got, err := repo.ListAppointments(context.Background(), Filter{Date: &day, ProviderID: &providerID})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, want.ID, got[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRepository_CreateAppointment(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	want := storedAppointment()
	cand := scheduling.Candidate{
		PatientID:       want.PatientID,
		ProviderID:      want.ProviderID,
		Date:            want.Date,
		Start:           want.Start,
		DurationMinutes: want.DurationMinutes,
		Type:            want.Type,
		Priority:        want.Priority,
		Notes:           want.Notes,
	}

	mock.ExpectQuery(`INSERT INTO appointments`).
		WithArgs(pgxmock.AnyArg(), cand.PatientID, cand.ProviderID, cand.Date,
			cand.Start.Minutes(), cand.DurationMinutes, cand.Type, cand.Priority, cand.Notes).
		WillReturnRows(apptRow(want))

	repo := NewPgRepositoryWithDB(mock)
	got, err := repo.CreateAppointment(context.Background(), cand)
	require.NoError(t, err)

	assert.Equal(t, scheduling.StatusScheduled, got.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRepository_UpdateAppointment_StaleStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	current := storedAppointment()
	next := current
	next.Status = scheduling.StatusConfirmed

	// CAS misses because the stored status changed underneath us.
	mock.ExpectQuery(`UPDATE appointments`).
		WithArgs(next.ID, next.Status, next.StartedAt, next.CompletedAt, scheduling.StatusScheduled).
		WillReturnError(pgx.ErrNoRows)

	stored := current
	stored.Status = scheduling.StatusCancelled
	mock.ExpectQuery(`SELECT .+ FROM appointments\s+WHERE id = \$1`).
		WithArgs(next.ID).
		WillReturnRows(apptRow(stored))

	repo := NewPgRepositoryWithDB(mock)
	_, err = repo.UpdateAppointment(context.Background(), next, scheduling.StatusScheduled)
	require.ErrorIs(t, err, ErrStaleAppointment)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRepository_UpdateAppointment_RowGone(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	next := storedAppointment()
	next.Status = scheduling.StatusConfirmed

	mock.ExpectQuery(`UPDATE appointments`).
		WithArgs(next.ID, next.Status, next.StartedAt, next.CompletedAt, scheduling.StatusScheduled).
		WillReturnError(pgx.ErrNoRows)

	mock.ExpectQuery(`SELECT .+ FROM appointments\s+WHERE id = \$1`).
		WithArgs(next.ID).
		WillReturnError(pgx.ErrNoRows)

	repo := NewPgRepositoryWithDB(mock)
	_, err = repo.UpdateAppointment(context.Background(), next, scheduling.StatusScheduled)
	require.ErrorIs(t, err, ErrAppointmentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRepository_InsertEvent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	apptID := uuid.New()
	ev := EventLog{
		EventType:     EventAppointmentScheduled,
		AppointmentID: &apptID,
		Payload:       []byte(`{"time":"09:30"}`),
		CreatedAt:     time.Now().UTC(),
	}

	mock.ExpectExec(`INSERT INTO event_logs`).
		WithArgs(ev.EventType, ev.AppointmentID, ev.Payload, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewPgRepositoryWithDB(mock)
	require.NoError(t, repo.InsertEvent(context.Background(), ev))
	assert.NoError(t, mock.ExpectationsWereMet())
}
