package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/careloop/clinic-scheduler/internal/scheduling"
)

// pgDB is the slice of pgxpool.Pool the repository uses. It exists so tests
// can substitute a pgxmock pool.
type pgDB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PgRepository struct {
	db pgDB
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{db: pool}
}

// NewPgRepositoryWithDB allows injecting a mock database for testing.
func NewPgRepositoryWithDB(db pgDB) *PgRepository {
	return &PgRepository{db: db}
}

// Helpers

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var email *string

	err := row.Scan(&p.ID, &p.Name, &email, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	p.Email = email
	return &p, nil
}

func scanProvider(row pgx.Row) (*Provider, error) {
	var p Provider
	var specialty *string

	err := row.Scan(&p.ID, &p.Name, &specialty, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProviderNotFound
		}
		return nil, err
	}

	p.Specialty = specialty
	return &p, nil
}

func scanAppointment(row pgx.Row) (*scheduling.Appointment, error) {
	var a scheduling.Appointment
	var startMinute int
	var startedAt, completedAt *time.Time

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.ProviderID,
		&a.Date,
		&startMinute,
		&a.DurationMinutes,
		&a.Type,
		&a.Priority,
		&a.Status,
		&startedAt,
		&completedAt,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.Start = scheduling.MinutesToTimeOfDay(startMinute)
	a.StartedAt = startedAt
	a.CompletedAt = completedAt
	return &a, nil
}

const appointmentColumns = `id, patient_id, provider_id, date, start_minute, duration_minutes,
		       type, priority, status, started_at, completed_at, notes, created_at, updated_at`

// Interface methods

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, email, created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) GetProviderByID(ctx context.Context, id uuid.UUID) (*Provider, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, specialty, created_at, updated_at
		FROM providers
		WHERE id = $1
	`, id)
	return scanProvider(row)
}

func (r *PgRepository) ListPatients(ctx context.Context, limit, offset int) ([]Patient, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, email, created_at, updated_at
		FROM patients
		ORDER BY name
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func (r *PgRepository) ListProviders(ctx context.Context, limit, offset int) ([]Provider, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, specialty, created_at, updated_at
		FROM providers
		ORDER BY name
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func (r *PgRepository) ListAppointments(ctx context.Context, f Filter) ([]scheduling.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE 1=1`
	var args []any
	argIdx := 1

	if f.Date != nil {
		query += fmt.Sprintf(" AND date = $%d", argIdx)
		args = append(args, f.Date.UTC().Truncate(24*time.Hour))
		argIdx++
	}
	if f.ProviderID != nil {
		query += fmt.Sprintf(" AND provider_id = $%d", argIdx)
		args = append(args, *f.ProviderID)
		argIdx++
	}
	query += " ORDER BY date, start_minute"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []scheduling.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*scheduling.Appointment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) CreateAppointment(ctx context.Context, c scheduling.Candidate) (*scheduling.Appointment, error) {
	id := uuid.New()

	row := r.db.QueryRow(ctx, `
		INSERT INTO appointments
			(id, patient_id, provider_id, date, start_minute, duration_minutes,
			 type, priority, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'scheduled', $9, now(), now())
		RETURNING `+appointmentColumns+`
	`, id, c.PatientID, c.ProviderID, c.Date.UTC().Truncate(24*time.Hour),
		c.Start.Minutes(), c.DurationMinutes, c.Type, c.Priority, c.Notes)

	return scanAppointment(row)
}

func (r *PgRepository) UpdateAppointment(ctx context.Context, a scheduling.Appointment, prev scheduling.Status) (*scheduling.Appointment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    started_at = $3,
		    completed_at = $4,
		    updated_at = now()
		WHERE id = $1
		  AND status = $5
		RETURNING `+appointmentColumns+`
	`, a.ID, a.Status, a.StartedAt, a.CompletedAt, prev)

	updated, err := scanAppointment(row)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, ErrAppointmentNotFound) {
		return nil, err
	}

	// Distinguish a vanished row from a concurrent status change.
	if _, getErr := r.GetAppointmentByID(ctx, a.ID); getErr != nil {
		return nil, getErr
	}
	return nil, ErrStaleAppointment
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
