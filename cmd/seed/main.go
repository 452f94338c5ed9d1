package main

import (
	"context"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/careloop/clinic-scheduler/internal/config"
	"github.com/careloop/clinic-scheduler/internal/db"
	"github.com/careloop/clinic-scheduler/internal/scheduling"
)

var log = zerolog.New(os.Stdout).With().Timestamp().Str("service", "seed").Logger()

func main() {
	log.Info().Msg("seed starting")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, cfg.PgMaxConns, cfg.PgMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	providerIDs, err := seedProviders(context.Background(), pool, 25)
	if err != nil {
		log.Fatal().Err(err).Msg("seed providers")
	}
	patientIDs, err := seedPatients(context.Background(), pool, 2000)
	if err != nil {
		log.Fatal().Err(err).Msg("seed patients")
	}
	if err := seedAppointments(context.Background(), pool, providerIDs, patientIDs); err != nil {
		log.Fatal().Err(err).Msg("seed appointments")
	}

	log.Info().Msg("seed complete")
}

func seedProviders(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Info().Int("count", count).Msg("seeding providers")

	specialties := []string{
		"Dermatology",
		"Cardiology",
		"General Practice",
		"Orthopedics",
		"Endocrinology",
		"Neurology",
		"Pediatrics",
		"Psychiatry",
		"Ophthalmology",
		"ENT",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		name := gofakeit.Name()
		spec := specialties[gofakeit.Number(0, len(specialties)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO providers (id, name, specialty, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
		`, id, name, spec)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Info().Msg("providers seeded")
	return ids, nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Info().Int("count", count).Msg("seeding patients")

	const batchSize = 500

	ids := make([]uuid.UUID, 0, count)
	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return nil, err
		}

		for i := offset; i < end; i++ {
			id := uuid.New()
			name := gofakeit.Name()
			email := gofakeit.Email()

			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, name, email, created_at, updated_at)
				VALUES ($1, $2, $3, now(), now())
			`, id, name, email)
			if err != nil {
				_ = tx.Rollback(ctx)
				return nil, err
			}
			ids = append(ids, id)
		}

		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}

		log.Info().Int("done", end).Int("total", count).Msg("patients seeded")
	}

	return ids, nil
}

// seedAppointments fills about half of each provider's day today, so slot
// views and queue dashboards have something to show out of the box.
func seedAppointments(ctx context.Context, pool *pgxpool.Pool, providers, patients []uuid.UUID) error {
	log.Info().Msg("seeding today's appointments")

	types := []scheduling.AppointmentType{
		scheduling.TypeConsultation,
		scheduling.TypeFollowUp,
		scheduling.TypeProcedure,
		scheduling.TypeEmergency,
	}
	priorities := []scheduling.Priority{
		scheduling.PriorityLow,
		scheduling.PriorityMedium,
		scheduling.PriorityHigh,
		scheduling.PriorityUrgent,
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	total := 0
	for _, providerID := range providers {
		for minute := 9 * 60; minute < 17*60; minute += 30 {
			if gofakeit.Bool() {
				continue
			}

			patientID := patients[gofakeit.Number(0, len(patients)-1)]
			apptType := types[gofakeit.Number(0, len(types)-1)]
			priority := priorities[gofakeit.Number(0, len(priorities)-1)]

			_, err := tx.Exec(ctx, `
				INSERT INTO appointments
					(id, patient_id, provider_id, date, start_minute, duration_minutes,
					 type, priority, status, notes, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, 30, $6, $7, 'scheduled', $8, now(), now())
			`, uuid.New(), patientID, providerID, today, minute, apptType, priority,
				gofakeit.Sentence(8))
			if err != nil {
				return err
			}
			total++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Info().Int("count", total).Msg("appointments seeded")
	return nil
}
