package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/careloop/clinic-scheduler/internal/appointment"
	"github.com/careloop/clinic-scheduler/internal/config"
	"github.com/careloop/clinic-scheduler/internal/db"
	"github.com/careloop/clinic-scheduler/internal/poller"
	redisclient "github.com/careloop/clinic-scheduler/internal/redis"
	"github.com/careloop/clinic-scheduler/internal/scheduling"
)

// summaryKey holds the latest queue summary JSON for dashboard consumers.
const summaryKey = "clinic:queue:summary"

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "queue-worker").Logger()
	log.Info().Msg("queue-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	log.Info().Str("env", cfg.Env).Dur("interval", cfg.PollInterval).Msg("running queue refresh poller")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, cfg.PgMaxConns, cfg.PgMinConns)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	log.Info().Msg("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing redis")
		}
	}()
	log.Info().Msg("connected to Redis")

	repo := appointment.NewPgRepository(pgPool)
	locker := redisclient.NewRedisBookingLocker(rdb, cfg.LockTTL)
	svc := appointment.NewService(repo, locker, cfg, log)

	fetch := func(ctx context.Context) (scheduling.QueueSummary, error) {
		return svc.QueueSummary(ctx, time.Now().UTC())
	}

	p := poller.New(cfg.PollInterval, fetch, publishSummary(rdb, cfg.PollInterval, log), log)
	p.Run(rootCtx)

	log.Info().Msg("queue-worker stopped")
}

func publishSummary(rdb *redis.Client, interval time.Duration, log zerolog.Logger) poller.ConsumeFunc {
	return func(ctx context.Context, s scheduling.QueueSummary) {
		payload, err := json.Marshal(map[string]any{
			"total_patients":         s.TotalPatients,
			"waiting":                len(s.Waiting),
			"active":                 len(s.Active),
			"completed_today":        len(s.CompletedToday),
			"completion_rate":        s.CompletionRate,
			"average_active_minutes": s.AverageActiveMinutes,
			"refreshed_at":           time.Now().UTC().Format(time.RFC3339),
		})
		if err != nil {
			log.Warn().Err(err).Msg("marshal queue summary")
			return
		}

		// Expire at three intervals so a dead worker leaves no stale metrics.
		if err := rdb.Set(ctx, summaryKey, payload, 3*interval).Err(); err != nil {
			log.Warn().Err(err).Msg("publish queue summary")
		}
	}
}
