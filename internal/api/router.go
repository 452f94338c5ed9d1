package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type RouterConfig struct {
	Service Service
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Env     string
	Version string
	Logger  zerolog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Appointment endpoints
	r.Post("/appointments", createAppointmentHandler(cfg.Service))
	r.Get("/appointments", listAppointmentsHandler(cfg.Service))
	r.Get("/appointments/{id}", getAppointmentHandler(cfg.Service))
	r.Post("/appointments/{id}/status", updateStatusHandler(cfg.Service))

	// Schedule views
	r.Get("/providers", listProvidersHandler(cfg.Service))
	r.Get("/providers/{id}/slots", providerSlotsHandler(cfg.Service))
	r.Get("/patients", listPatientsHandler(cfg.Service))
	r.Get("/queue/summary", queueSummaryHandler(cfg.Service))

	return r
}
