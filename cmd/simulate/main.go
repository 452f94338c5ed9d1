package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
)

// Booking-traffic simulator. Hammers the API with concurrent booking
// attempts for a small provider pool so lock contention and schedule
// conflicts actually happen, then reports latency and outcome counts.

type SimConfig struct {
	APIBaseURL string
	Duration   time.Duration
	Workers    int
	Providers  int
	Date       string
}

type Metrics struct {
	Total    atomic.Int64
	Success  atomic.Int64
	Conflict atomic.Int64
	Busy     atomic.Int64
	Error    atomic.Int64

	mu        sync.Mutex
	latencies []time.Duration
}

func (m *Metrics) Record(latency time.Duration, status int, errCode string) {
	m.Total.Add(1)
	switch {
	case status == http.StatusCreated:
		m.Success.Add(1)
	case status == http.StatusConflict && errCode == "booking_in_progress":
		m.Busy.Add(1)
	case status == http.StatusConflict:
		m.Conflict.Add(1)
	default:
		m.Error.Add(1)
	}

	m.mu.Lock()
	m.latencies = append(m.latencies, latency)
	m.mu.Unlock()
}

func (m *Metrics) Percentiles() (p50, p95, max time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.latencies) == 0 {
		return 0, 0, 0
	}

	sorted := make([]time.Duration, len(m.latencies))
	copy(sorted, m.latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	return sorted[len(sorted)/2], sorted[len(sorted)*95/100], sorted[len(sorted)-1]
}

func main() {
	cfg := loadSimConfig()

	fmt.Printf("simulate: url=%s duration=%s workers=%d providers=%d date=%s\n",
		cfg.APIBaseURL, cfg.Duration, cfg.Workers, cfg.Providers, cfg.Date)

	client := &http.Client{Timeout: 10 * time.Second}

	providers, err := fetchIDs(client, cfg.APIBaseURL+"/providers?limit=100")
	if err != nil {
		fmt.Fprintf(os.Stderr, "fetch providers: %v\n", err)
		os.Exit(1)
	}
	patients, err := fetchIDs(client, cfg.APIBaseURL+"/patients?limit=100")
	if err != nil {
		fmt.Fprintf(os.Stderr, "fetch patients: %v\n", err)
		os.Exit(1)
	}
	if len(providers) == 0 || len(patients) == 0 {
		fmt.Fprintln(os.Stderr, "no providers or patients; run seed first")
		os.Exit(1)
	}
	if len(providers) > cfg.Providers {
		// Narrow the pool so workers collide on the same schedules.
		providers = providers[:cfg.Providers]
	}

	gofakeit.Seed(time.Now().UnixNano())

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	var metrics Metrics
	var wg sync.WaitGroup

	start := time.Now()
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker(ctx, client, cfg, providers, patients, &metrics)
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	p50, p95, max := metrics.Percentiles()
	total := metrics.Total.Load()

	fmt.Println("--- results ---")
	fmt.Printf("requests:  %d (%.1f/s)\n", total, float64(total)/elapsed.Seconds())
	fmt.Printf("booked:    %d\n", metrics.Success.Load())
	fmt.Printf("conflicts: %d\n", metrics.Conflict.Load())
	fmt.Printf("lock busy: %d\n", metrics.Busy.Load())
	fmt.Printf("errors:    %d\n", metrics.Error.Load())
	fmt.Printf("latency:   p50=%s p95=%s max=%s\n", p50, p95, max)
}

func worker(ctx context.Context, client *http.Client, cfg SimConfig, providers, patients []uuid.UUID, metrics *Metrics) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		provider := providers[gofakeit.Number(0, len(providers)-1)]
		patient := patients[gofakeit.Number(0, len(patients)-1)]

		// Random half-hour slot inside operating hours.
		minute := gofakeit.Number(18, 33) * 30

		body, _ := json.Marshal(map[string]any{
			"patient_id":       patient.String(),
			"provider_id":      provider.String(),
			"date":             cfg.Date,
			"time":             fmt.Sprintf("%02d:%02d", minute/60, minute%60),
			"duration_minutes": 30,
			"type":             "consultation",
			"priority":         "medium",
		})

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.APIBaseURL+"/appointments", bytes.NewReader(body))
		if err != nil {
			return
		}
		req.Header.Set("Content-Type", "application/json")

		t0 := time.Now()
		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			metrics.Record(time.Since(t0), 0, "")
			continue
		}

		// The API answers 409 for both schedule conflicts and lock
		// contention; the error code in the body tells them apart.
		var errCode string
		if resp.StatusCode == http.StatusConflict {
			var body struct {
				Error string `json:"error"`
			}
			_ = json.NewDecoder(resp.Body).Decode(&body)
			errCode = body.Error
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()

		metrics.Record(time.Since(t0), resp.StatusCode, errCode)
	}
}

func fetchIDs(client *http.Client, url string) ([]uuid.UUID, error) {
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}

	var rows []struct {
		ID uuid.UUID `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

func loadSimConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL: envOr("SIM_API_URL", "http://127.0.0.1:8080"),
		Duration:   30 * time.Second,
		Workers:    20,
		Providers:  3,
		Date:       time.Now().UTC().Format("2006-01-02"),
	}

	if v := os.Getenv("SIM_DURATION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Duration = d
		}
	}
	if v := os.Getenv("SIM_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Workers = n
		}
	}
	if v := os.Getenv("SIM_PROVIDERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Providers = n
		}
	}
	if v := os.Getenv("SIM_DATE"); v != "" {
		cfg.Date = v
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
