package poller

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/careloop/clinic-scheduler/internal/scheduling"
)

// FetchFunc pulls the current queue summary from upstream.
type FetchFunc func(ctx context.Context) (scheduling.QueueSummary, error)

// ConsumeFunc receives each successfully fetched summary.
type ConsumeFunc func(ctx context.Context, s scheduling.QueueSummary)

// Poller re-pulls appointment aggregates at a fixed interval. Fetches run
// synchronously on the tick loop, so at most one is ever in flight; ticks
// that elapse during a slow fetch are coalesced by the ticker, not queued.
type Poller struct {
	interval     time.Duration
	fetchTimeout time.Duration
	fetch        FetchFunc
	consume      ConsumeFunc
	log          zerolog.Logger

	mu     sync.RWMutex
	latest *scheduling.QueueSummary
}

func New(interval time.Duration, fetch FetchFunc, consume ConsumeFunc, log zerolog.Logger) *Poller {
	return &Poller{
		interval:     interval,
		fetchTimeout: interval,
		fetch:        fetch,
		consume:      consume,
		log:          log,
	}
}

// Run polls until the context is cancelled. It fetches once immediately so
// consumers never wait a full interval for the first snapshot.
func (p *Poller) Run(ctx context.Context) {
	p.runOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("refresh poller stopping")
			return
		case <-ticker.C:
			p.runOnce(ctx)
		}
	}
}

// Latest returns the most recent summary, if any fetch has succeeded yet.
func (p *Poller) Latest() (scheduling.QueueSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.latest == nil {
		return scheduling.QueueSummary{}, false
	}
	return *p.latest, true
}

func (p *Poller) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, p.fetchTimeout)
	defer cancel()

	start := time.Now()
	summary, err := p.fetch(runCtx)
	if err != nil {
		p.log.Warn().Err(err).Msg("queue refresh failed, keeping previous snapshot")
		return
	}

	p.mu.Lock()
	p.latest = &summary
	p.mu.Unlock()

	if p.consume != nil {
		p.consume(ctx, summary)
	}

	p.log.Debug().
		Int("waiting", len(summary.Waiting)).
		Int("active", len(summary.Active)).
		Int("completed", len(summary.CompletedToday)).
		Dur("took", time.Since(start)).
		Msg("queue refreshed")
}
