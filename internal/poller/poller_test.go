package poller

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careloop/clinic-scheduler/internal/scheduling"
)

func TestPoller_FetchesImmediatelyAndOnEachTick(t *testing.T) {
	var calls atomic.Int64
	fetch := func(ctx context.Context) (scheduling.QueueSummary, error) {
		calls.Add(1)
		return scheduling.QueueSummary{TotalPatients: int(calls.Load())}, nil
	}

	p := New(20*time.Millisecond, fetch, nil, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 110*time.Millisecond)
	defer cancel()
	p.Run(ctx)

	// One immediate fetch plus roughly five ticks.
	got := calls.Load()
	assert.GreaterOrEqual(t, got, int64(3))

	latest, ok := p.Latest()
	require.True(t, ok)
	assert.Equal(t, int(got), latest.TotalPatients)
}

func TestPoller_AtMostOneFetchInFlight(t *testing.T) {
	var inFlight, maxInFlight atomic.Int64
	fetch := func(ctx context.Context) (scheduling.QueueSummary, error) {
		cur := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			prev := maxInFlight.Load()
			if cur <= prev || maxInFlight.CompareAndSwap(prev, cur) {
				break
			}
		}
		// Slower than the interval: intervening ticks must coalesce.
		time.Sleep(30 * time.Millisecond)
		return scheduling.QueueSummary{}, nil
	}

	p := New(10*time.Millisecond, fetch, nil, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()
	p.Run(ctx)

	assert.Equal(t, int64(1), maxInFlight.Load())
}

func TestPoller_FailedFetchKeepsPreviousSnapshot(t *testing.T) {
	var calls atomic.Int64
	fetch := func(ctx context.Context) (scheduling.QueueSummary, error) {
		if calls.Add(1) == 1 {
			return scheduling.QueueSummary{TotalPatients: 7}, nil
		}
		return scheduling.QueueSummary{}, errors.New("upstream down")
	}

	p := New(15*time.Millisecond, fetch, nil, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	p.Run(ctx)

	latest, ok := p.Latest()
	require.True(t, ok)
	assert.Equal(t, 7, latest.TotalPatients)
}

func TestPoller_ConsumerSeesEverySuccessfulSummary(t *testing.T) {
	fetch := func(ctx context.Context) (scheduling.QueueSummary, error) {
		return scheduling.QueueSummary{TotalPatients: 3}, nil
	}

	var consumed atomic.Int64
	consume := func(ctx context.Context, s scheduling.QueueSummary) {
		if s.TotalPatients == 3 {
			consumed.Add(1)
		}
	}

	p := New(20*time.Millisecond, fetch, consume, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 70*time.Millisecond)
	defer cancel()
	p.Run(ctx)

	assert.GreaterOrEqual(t, consumed.Load(), int64(2))
}

func TestPoller_NoSnapshotBeforeFirstSuccess(t *testing.T) {
	p := New(time.Second, func(ctx context.Context) (scheduling.QueueSummary, error) {
		return scheduling.QueueSummary{}, errors.New("never")
	}, nil, zerolog.Nop())

	_, ok := p.Latest()
	assert.False(t, ok)
}
