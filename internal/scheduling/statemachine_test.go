package scheduling

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition_HappyPathLifecycle(t *testing.T) {
	now := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	a := appt(uuid.New(), "09:00", 30, StatusScheduled)

	confirmed, err := Transition(a, StatusConfirmed, now)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, confirmed.Status)
	assert.Nil(t, confirmed.StartedAt)

	started, err := Transition(confirmed, StatusInProgress, now.Add(5*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, started.Status)
	require.NotNil(t, started.StartedAt)
	assert.Equal(t, now.Add(5*time.Minute), *started.StartedAt)

	done, err := Transition(started, StatusCompleted, now.Add(25*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)
	assert.Equal(t, now.Add(25*time.Minute), *done.CompletedAt)
}

func TestTransition_ScheduledStraightToInProgress(t *testing.T) {
	now := time.Now().UTC()
	a := appt(uuid.New(), "09:00", 30, StatusScheduled)

	started, err := Transition(a, StatusInProgress, now)
	require.NoError(t, err)
	require.NotNil(t, started.StartedAt)
}

func TestTransition_IllegalMoves(t *testing.T) {
	now := time.Now().UTC()

	illegal := []struct{ from, to Status }{
		{StatusScheduled, StatusCompleted},
		{StatusConfirmed, StatusScheduled},
		{StatusCompleted, StatusInProgress},
		{StatusCompleted, StatusCancelled},
		{StatusCancelled, StatusScheduled},
		{StatusCancelled, StatusCancelled},
	}

	for _, tc := range illegal {
		a := appt(uuid.New(), "09:00", 30, tc.from)
		_, err := Transition(a, tc.to, now)

		var terr *IllegalTransitionError
		require.ErrorAs(t, err, &terr, "%s -> %s must be rejected", tc.from, tc.to)
		assert.Equal(t, tc.from, terr.From)
		assert.Equal(t, tc.to, terr.To)
	}
}

func TestTransition_CancellableFromAnyNonTerminalState(t *testing.T) {
	now := time.Now().UTC()
	for _, from := range []Status{StatusScheduled, StatusConfirmed, StatusInProgress} {
		a := appt(uuid.New(), "09:00", 30, from)
		cancelled, err := Transition(a, StatusCancelled, now)
		require.NoError(t, err, "cancel from %s", from)
		assert.Equal(t, StatusCancelled, cancelled.Status)
	}
}

func TestTransition_PausePreservesStartedAt(t *testing.T) {
	now := time.Now().UTC()
	started := now.Add(-10 * time.Minute)

	a := appt(uuid.New(), "09:00", 30, StatusInProgress)
	a.StartedAt = &started

	paused, err := Transition(a, StatusScheduled, now)
	require.NoError(t, err)
	require.NotNil(t, paused.StartedAt)
	assert.Equal(t, started, *paused.StartedAt)

	// Resuming must not overwrite the original start time.
	resumed, err := Transition(paused, StatusInProgress, now.Add(time.Minute))
	require.NoError(t, err)
	require.NotNil(t, resumed.StartedAt)
	assert.Equal(t, started, *resumed.StartedAt)
}

func TestTransition_ReactivationClearsCompletedAt(t *testing.T) {
	now := time.Now().UTC()
	started := now.Add(-30 * time.Minute)
	completed := now.Add(-5 * time.Minute)

	a := appt(uuid.New(), "09:00", 30, StatusCompleted)
	a.StartedAt = &started
	a.CompletedAt = &completed

	reopened, err := Transition(a, StatusScheduled, now)
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, reopened.Status)
	assert.Nil(t, reopened.CompletedAt)
	require.NotNil(t, reopened.StartedAt, "consultation history must survive a re-open")
	assert.Equal(t, started, *reopened.StartedAt)
}

func TestTransition_UnknownTargetStatus(t *testing.T) {
	a := appt(uuid.New(), "09:00", 30, StatusScheduled)
	_, err := Transition(a, "archived", time.Now().UTC())

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestTransition_DoesNotMutateInput(t *testing.T) {
	now := time.Now().UTC()
	a := appt(uuid.New(), "09:00", 30, StatusScheduled)

	_, err := Transition(a, StatusInProgress, now)
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, a.Status)
	assert.Nil(t, a.StartedAt)
}
