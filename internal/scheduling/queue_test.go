package scheduling

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate_EmptySnapshot(t *testing.T) {
	s := Aggregate(nil, time.Now().UTC())

	assert.Zero(t, s.TotalPatients)
	assert.Zero(t, s.CompletionRate)
	assert.Zero(t, s.AverageActiveMinutes)
	assert.Empty(t, s.Waiting)
	assert.Empty(t, s.Active)
	assert.Empty(t, s.CompletedToday)
}

func TestAggregate_Partitions(t *testing.T) {
	now := testDay.Add(11 * time.Hour)
	provider := uuid.New()

	scheduled := appt(provider, "09:00", 30, StatusScheduled)
	confirmed := appt(provider, "09:30", 30, StatusConfirmed)
	active := appt(provider, "10:00", 30, StatusInProgress)
	startedAt := now.Add(-20 * time.Minute)
	active.StartedAt = &startedAt
	done := appt(provider, "10:30", 30, StatusCompleted)
	cancelled := appt(provider, "11:00", 30, StatusCancelled)

	s := Aggregate([]Appointment{scheduled, confirmed, active, done, cancelled}, now)

	assert.Len(t, s.Waiting, 2)
	assert.Len(t, s.Active, 1)
	assert.Len(t, s.CompletedToday, 1)
	assert.Equal(t, 4, s.TotalPatients, "cancelled appointments never count")
	assert.InDelta(t, 25.0, s.CompletionRate, 0.001)
	assert.InDelta(t, 20.0, s.AverageActiveMinutes, 0.001)
}

func TestAggregate_CompletedOnAnotherDateExcluded(t *testing.T) {
	now := testDay.Add(11 * time.Hour)
	provider := uuid.New()

	yesterday := appt(provider, "09:00", 30, StatusCompleted)
	yesterday.Date = testDay.AddDate(0, 0, -1)

	s := Aggregate([]Appointment{yesterday}, now)

	assert.Empty(t, s.CompletedToday)
	assert.Zero(t, s.TotalPatients)
	assert.Zero(t, s.CompletionRate)
}

func TestAggregate_ActiveWithoutStartedAtCountsAsZeroMinutes(t *testing.T) {
	now := testDay.Add(11 * time.Hour)
	provider := uuid.New()

	// StartedAt should always be set for in-progress rows, but the metric
	// must not blow up on a snapshot that violates that.
	orphan := appt(provider, "10:00", 30, StatusInProgress)

	tracked := appt(provider, "10:30", 30, StatusInProgress)
	startedAt := now.Add(-30 * time.Minute)
	tracked.StartedAt = &startedAt

	s := Aggregate([]Appointment{orphan, tracked}, now)

	require.Len(t, s.Active, 2)
	assert.InDelta(t, 15.0, s.AverageActiveMinutes, 0.001)
}

func TestAggregate_ReferenceBeforeStartNeverGoesNegative(t *testing.T) {
	provider := uuid.New()

	active := appt(provider, "10:00", 30, StatusInProgress)
	startedAt := testDay.Add(10 * time.Hour)
	active.StartedAt = &startedAt

	// Summarizing a past date anchors the reference at midnight, hours
	// before the consultation started.
	s := Aggregate([]Appointment{active}, testDay)

	require.Len(t, s.Active, 1)
	assert.GreaterOrEqual(t, s.AverageActiveMinutes, 0.0)
	assert.Zero(t, s.AverageActiveMinutes)
}

func TestAggregate_AllCompleted(t *testing.T) {
	now := testDay.Add(17 * time.Hour)
	provider := uuid.New()

	s := Aggregate([]Appointment{
		appt(provider, "09:00", 30, StatusCompleted),
		appt(provider, "09:30", 30, StatusCompleted),
	}, now)

	assert.Equal(t, 2, s.TotalPatients)
	assert.InDelta(t, 100.0, s.CompletionRate, 0.001)
	assert.Zero(t, s.AverageActiveMinutes)
}
