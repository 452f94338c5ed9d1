package scheduling

import (
	"time"
)

// QueueSummary is a pure derivation over an appointment snapshot; it holds
// no state of its own and is recomputed on every call.
type QueueSummary struct {
	Waiting        []Appointment
	Active         []Appointment
	CompletedToday []Appointment

	TotalPatients        int
	CompletionRate       float64 // percent, 0 when the day is empty
	AverageActiveMinutes float64 // mean of now - StartedAt over active, 0 when none
}

// Aggregate partitions the day's appointments into operational queues and
// computes the summary metrics. Completed appointments only count when they
// fall on the reference date; cancelled appointments are ignored entirely.
func Aggregate(appointments []Appointment, now time.Time) QueueSummary {
	var s QueueSummary

	for _, a := range appointments {
		switch a.Status {
		case StatusScheduled, StatusConfirmed:
			s.Waiting = append(s.Waiting, a)
		case StatusInProgress:
			s.Active = append(s.Active, a)
		case StatusCompleted:
			if SameDate(a.Date, now) {
				s.CompletedToday = append(s.CompletedToday, a)
			}
		}
	}

	s.TotalPatients = len(s.Waiting) + len(s.Active) + len(s.CompletedToday)
	if s.TotalPatients > 0 {
		s.CompletionRate = float64(len(s.CompletedToday)) / float64(s.TotalPatients) * 100
	}

	if len(s.Active) > 0 {
		var total float64
		for _, a := range s.Active {
			if a.StartedAt == nil {
				continue
			}
			// A reference earlier than the start time contributes zero,
			// never a negative duration.
			if d := now.Sub(*a.StartedAt).Minutes(); d > 0 {
				total += d
			}
		}
		s.AverageActiveMinutes = total / float64(len(s.Active))
	}

	return s
}
