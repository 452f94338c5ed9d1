package scheduling

import (
	"time"
)

// TimeSlot is a bookable window derived for a single view request. It is
// never persisted; callers recompute it from the current appointment set.
type TimeSlot struct {
	Time        TimeOfDay
	Available   bool
	Appointment *Appointment
}

// OperatingHours is the bookable window of a working day, [StartHour, EndHour).
type OperatingHours struct {
	StartHour int
	EndHour   int
}

func (h OperatingHours) valid() bool {
	return h.StartHour >= 0 && h.EndHour <= 24 && h.StartHour < h.EndHour
}

// GenerateSlots lays out the contiguous slots of a provider's day, stepped by
// slotMinutes. The final slot is included only if it fully fits before
// EndHour. A slot is unavailable when a non-cancelled appointment on the same
// date starts exactly at the slot's start time; slot granularity equals
// scheduling granularity here.
func GenerateSlots(date time.Time, hours OperatingHours, slotMinutes int, existing []Appointment) ([]TimeSlot, error) {
	if slotMinutes <= 0 {
		return nil, &ValidationError{Field: "slot duration", Reason: "must be positive"}
	}
	if !hours.valid() {
		return nil, &ValidationError{Field: "operating hours", Reason: "start hour must precede end hour within the day"}
	}

	booked := make(map[int]*Appointment, len(existing))
	for i := range existing {
		a := &existing[i]
		if a.Status == StatusCancelled || !SameDate(a.Date, date) {
			continue
		}
		booked[a.Start.Minutes()] = a
	}

	startMin := hours.StartHour * 60
	endMin := hours.EndHour * 60

	slots := make([]TimeSlot, 0, (endMin-startMin)/slotMinutes)
	for min := startMin; min+slotMinutes <= endMin; min += slotMinutes {
		appt := booked[min]
		slots = append(slots, TimeSlot{
			Time:        MinutesToTimeOfDay(min),
			Available:   appt == nil,
			Appointment: appt,
		})
	}

	return slots, nil
}
