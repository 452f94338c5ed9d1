package scheduling

import (
	"fmt"
	"time"
)

// TimeOfDay is a clock time with minute precision. Appointments and slots
// are scheduled on minute boundaries within a single calendar date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" (24h clock). The form is strict: exactly two
// digits per component and nothing else, so malformed request input is
// rejected rather than truncated.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// MinutesToTimeOfDay converts minutes-from-midnight back to a clock time.
func MinutesToTimeOfDay(min int) TimeOfDay {
	return TimeOfDay{Hour: min / 60, Minute: min % 60}
}

func (t TimeOfDay) Valid() bool {
	return t.Hour >= 0 && t.Hour < 24 && t.Minute >= 0 && t.Minute < 60
}

// Minutes returns minutes from midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("time of day must be a JSON string")
	}
	parsed, err := ParseTimeOfDay(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
