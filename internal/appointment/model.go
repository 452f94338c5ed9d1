package appointment

import (
	"time"

	"github.com/google/uuid"
)

// Patient and Provider are directory entities owned by external systems;
// the scheduler keeps just enough of them to render queue views.
type Patient struct {
	ID        uuid.UUID
	Name      string
	Email     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Provider struct {
	ID        uuid.UUID
	Name      string
	Specialty *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EventLog is an append-only record of scheduling and lifecycle events.
type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}
