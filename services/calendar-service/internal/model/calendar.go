package model

import "time"

// AvailabilitySlot is a coach-declared bookable window. Slots generated from
// a recurrence rule are ordinary independent rows; no recurrence identity is
// stored with them.
type AvailabilitySlot struct {
	ID        int64
	CoachID   string
	StartTime time.Time
	EndTime   time.Time
	CreatedAt time.Time
}

// Session statuses. The server owns transitions; clients only read them.
const (
	SessionUnscheduled = "unscheduled"
	SessionRequested   = "requested"
	SessionScheduled   = "scheduled"
	SessionCompleted   = "completed"
	SessionCanceled    = "canceled"
)

const (
	KindIndividual = "individual"
	KindGroup      = "group"
)

type CoachingSession struct {
	ID        string
	CoachID   string
	StudentID string
	Offering  string
	Kind      string
	Status    string
	StartTime *time.Time // nil while unscheduled
	EndTime   *time.Time
	CreatedAt time.Time
}

// CoachPolicy is the per-coach booking policy cached from profile events.
type CoachPolicy struct {
	CoachID            string
	AdvanceNoticeHours int
	MaxHorizonMonths   int
}
