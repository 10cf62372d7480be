package medevent

import (
	"time"

	"github.com/google/uuid"
)

// Kind classifies a daily health event.
type Kind string

const (
	KindInjury  Kind = "INJURY"
	KindIllness Kind = "ILLNESS"
)

// Severity grades an event for reporting.
type Severity string

const (
	SeverityMinor    Severity = "MINOR"
	SeverityModerate Severity = "MODERATE"
	SeveritySevere   Severity = "SEVERE"
)

// Event is one injury or illness record for a student, optionally carrying
// the supplies consumed while treating it.
type Event struct {
	ID          uuid.UUID `db:"id" json:"id"`
	StudentID   uuid.UUID `db:"student_id" json:"student_id"`
	Kind        Kind      `db:"kind" json:"kind"`
	Description string    `db:"description" json:"description"`
	Severity    Severity  `db:"severity" json:"severity"`
	OccurredAt  time.Time `db:"occurred_at" json:"occurred_at"`
	RecordedBy  string    `db:"recorded_by" json:"recorded_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`

	Lines []*ConsumptionLine `json:"lines,omitempty"`
}

// ConsumptionLine is one item+quantity consumed against an event.
type ConsumptionLine struct {
	ID       uuid.UUID `db:"id" json:"id"`
	EventID  uuid.UUID `db:"event_id" json:"event_id"`
	ItemID   uuid.UUID `db:"item_id" json:"item_id"`
	Quantity int       `db:"quantity" json:"quantity"`
}
