package campaign

import (
	"time"

	"github.com/google/uuid"
)

// Kind distinguishes the two campaign flavors the program runs.
type Kind string

const (
	KindVaccination Kind = "VACCINATION"
	KindCheckup     Kind = "CHECKUP"
)

// Status is the lifecycle state of a campaign. COMPLETED and CANCELLED are
// terminal; a terminal campaign locks out all per-student clinical edits.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Campaign maps to the campaigns table: one time-boxed medical program
// (vaccination drive or periodic checkup) offered to a cohort of students.
type Campaign struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Kind         Kind       `db:"kind" json:"kind"`
	Name         string     `db:"name" json:"name"`
	Description  *string    `db:"description" json:"description,omitempty"`
	VaccineName  *string    `db:"vaccine_name" json:"vaccine_name,omitempty"`
	DoseQuantity int        `db:"dose_quantity" json:"dose_quantity"`
	Status       Status     `db:"status" json:"status"`
	StartsAt     *time.Time `db:"starts_at" json:"starts_at,omitempty"`
	EndsAt       *time.Time `db:"ends_at" json:"ends_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// SpecialistExam is one specialist sub-exam offered by a checkup campaign.
type SpecialistExam struct {
	ID          uuid.UUID `db:"id" json:"id"`
	CampaignID  uuid.UUID `db:"campaign_id" json:"campaign_id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
