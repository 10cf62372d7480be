package registration

import (
	"time"

	"github.com/google/uuid"

	"github.com/schoolmed/schoolmed/internal/domain/campaign"
)

// ConsentStatus is the guardian's decision on a vaccination registration.
// Once ACCEPTED or REFUSED it never reverts without an explicit new decision.
type ConsentStatus string

const (
	ConsentUnset    ConsentStatus = "UNSET"
	ConsentAccepted ConsentStatus = "ACCEPTED"
	ConsentRefused  ConsentStatus = "REFUSED"
)

// Status is the lifecycle of a checkup registration. Vaccination
// registrations stay in DRAFTED and are governed by ConsentStatus instead.
type Status string

const (
	StatusDrafted   Status = "DRAFTED"
	StatusSubmitted Status = "SUBMITTED"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

// Terminal reports whether no further registration edits are allowed.
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusCancelled
}

// AttachStatus is the state of one specialist-exam attachment.
type AttachStatus string

const (
	AttachCannot  AttachStatus = "CANNOT_ATTACH"
	AttachWaiting AttachStatus = "WAITING"
	AttachDone    AttachStatus = "DONE"
)

// Registration is one student's participation record in one campaign,
// loaded as an aggregate with its doses or exam attachments.
type Registration struct {
	ID            uuid.UUID     `db:"id" json:"id"`
	CampaignID    uuid.UUID     `db:"campaign_id" json:"campaign_id"`
	StudentID     uuid.UUID     `db:"student_id" json:"student_id"`
	Kind          campaign.Kind `db:"kind" json:"kind"`
	ConsentStatus ConsentStatus `db:"consent_status" json:"consent_status"`
	Status        Status        `db:"status" json:"status"`
	Reason        string        `db:"reason" json:"reason,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`

	Doses []*Dose           `json:"doses,omitempty"`
	Exams []*ExamAttachment `json:"exams,omitempty"`
}

// Dose is one vaccine dose inside a vaccination registration. Administered
// is write-once from the clinical side.
type Dose struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	RegistrationID uuid.UUID  `db:"registration_id" json:"registration_id"`
	DoseIndex      int        `db:"dose_index" json:"dose_index"`
	Administered   bool       `db:"administered" json:"administered"`
	AdministeredAt *time.Time `db:"administered_at" json:"administered_at,omitempty"`
}

// ExamAttachment is one specialist exam selected on a checkup registration.
type ExamAttachment struct {
	ID               uuid.UUID    `db:"id" json:"id"`
	RegistrationID   uuid.UUID    `db:"registration_id" json:"registration_id"`
	SpecialistExamID uuid.UUID    `db:"specialist_exam_id" json:"specialist_exam_id"`
	AttachStatus     AttachStatus `db:"attach_status" json:"attach_status"`
	Result           *string      `db:"result" json:"result,omitempty"`
	Diagnosis        *string      `db:"diagnosis" json:"diagnosis,omitempty"`
}
