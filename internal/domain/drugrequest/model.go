package drugrequest

import (
	"time"

	"github.com/google/uuid"
)

// Status is the review lifecycle of a drug-administration request.
// REJECTED, CANCELLED and ADMINISTERED are terminal.
type Status string

const (
	StatusPending      Status = "PENDING"
	StatusApproved     Status = "APPROVED"
	StatusRejected     Status = "REJECTED"
	StatusAdministered Status = "ADMINISTERED"
	StatusCancelled    Status = "CANCELLED"
)

func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusCancelled || s == StatusAdministered
}

// Request is a guardian's ask for school staff to administer a medication
// they supply.
type Request struct {
	ID              uuid.UUID `db:"id" json:"id"`
	StudentID       uuid.UUID `db:"student_id" json:"student_id"`
	RequestedBy     string    `db:"requested_by" json:"requested_by"`
	Medication      string    `db:"medication" json:"medication"`
	Dosage          string    `db:"dosage" json:"dosage"`
	Schedule        string    `db:"schedule" json:"schedule"`
	Note            *string   `db:"note" json:"note,omitempty"`
	Status          Status    `db:"status" json:"status"`
	RejectionReason *string   `db:"rejection_reason" json:"rejection_reason,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
