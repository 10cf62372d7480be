package student

import (
	"time"

	"github.com/google/uuid"
)

// Student maps to the students table. GuardianUserID ties the record to the
// auth subject of the guardian account allowed to act for this child.
type Student struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	Code           string     `db:"code" json:"code"`
	FullName       string     `db:"full_name" json:"full_name"`
	DateOfBirth    *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	ClassName      string     `db:"class_name" json:"class_name"`
	GuardianUserID string     `db:"guardian_user_id" json:"guardian_user_id"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}
