package registration

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists registration aggregates. Get methods load the full
// aggregate including doses and exam attachments.
type Repository interface {
	Create(ctx context.Context, r *Registration) error
	GetByID(ctx context.Context, id uuid.UUID) (*Registration, error)
	GetByCampaignAndStudent(ctx context.Context, campaignID, studentID uuid.UUID) (*Registration, error)
	Update(ctx context.Context, r *Registration) error
	SaveDose(ctx context.Context, d *Dose) error
	SaveExam(ctx context.Context, ex *ExamAttachment) error
	ReplaceExams(ctx context.Context, registrationID uuid.UUID, exams []*ExamAttachment) error
	ListByCampaign(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]*Registration, int, error)
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*Registration, error)
}
