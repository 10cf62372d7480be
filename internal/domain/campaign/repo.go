package campaign

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, cp *Campaign) error
	GetByID(ctx context.Context, id uuid.UUID) (*Campaign, error)
	Update(ctx context.Context, cp *Campaign) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Campaign, int, error)
	ListByStatus(ctx context.Context, status Status, limit, offset int) ([]*Campaign, int, error)
}

type ExamRepository interface {
	Create(ctx context.Context, ex *SpecialistExam) error
	GetByID(ctx context.Context, id uuid.UUID) (*SpecialistExam, error)
	ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]*SpecialistExam, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
