package student

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, st *Student) error
	GetByID(ctx context.Context, id uuid.UUID) (*Student, error)
	GetByCode(ctx context.Context, code string) (*Student, error)
	Update(ctx context.Context, st *Student) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Student, int, error)
	ListByGuardian(ctx context.Context, guardianUserID string) ([]*Student, error)
}
