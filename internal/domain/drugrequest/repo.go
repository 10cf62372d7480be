package drugrequest

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, req *Request) error
	GetByID(ctx context.Context, id uuid.UUID) (*Request, error)
	Update(ctx context.Context, req *Request) error
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*Request, error)
	ListByStatus(ctx context.Context, status Status, limit, offset int) ([]*Request, int, error)
}
