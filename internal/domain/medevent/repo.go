package medevent

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, ev *Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*Event, error)
	ListByStudent(ctx context.Context, studentID uuid.UUID, limit, offset int) ([]*Event, int, error)
	ListByRange(ctx context.Context, from, to time.Time, limit, offset int) ([]*Event, int, error)
}
