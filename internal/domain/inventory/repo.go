package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrStockConflict is returned by Consume when a decrement would drive
	// stock negative, e.g. because another actor consumed the same items
	// concurrently.
	ErrStockConflict = errors.New("insufficient stock")

	// ErrItemNotFound is returned by Consume for an item id that does not
	// exist at all, so callers can report it apart from depletion.
	ErrItemNotFound = errors.New("item not found")
)

type Repository interface {
	Create(ctx context.Context, it *Item) error
	GetByID(ctx context.Context, id uuid.UUID) (*Item, error)
	Update(ctx context.Context, it *Item) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Item, int, error)
	// Consume atomically decrements stock, failing when fewer than quantity
	// units remain.
	Consume(ctx context.Context, itemID uuid.UUID, quantity int) error
}
