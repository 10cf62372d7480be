package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, it *Item) error {
	if it.Name == "" {
		return fmt.Errorf("name is required")
	}
	if it.Quantity < 0 {
		return fmt.Errorf("quantity must not be negative")
	}
	return s.repo.Create(ctx, it)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Item, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, it *Item) error {
	if it.Name == "" {
		return fmt.Errorf("name is required")
	}
	if it.Quantity < 0 {
		return fmt.Errorf("quantity must not be negative")
	}
	return s.repo.Update(ctx, it)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Item, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// Snapshot fetches every item as the starting stock for a composing
// session. The caller opens its own ledger over the result.
func (s *Service) Snapshot(ctx context.Context) ([]*Item, error) {
	items, _, err := s.repo.List(ctx, 1000, 0)
	return items, err
}
