package medevent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/schoolmed/schoolmed/internal/domain/inventory"
)

// TxFunc runs fn inside one transaction carried through the context, so
// every repository call in fn shares it.
type TxFunc func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	repo  Repository
	items inventory.Repository
	tx    TxFunc
}

func NewService(repo Repository, items inventory.Repository, tx TxFunc) *Service {
	return &Service{repo: repo, items: items, tx: tx}
}

// Create records an event and decrements stock for its consumption lines in
// one transaction. Lines for the same item are merged before the decrement.
// The database is the authority on availability: a concurrent depletion
// surfaces as inventory.ErrStockConflict and nothing is recorded.
func (s *Service) Create(ctx context.Context, ev *Event) error {
	if ev.StudentID == uuid.Nil {
		return fmt.Errorf("student_id is required")
	}
	if ev.Kind != KindInjury && ev.Kind != KindIllness {
		return fmt.Errorf("invalid kind: %s", ev.Kind)
	}
	if ev.Description == "" {
		return fmt.Errorf("description is required")
	}
	switch ev.Severity {
	case SeverityMinor, SeverityModerate, SeveritySevere:
	case "":
		ev.Severity = SeverityMinor
	default:
		return fmt.Errorf("invalid severity: %s", ev.Severity)
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now()
	}
	for _, line := range ev.Lines {
		if line.Quantity <= 0 {
			return inventory.ErrQuantityNotPositive
		}
	}
	ev.Lines = mergeLines(ev.Lines)

	return s.tx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, ev); err != nil {
			return err
		}
		for _, line := range ev.Lines {
			if err := s.items.Consume(ctx, line.ItemID, line.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
}

// mergeLines collapses duplicate item lines, keeping first-seen order.
func mergeLines(lines []*ConsumptionLine) []*ConsumptionLine {
	if len(lines) < 2 {
		return lines
	}
	index := make(map[uuid.UUID]*ConsumptionLine, len(lines))
	out := make([]*ConsumptionLine, 0, len(lines))
	for _, line := range lines {
		if existing, ok := index[line.ItemID]; ok {
			existing.Quantity += line.Quantity
			continue
		}
		index[line.ItemID] = line
		out = append(out, line)
	}
	return out
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Event, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByStudent(ctx context.Context, studentID uuid.UUID, limit, offset int) ([]*Event, int, error) {
	return s.repo.ListByStudent(ctx, studentID, limit, offset)
}

func (s *Service) ListByRange(ctx context.Context, from, to time.Time, limit, offset int) ([]*Event, int, error) {
	if to.Before(from) {
		return nil, 0, fmt.Errorf("to must not precede from")
	}
	return s.repo.ListByRange(ctx, from, to, limit, offset)
}
