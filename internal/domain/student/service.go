package student

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/schoolmed/schoolmed/internal/platform/session"
)

// ErrNotGuardian is returned when a guardian tries to act for a student
// that is not one of their children.
var ErrNotGuardian = errors.New("student does not belong to this guardian")

type Service struct {
	repo       Repository
	selections session.SelectionStore
}

func NewService(repo Repository, selections session.SelectionStore) *Service {
	return &Service{repo: repo, selections: selections}
}

func (s *Service) Create(ctx context.Context, st *Student) error {
	if st.FullName == "" {
		return fmt.Errorf("full_name is required")
	}
	if st.Code == "" {
		return fmt.Errorf("code is required")
	}
	return s.repo.Create(ctx, st)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Student, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByCode looks a student up by their school-issued code.
func (s *Service) GetByCode(ctx context.Context, code string) (*Student, error) {
	return s.repo.GetByCode(ctx, code)
}

func (s *Service) Update(ctx context.Context, st *Student) error {
	if st.FullName == "" {
		return fmt.Errorf("full_name is required")
	}
	return s.repo.Update(ctx, st)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Student, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListByGuardian(ctx context.Context, guardianUserID string) ([]*Student, error) {
	return s.repo.ListByGuardian(ctx, guardianUserID)
}

// Select records studentID as the caller's current child. Guardians may only
// select their own children; staff roles may select anyone.
func (s *Service) Select(ctx context.Context, userID string, studentID uuid.UUID, guardianOnly bool) (*Student, error) {
	st, err := s.repo.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if guardianOnly && st.GuardianUserID != userID {
		return nil, ErrNotGuardian
	}
	if err := s.selections.SetSelectedStudent(ctx, userID, studentID); err != nil {
		return nil, err
	}
	return st, nil
}

// Selected resolves the caller's current child. Returns
// session.ErrNoSelection when none is set.
func (s *Service) Selected(ctx context.Context, userID string) (*Student, error) {
	id, err := s.selections.SelectedStudent(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// ClearSelection drops the caller's current-child pointer, e.g. on logout.
func (s *Service) ClearSelection(ctx context.Context, userID string) error {
	return s.selections.ClearSelectedStudent(ctx, userID)
}
