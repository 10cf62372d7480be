package campaign

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrClosed is returned when an operation requires a campaign that is still
// open but the campaign has reached a terminal status.
var ErrClosed = errors.New("campaign is closed")

type Service struct {
	campaigns Repository
	exams     ExamRepository
}

func NewService(campaigns Repository, exams ExamRepository) *Service {
	return &Service{campaigns: campaigns, exams: exams}
}

func (s *Service) Create(ctx context.Context, cp *Campaign) error {
	if cp.Name == "" {
		return fmt.Errorf("name is required")
	}
	switch cp.Kind {
	case KindVaccination:
		if cp.VaccineName == nil || *cp.VaccineName == "" {
			return fmt.Errorf("vaccine_name is required for vaccination campaigns")
		}
		if cp.DoseQuantity < 1 {
			return fmt.Errorf("dose_quantity must be at least 1")
		}
	case KindCheckup:
		if cp.DoseQuantity != 0 {
			return fmt.Errorf("dose_quantity does not apply to checkup campaigns")
		}
	default:
		return fmt.Errorf("invalid kind: %s", cp.Kind)
	}
	if cp.StartsAt != nil && cp.EndsAt != nil && cp.EndsAt.Before(*cp.StartsAt) {
		return fmt.Errorf("ends_at must not precede starts_at")
	}
	if cp.Status == "" {
		cp.Status = StatusDraft
	}
	if cp.Status != StatusDraft {
		return fmt.Errorf("new campaigns must start in status %s", StatusDraft)
	}
	return s.campaigns.Create(ctx, cp)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Campaign, error) {
	return s.campaigns.GetByID(ctx, id)
}

// Delete removes a campaign that never left DRAFT. Anything later must be
// cancelled instead so registrations keep their history.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	cp, err := s.campaigns.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if cp.Status != StatusDraft {
		return fmt.Errorf("only %s campaigns can be deleted", StatusDraft)
	}
	return s.campaigns.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Campaign, int, error) {
	return s.campaigns.List(ctx, limit, offset)
}

func (s *Service) ListByStatus(ctx context.Context, status Status, limit, offset int) ([]*Campaign, int, error) {
	return s.campaigns.ListByStatus(ctx, status, limit, offset)
}

// Activate moves a DRAFT campaign to ACTIVE, opening it for registrations.
func (s *Service) Activate(ctx context.Context, id uuid.UUID) (*Campaign, error) {
	return s.transition(ctx, id, StatusDraft, StatusActive)
}

// Complete moves an ACTIVE campaign to COMPLETED. Completed campaigns lock
// out further per-student clinical edits.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*Campaign, error) {
	return s.transition(ctx, id, StatusActive, StatusCompleted)
}

// Cancel moves any non-terminal campaign to CANCELLED.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Campaign, error) {
	cp, err := s.campaigns.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cp.Status.Terminal() {
		return nil, ErrClosed
	}
	cp.Status = StatusCancelled
	if err := s.campaigns.Update(ctx, cp); err != nil {
		return nil, err
	}
	return cp, nil
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, from, to Status) (*Campaign, error) {
	cp, err := s.campaigns.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cp.Status.Terminal() {
		return nil, ErrClosed
	}
	if cp.Status != from {
		return nil, fmt.Errorf("campaign must be %s to become %s, currently %s", from, to, cp.Status)
	}
	cp.Status = to
	if err := s.campaigns.Update(ctx, cp); err != nil {
		return nil, err
	}
	return cp, nil
}

// AddExam attaches a specialist exam offering to a checkup campaign. Exams
// cannot be added once the campaign is closed.
func (s *Service) AddExam(ctx context.Context, ex *SpecialistExam) error {
	if ex.Name == "" {
		return fmt.Errorf("name is required")
	}
	cp, err := s.campaigns.GetByID(ctx, ex.CampaignID)
	if err != nil {
		return err
	}
	if cp.Kind != KindCheckup {
		return fmt.Errorf("specialist exams apply only to checkup campaigns")
	}
	if cp.Status.Terminal() {
		return ErrClosed
	}
	return s.exams.Create(ctx, ex)
}

func (s *Service) ListExams(ctx context.Context, campaignID uuid.UUID) ([]*SpecialistExam, error) {
	return s.exams.ListByCampaign(ctx, campaignID)
}

func (s *Service) RemoveExam(ctx context.Context, campaignID, examID uuid.UUID) error {
	ex, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return err
	}
	if ex.CampaignID != campaignID {
		return fmt.Errorf("exam does not belong to campaign")
	}
	cp, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return err
	}
	if cp.Status.Terminal() {
		return ErrClosed
	}
	return s.exams.Delete(ctx, examID)
}
