package drugrequest

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrReasonRequired = errors.New("rejection reason is required")
	ErrNotPending     = errors.New("request is no longer pending")
	ErrNotApproved    = errors.New("request has not been approved")
	ErrTerminal       = errors.New("request is in a terminal status")
	ErrNotRequester   = errors.New("only the requesting guardian may cancel")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req *Request) error {
	if req.StudentID == uuid.Nil {
		return fmt.Errorf("student_id is required")
	}
	if req.Medication == "" {
		return fmt.Errorf("medication is required")
	}
	if req.Dosage == "" {
		return fmt.Errorf("dosage is required")
	}
	if req.Schedule == "" {
		return fmt.Errorf("schedule is required")
	}
	req.Status = StatusPending
	return s.repo.Create(ctx, req)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Request, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*Request, error) {
	return s.repo.ListByStudent(ctx, studentID)
}

func (s *Service) ListByStatus(ctx context.Context, status Status, limit, offset int) ([]*Request, int, error) {
	return s.repo.ListByStatus(ctx, status, limit, offset)
}

// Approve moves a PENDING request to APPROVED.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (*Request, error) {
	return s.transition(ctx, id, func(req *Request) error {
		if req.Status != StatusPending {
			return conflict(req)
		}
		req.Status = StatusApproved
		return nil
	})
}

// Reject moves a PENDING request to REJECTED with a mandatory reason.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, reason string) (*Request, error) {
	return s.transition(ctx, id, func(req *Request) error {
		if req.Status != StatusPending {
			return conflict(req)
		}
		if reason == "" {
			return ErrReasonRequired
		}
		req.Status = StatusRejected
		req.RejectionReason = &reason
		return nil
	})
}

// MarkAdministered closes an APPROVED request once the dose was given.
func (s *Service) MarkAdministered(ctx context.Context, id uuid.UUID) (*Request, error) {
	return s.transition(ctx, id, func(req *Request) error {
		if req.Status != StatusApproved {
			if req.Status.Terminal() {
				return ErrTerminal
			}
			return ErrNotApproved
		}
		req.Status = StatusAdministered
		return nil
	})
}

// Cancel lets the requesting guardian withdraw a PENDING request.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, userID string) (*Request, error) {
	return s.transition(ctx, id, func(req *Request) error {
		if req.RequestedBy != userID {
			return ErrNotRequester
		}
		if req.Status != StatusPending {
			return conflict(req)
		}
		req.Status = StatusCancelled
		return nil
	})
}

func conflict(req *Request) error {
	if req.Status.Terminal() {
		return ErrTerminal
	}
	return ErrNotPending
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, fn func(*Request) error) (*Request, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}
