package drugrequest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
)

type mockRepo struct {
	requests map[uuid.UUID]*Request
}

func newMockRepo() *mockRepo {
	return &mockRepo{requests: make(map[uuid.UUID]*Request)}
}

func (m *mockRepo) Create(ctx context.Context, req *Request) error {
	req.ID = uuid.New()
	m.requests[req.ID] = req
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Request, error) {
	req, ok := m.requests[id]
	if !ok {
		return nil, fmt.Errorf("request not found")
	}
	return req, nil
}

func (m *mockRepo) Update(ctx context.Context, req *Request) error {
	if _, ok := m.requests[req.ID]; !ok {
		return fmt.Errorf("request not found")
	}
	m.requests[req.ID] = req
	return nil
}

func (m *mockRepo) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*Request, error) {
	var out []*Request
	for _, req := range m.requests {
		if req.StudentID == studentID {
			out = append(out, req)
		}
	}
	return out, nil
}

func (m *mockRepo) ListByStatus(ctx context.Context, status Status, limit, offset int) ([]*Request, int, error) {
	var out []*Request
	for _, req := range m.requests {
		if req.Status == status {
			out = append(out, req)
		}
	}
	return out, len(out), nil
}

func newTestRequest(t *testing.T, svc *Service) *Request {
	t.Helper()
	req := &Request{
		StudentID:   uuid.New(),
		RequestedBy: "guardian-1",
		Medication:  "Paracetamol",
		Dosage:      "250mg",
		Schedule:    "after lunch",
	}
	if err := svc.Create(context.Background(), req); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return req
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	cases := []Request{
		{Medication: "Paracetamol", Dosage: "250mg", Schedule: "after lunch"},
		{StudentID: uuid.New(), Dosage: "250mg", Schedule: "after lunch"},
		{StudentID: uuid.New(), Medication: "Paracetamol", Schedule: "after lunch"},
		{StudentID: uuid.New(), Medication: "Paracetamol", Dosage: "250mg"},
	}
	for i, req := range cases {
		r := req
		if err := svc.Create(ctx, &r); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestCreateStartsPending(t *testing.T) {
	svc := NewService(newMockRepo())
	req := newTestRequest(t, svc)
	if req.Status != StatusPending {
		t.Errorf("expected PENDING, got %s", req.Status)
	}
}

func TestApproveAdministerFlow(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	req := newTestRequest(t, svc)

	// administering before approval is a conflict
	if _, err := svc.MarkAdministered(ctx, req.ID); !errors.Is(err, ErrNotApproved) {
		t.Errorf("expected ErrNotApproved, got %v", err)
	}

	got, err := svc.Approve(ctx, req.ID)
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if got.Status != StatusApproved {
		t.Errorf("expected APPROVED, got %s", got.Status)
	}
	if _, err := svc.Approve(ctx, req.ID); !errors.Is(err, ErrNotPending) {
		t.Errorf("expected ErrNotPending re-approving, got %v", err)
	}

	got, err = svc.MarkAdministered(ctx, req.ID)
	if err != nil {
		t.Fatalf("MarkAdministered failed: %v", err)
	}
	if got.Status != StatusAdministered {
		t.Errorf("expected ADMINISTERED, got %s", got.Status)
	}
	if _, err := svc.MarkAdministered(ctx, req.ID); !errors.Is(err, ErrTerminal) {
		t.Errorf("expected ErrTerminal, got %v", err)
	}
}

func TestRejectRequiresReason(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	req := newTestRequest(t, svc)

	if _, err := svc.Reject(ctx, req.ID, ""); !errors.Is(err, ErrReasonRequired) {
		t.Errorf("expected ErrReasonRequired, got %v", err)
	}
	got, err := svc.Reject(ctx, req.ID, "missing physician note")
	if err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if got.Status != StatusRejected || got.RejectionReason == nil {
		t.Errorf("expected REJECTED with reason, got %s", got.Status)
	}
	if _, err := svc.Approve(ctx, req.ID); !errors.Is(err, ErrTerminal) {
		t.Errorf("expected ErrTerminal approving a rejected request, got %v", err)
	}
}

func TestCancelOnlyByRequester(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	req := newTestRequest(t, svc)

	if _, err := svc.Cancel(ctx, req.ID, "guardian-2"); !errors.Is(err, ErrNotRequester) {
		t.Errorf("expected ErrNotRequester, got %v", err)
	}
	got, err := svc.Cancel(ctx, req.ID, "guardian-1")
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Errorf("expected CANCELLED, got %s", got.Status)
	}
	if _, err := svc.Cancel(ctx, req.ID, "guardian-1"); !errors.Is(err, ErrTerminal) {
		t.Errorf("expected ErrTerminal cancelling twice, got %v", err)
	}
}

func TestCancelApprovedRequestConflicts(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	req := newTestRequest(t, svc)

	if _, err := svc.Approve(ctx, req.ID); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if _, err := svc.Cancel(ctx, req.ID, "guardian-1"); !errors.Is(err, ErrNotPending) {
		t.Errorf("expected ErrNotPending, got %v", err)
	}
}
