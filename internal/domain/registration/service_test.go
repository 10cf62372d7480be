package registration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/schoolmed/schoolmed/internal/domain/campaign"
)

type mockRepo struct {
	mu        sync.Mutex
	regs      map[uuid.UUID]*Registration
	byKey     map[string]uuid.UUID
	order     []uuid.UUID
	doseErr   error
	examErr   error
	updateErr error
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		regs:  make(map[uuid.UUID]*Registration),
		byKey: make(map[string]uuid.UUID),
	}
}

func key(campaignID, studentID uuid.UUID) string {
	return campaignID.String() + "/" + studentID.String()
}

func (m *mockRepo) Create(ctx context.Context, r *Registration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = uuid.New()
	for _, d := range r.Doses {
		d.ID = uuid.New()
		d.RegistrationID = r.ID
	}
	m.regs[r.ID] = r
	m.byKey[key(r.CampaignID, r.StudentID)] = r.ID
	m.order = append(m.order, r.ID)
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.regs[id]
	if !ok {
		return nil, fmt.Errorf("registration not found")
	}
	return r, nil
}

func (m *mockRepo) GetByCampaignAndStudent(ctx context.Context, campaignID, studentID uuid.UUID) (*Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byKey[key(campaignID, studentID)]
	if !ok {
		return nil, fmt.Errorf("registration not found")
	}
	return m.regs[id], nil
}

func (m *mockRepo) Update(ctx context.Context, r *Registration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.regs[r.ID]; !ok {
		return fmt.Errorf("registration not found")
	}
	m.regs[r.ID] = r
	return nil
}

func (m *mockRepo) SaveDose(ctx context.Context, d *Dose) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doseErr
}

func (m *mockRepo) SaveExam(ctx context.Context, ex *ExamAttachment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.examErr
}

func (m *mockRepo) ReplaceExams(ctx context.Context, registrationID uuid.UUID, exams []*ExamAttachment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ex := range exams {
		if ex.ID == uuid.Nil {
			ex.ID = uuid.New()
		}
		ex.RegistrationID = registrationID
	}
	return nil
}

func (m *mockRepo) ListByCampaign(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]*Registration, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Registration
	for _, id := range m.order {
		if r := m.regs[id]; r.CampaignID == campaignID {
			out = append(out, r)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Registration
	for _, id := range m.order {
		if r := m.regs[id]; r.StudentID == studentID {
			out = append(out, r)
		}
	}
	return out, nil
}

type mockCampaignRepo struct {
	campaigns map[uuid.UUID]*campaign.Campaign
}

func (m *mockCampaignRepo) Create(ctx context.Context, cp *campaign.Campaign) error {
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	m.campaigns[cp.ID] = cp
	return nil
}

func (m *mockCampaignRepo) GetByID(ctx context.Context, id uuid.UUID) (*campaign.Campaign, error) {
	cp, ok := m.campaigns[id]
	if !ok {
		return nil, fmt.Errorf("campaign not found")
	}
	return cp, nil
}

func (m *mockCampaignRepo) Update(ctx context.Context, cp *campaign.Campaign) error {
	m.campaigns[cp.ID] = cp
	return nil
}

func (m *mockCampaignRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(m.campaigns, id)
	return nil
}

func (m *mockCampaignRepo) List(ctx context.Context, limit, offset int) ([]*campaign.Campaign, int, error) {
	return nil, 0, nil
}

func (m *mockCampaignRepo) ListByStatus(ctx context.Context, status campaign.Status, limit, offset int) ([]*campaign.Campaign, int, error) {
	return nil, 0, nil
}

type mockExamRepo struct {
	exams map[uuid.UUID]*campaign.SpecialistExam
}

func (m *mockExamRepo) Create(ctx context.Context, ex *campaign.SpecialistExam) error {
	if ex.ID == uuid.Nil {
		ex.ID = uuid.New()
	}
	m.exams[ex.ID] = ex
	return nil
}

func (m *mockExamRepo) GetByID(ctx context.Context, id uuid.UUID) (*campaign.SpecialistExam, error) {
	ex, ok := m.exams[id]
	if !ok {
		return nil, fmt.Errorf("exam not found")
	}
	return ex, nil
}

func (m *mockExamRepo) ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]*campaign.SpecialistExam, error) {
	var out []*campaign.SpecialistExam
	for _, ex := range m.exams {
		if ex.CampaignID == campaignID {
			out = append(out, ex)
		}
	}
	return out, nil
}

func (m *mockExamRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(m.exams, id)
	return nil
}

type fixture struct {
	svc       *Service
	regs      *mockRepo
	campaigns *mockCampaignRepo
	exams     *mockExamRepo
}

func passthroughTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newFixture() *fixture {
	regs := newMockRepo()
	campaigns := &mockCampaignRepo{campaigns: make(map[uuid.UUID]*campaign.Campaign)}
	exams := &mockExamRepo{exams: make(map[uuid.UUID]*campaign.SpecialistExam)}
	return &fixture{
		svc:       NewService(regs, campaigns, exams, passthroughTx),
		regs:      regs,
		campaigns: campaigns,
		exams:     exams,
	}
}

func (f *fixture) seedCampaign(t *testing.T, kind campaign.Kind, doses int) *campaign.Campaign {
	t.Helper()
	cp := &campaign.Campaign{Kind: kind, Name: "Test", Status: campaign.StatusActive, DoseQuantity: doses}
	if err := f.campaigns.Create(context.Background(), cp); err != nil {
		t.Fatalf("seed campaign: %v", err)
	}
	return cp
}

func TestRegisterSeedsDoses(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	cp := f.seedCampaign(t, campaign.KindVaccination, 3)
	studentID := uuid.New()

	r, err := f.svc.Register(ctx, cp.ID, studentID)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if len(r.Doses) != 3 {
		t.Errorf("expected 3 pending doses, got %d", len(r.Doses))
	}
	if r.ConsentStatus != ConsentUnset {
		t.Errorf("expected UNSET consent, got %s", r.ConsentStatus)
	}

	if _, err := f.svc.Register(ctx, cp.ID, studentID); !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("expected ErrAlreadyRegistered, got %v", err)
	}
}

func TestRegisterClosedCampaign(t *testing.T) {
	f := newFixture()
	cp := f.seedCampaign(t, campaign.KindCheckup, 0)
	cp.Status = campaign.StatusCompleted

	if _, err := f.svc.Register(context.Background(), cp.ID, uuid.New()); !errors.Is(err, ErrCampaignClosed) {
		t.Errorf("expected ErrCampaignClosed, got %v", err)
	}
}

func TestResolveRegistrationIDHardFailure(t *testing.T) {
	f := newFixture()
	cp := f.seedCampaign(t, campaign.KindCheckup, 0)

	if _, err := f.svc.ResolveRegistrationID(context.Background(), cp.ID, uuid.New()); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("expected ErrNotRegistered, got %v", err)
	}
}

func TestConsentRoundtrip(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	cp := f.seedCampaign(t, campaign.KindVaccination, 1)
	studentID := uuid.New()
	if _, err := f.svc.Register(ctx, cp.ID, studentID); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	r, err := f.svc.Accept(ctx, cp.ID, studentID, true)
	if err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	if r.ConsentStatus != ConsentAccepted {
		t.Errorf("expected ACCEPTED, got %s", r.ConsentStatus)
	}
	if _, err := f.svc.Accept(ctx, cp.ID, studentID, true); !errors.Is(err, ErrAlreadyAccepted) {
		t.Errorf("expected ErrAlreadyAccepted, got %v", err)
	}
	if _, err := f.svc.Refuse(ctx, cp.ID, studentID, "changed mind"); !errors.Is(err, ErrConsentDecided) {
		t.Errorf("expected ErrConsentDecided, got %v", err)
	}
}

func TestConsentKindMismatch(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	cp := f.seedCampaign(t, campaign.KindCheckup, 0)
	studentID := uuid.New()
	if _, err := f.svc.Register(ctx, cp.ID, studentID); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := f.svc.Accept(ctx, cp.ID, studentID, true); !errors.Is(err, ErrKindMismatch) {
		t.Errorf("expected ErrKindMismatch, got %v", err)
	}
}

func TestSubmitCheckupFlow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	cp := f.seedCampaign(t, campaign.KindCheckup, 0)
	examA := &campaign.SpecialistExam{CampaignID: cp.ID, Name: "Ophthalmology"}
	examB := &campaign.SpecialistExam{CampaignID: cp.ID, Name: "Dentistry"}
	for _, ex := range []*campaign.SpecialistExam{examA, examB} {
		if err := f.exams.Create(ctx, ex); err != nil {
			t.Fatalf("seed exam: %v", err)
		}
	}
	studentID := uuid.New()
	if _, err := f.svc.Register(ctx, cp.ID, studentID); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// empty reason is blocked before anything is stored
	if _, err := f.svc.SubmitCheckup(ctx, cp.ID, studentID, "", []uuid.UUID{examA.ID}); !errors.Is(err, ErrReasonRequired) {
		t.Errorf("expected ErrReasonRequired, got %v", err)
	}
	r, err := f.svc.Get(ctx, mustResolve(t, f, cp.ID, studentID))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if r.Status != StatusDrafted || len(r.Exams) != 0 {
		t.Error("blocked submit must leave the registration untouched")
	}

	r, err = f.svc.SubmitCheckup(ctx, cp.ID, studentID, "annual checkup", []uuid.UUID{examA.ID, examB.ID})
	if err != nil {
		t.Fatalf("SubmitCheckup failed: %v", err)
	}
	if r.Status != StatusSubmitted || len(r.Exams) != 2 {
		t.Errorf("expected SUBMITTED with 2 exams, got %s with %d", r.Status, len(r.Exams))
	}

	// selection must come from the campaign's offering
	other := f.seedCampaign(t, campaign.KindCheckup, 0)
	foreign := &campaign.SpecialistExam{CampaignID: other.ID, Name: "Cardiology"}
	if err := f.exams.Create(ctx, foreign); err != nil {
		t.Fatalf("seed exam: %v", err)
	}
	studentID2 := uuid.New()
	if _, err := f.svc.Register(ctx, cp.ID, studentID2); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := f.svc.SubmitCheckup(ctx, cp.ID, studentID2, "checkup", []uuid.UUID{foreign.ID}); !errors.Is(err, ErrExamNotOffered) {
		t.Errorf("expected ErrExamNotOffered, got %v", err)
	}
}

func mustResolve(t *testing.T, f *fixture, campaignID, studentID uuid.UUID) uuid.UUID {
	t.Helper()
	id, err := f.svc.ResolveRegistrationID(context.Background(), campaignID, studentID)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	return id
}

func TestMarkDoseDoneGates(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	cp := f.seedCampaign(t, campaign.KindVaccination, 2)
	studentID := uuid.New()
	if _, err := f.svc.Register(ctx, cp.ID, studentID); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	regID := mustResolve(t, f, cp.ID, studentID)

	// consent not yet accepted
	if _, err := f.svc.MarkDoseDone(ctx, regID, 1); !errors.Is(err, ErrConsentNotAccepted) {
		t.Errorf("expected ErrConsentNotAccepted, got %v", err)
	}

	if _, err := f.svc.Accept(ctx, cp.ID, studentID, true); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	dose, err := f.svc.MarkDoseDone(ctx, regID, 1)
	if err != nil {
		t.Fatalf("MarkDoseDone failed: %v", err)
	}
	if !dose.Administered {
		t.Error("dose not administered")
	}
	if _, err := f.svc.MarkDoseDone(ctx, regID, 1); !errors.Is(err, ErrDoseAdministered) {
		t.Errorf("expected ErrDoseAdministered, got %v", err)
	}

	// closing the campaign locks the remaining dose
	cp.Status = campaign.StatusCompleted
	if _, err := f.svc.MarkDoseDone(ctx, regID, 2); !errors.Is(err, ErrCampaignClosed) {
		t.Errorf("expected ErrCampaignClosed, got %v", err)
	}
}

func TestMarkDoseDoneFailedPersistDoesNotStick(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	cp := f.seedCampaign(t, campaign.KindVaccination, 1)
	studentID := uuid.New()
	if _, err := f.svc.Register(ctx, cp.ID, studentID); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	regID := mustResolve(t, f, cp.ID, studentID)
	if _, err := f.svc.Accept(ctx, cp.ID, studentID, true); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}

	f.regs.doseErr = fmt.Errorf("connection reset")
	if _, err := f.svc.MarkDoseDone(ctx, regID, 1); err == nil {
		t.Fatal("expected persistence error")
	}
	f.regs.doseErr = nil

	// the failed mark must be retryable, not latched as a duplicate
	if _, err := f.svc.MarkDoseDone(ctx, regID, 1); err != nil {
		t.Fatalf("retry after failure should succeed, got %v", err)
	}
}

func TestMarkExamDoneFailedPersistDoesNotStick(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	cp := f.seedCampaign(t, campaign.KindCheckup, 0)
	exam := &campaign.SpecialistExam{CampaignID: cp.ID, Name: "Ophthalmology"}
	if err := f.exams.Create(ctx, exam); err != nil {
		t.Fatalf("seed exam: %v", err)
	}
	studentID := uuid.New()
	if _, err := f.svc.Register(ctx, cp.ID, studentID); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := f.svc.SubmitCheckup(ctx, cp.ID, studentID, "checkup", []uuid.UUID{exam.ID}); err != nil {
		t.Fatalf("SubmitCheckup failed: %v", err)
	}
	regID := mustResolve(t, f, cp.ID, studentID)

	f.regs.examErr = fmt.Errorf("connection reset")
	if _, err := f.svc.MarkExamDone(ctx, regID, exam.ID, "normal", ""); err == nil {
		t.Fatal("expected persistence error")
	}
	f.regs.examErr = nil

	r, err := f.svc.Get(ctx, regID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if r.Exams[0].AttachStatus != AttachWaiting || r.Exams[0].Result != nil {
		t.Error("failed mark must leave the exam WAITING with no outcome")
	}
	if _, err := f.svc.MarkExamDone(ctx, regID, exam.ID, "normal", ""); err != nil {
		t.Fatalf("retry after failure should succeed, got %v", err)
	}
}

func TestSubmitCheckupWritesShareTransaction(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	cp := f.seedCampaign(t, campaign.KindCheckup, 0)
	exam := &campaign.SpecialistExam{CampaignID: cp.ID, Name: "Ophthalmology"}
	if err := f.exams.Create(ctx, exam); err != nil {
		t.Fatalf("seed exam: %v", err)
	}
	studentID := uuid.New()
	if _, err := f.svc.Register(ctx, cp.ID, studentID); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	var calls int
	var aborted bool
	f.svc.tx = func(ctx context.Context, fn func(ctx context.Context) error) error {
		calls++
		if err := fn(ctx); err != nil {
			aborted = true
			return err
		}
		return nil
	}

	f.regs.updateErr = fmt.Errorf("connection reset")
	if _, err := f.svc.SubmitCheckup(ctx, cp.ID, studentID, "checkup", []uuid.UUID{exam.ID}); err == nil {
		t.Fatal("expected persistence error")
	}
	if calls != 1 {
		t.Fatalf("expected one transaction around both writes, got %d", calls)
	}
	if !aborted {
		t.Error("failed status flip must abort the transaction holding the exam rows")
	}
}

func TestInflightGuard(t *testing.T) {
	s := NewInflightSet()
	a, b := uuid.New(), uuid.New()

	if !s.Begin(a) {
		t.Fatal("first Begin should claim the key")
	}
	if s.Begin(a) {
		t.Error("second Begin on the same key should be rejected")
	}
	if !s.Begin(b) {
		t.Error("a different key must not be blocked")
	}
	s.End(a)
	if !s.Begin(a) {
		t.Error("Begin after End should claim the key again")
	}
}

func TestRosterSubmittedFirstAndLocked(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	cp := f.seedCampaign(t, campaign.KindCheckup, 0)
	exam := &campaign.SpecialistExam{CampaignID: cp.ID, Name: "Ophthalmology"}
	if err := f.exams.Create(ctx, exam); err != nil {
		t.Fatalf("seed exam: %v", err)
	}

	drafted := uuid.New()
	submitted := uuid.New()
	drafted2 := uuid.New()
	for _, sid := range []uuid.UUID{drafted, submitted, drafted2} {
		if _, err := f.svc.Register(ctx, cp.ID, sid); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}
	if _, err := f.svc.SubmitCheckup(ctx, cp.ID, submitted, "checkup", []uuid.UUID{exam.ID}); err != nil {
		t.Fatalf("SubmitCheckup failed: %v", err)
	}

	rows, total, err := f.svc.Roster(ctx, cp.ID, 20, 0)
	if err != nil {
		t.Fatalf("Roster failed: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected 3 rows, got %d", total)
	}
	if rows[0].StudentID != submitted {
		t.Error("SUBMITTED registration should sort first")
	}
	// stable among the rest: drafted before drafted2
	if rows[1].StudentID != drafted || rows[2].StudentID != drafted2 {
		t.Error("non-submitted rows should keep their original order")
	}
	for _, row := range rows {
		if row.Locked {
			t.Error("open campaign rows must not be locked")
		}
	}

	cp.Status = campaign.StatusCompleted
	rows, _, err = f.svc.Roster(ctx, cp.ID, 20, 0)
	if err != nil {
		t.Fatalf("Roster failed: %v", err)
	}
	for _, row := range rows {
		if row.Summary.Status != Complete && !row.Locked {
			t.Error("incomplete rows of a closed campaign should be locked")
		}
	}
}
