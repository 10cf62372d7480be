package registration

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/schoolmed/schoolmed/internal/domain/campaign"
)

var (
	// ErrNotRegistered means (campaign, student) resolves to no registration.
	// Callers must treat this as a hard failure, not create one implicitly.
	ErrNotRegistered = errors.New("student is not registered for this campaign")

	ErrAlreadyRegistered  = errors.New("student is already registered for this campaign")
	ErrCampaignClosed     = errors.New("campaign is closed")
	ErrConsentNotAccepted = errors.New("guardian consent has not been accepted")
	ErrMarkInFlight       = errors.New("a mark request for this item is already in flight")
	ErrKindMismatch       = errors.New("operation does not apply to this campaign kind")
)

// TxFunc runs fn inside one transaction carried through the context, so
// every repository call in fn shares it.
type TxFunc func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	regs      Repository
	campaigns campaign.Repository
	exams     campaign.ExamRepository
	tx        TxFunc
	inflight  *InflightSet
	now       func() time.Time
}

func NewService(regs Repository, campaigns campaign.Repository, exams campaign.ExamRepository, tx TxFunc) *Service {
	return &Service{
		regs:      regs,
		campaigns: campaigns,
		exams:     exams,
		tx:        tx,
		inflight:  NewInflightSet(),
		now:       time.Now,
	}
}

// Register enrolls a student into an open campaign. Vaccination
// registrations are seeded with one pending dose per configured dose;
// checkup registrations start DRAFTED with no exams selected.
func (s *Service) Register(ctx context.Context, campaignID, studentID uuid.UUID) (*Registration, error) {
	cp, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if cp.Status.Terminal() {
		return nil, ErrCampaignClosed
	}
	if _, err := s.regs.GetByCampaignAndStudent(ctx, campaignID, studentID); err == nil {
		return nil, ErrAlreadyRegistered
	}

	r := &Registration{
		CampaignID:    campaignID,
		StudentID:     studentID,
		Kind:          cp.Kind,
		ConsentStatus: ConsentUnset,
		Status:        StatusDrafted,
	}
	if cp.Kind == campaign.KindVaccination {
		for i := 1; i <= cp.DoseQuantity; i++ {
			r.Doses = append(r.Doses, &Dose{DoseIndex: i})
		}
	}
	if err := s.regs.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// ResolveRegistrationID maps (campaign, student) to the registration
// identity. Absence is a hard failure.
func (s *Service) ResolveRegistrationID(ctx context.Context, campaignID, studentID uuid.UUID) (uuid.UUID, error) {
	r, err := s.regs.GetByCampaignAndStudent(ctx, campaignID, studentID)
	if err != nil {
		return uuid.Nil, ErrNotRegistered
	}
	return r.ID, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Registration, error) {
	return s.regs.GetByID(ctx, id)
}

func (s *Service) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*Registration, error) {
	return s.regs.ListByStudent(ctx, studentID)
}

// Accept records guardian consent on a vaccination registration.
func (s *Service) Accept(ctx context.Context, campaignID, studentID uuid.UUID, consented bool) (*Registration, error) {
	r, err := s.resolveVaccination(ctx, campaignID, studentID)
	if err != nil {
		return nil, err
	}
	if err := Accept(r, consented); err != nil {
		return nil, err
	}
	if err := s.regs.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Refuse records guardian refusal with a mandatory reason.
func (s *Service) Refuse(ctx context.Context, campaignID, studentID uuid.UUID, reason string) (*Registration, error) {
	r, err := s.resolveVaccination(ctx, campaignID, studentID)
	if err != nil {
		return nil, err
	}
	if err := Refuse(r, reason); err != nil {
		return nil, err
	}
	if err := s.regs.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) resolveVaccination(ctx context.Context, campaignID, studentID uuid.UUID) (*Registration, error) {
	r, err := s.regs.GetByCampaignAndStudent(ctx, campaignID, studentID)
	if err != nil {
		return nil, ErrNotRegistered
	}
	if r.Kind != campaign.KindVaccination {
		return nil, ErrKindMismatch
	}
	return r, nil
}

// SubmitCheckup submits a guardian's specialist-exam selection for a checkup
// registration. Selected exams must be drawn from the campaign's offering.
func (s *Service) SubmitCheckup(ctx context.Context, campaignID, studentID uuid.UUID, reason string, examIDs []uuid.UUID) (*Registration, error) {
	r, err := s.regs.GetByCampaignAndStudent(ctx, campaignID, studentID)
	if err != nil {
		return nil, ErrNotRegistered
	}
	if r.Kind != campaign.KindCheckup {
		return nil, ErrKindMismatch
	}
	cp, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if cp.Status.Terminal() {
		return nil, ErrCampaignClosed
	}
	offeredList, err := s.exams.ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	offered := make(map[uuid.UUID]bool, len(offeredList))
	for _, ex := range offeredList {
		offered[ex.ID] = true
	}
	if err := Submit(r, reason, examIDs, offered); err != nil {
		return nil, err
	}
	// The exam rows and the status flip land together or not at all.
	err = s.tx(ctx, func(ctx context.Context) error {
		if err := s.regs.ReplaceExams(ctx, r.ID, r.Exams); err != nil {
			return err
		}
		return s.regs.Update(ctx, r)
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Approve, Reject and Cancel are nurse/admin review actions.

func (s *Service) Approve(ctx context.Context, id uuid.UUID) (*Registration, error) {
	return s.review(ctx, id, func(r *Registration) error { return Approve(r) })
}

func (s *Service) Reject(ctx context.Context, id uuid.UUID, reason string) (*Registration, error) {
	return s.review(ctx, id, func(r *Registration) error { return Reject(r, reason) })
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Registration, error) {
	return s.review(ctx, id, func(r *Registration) error { return Cancel(r) })
}

func (s *Service) review(ctx context.Context, id uuid.UUID, fn func(*Registration) error) (*Registration, error) {
	r, err := s.regs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(r); err != nil {
		return nil, err
	}
	if err := s.regs.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// MarkDoseDone records administration of one vaccine dose. The action is
// gated on accepted consent and an open campaign, serialized per dose, and
// persisted before the change is considered applied.
func (s *Service) MarkDoseDone(ctx context.Context, registrationID uuid.UUID, doseIndex int) (*Dose, error) {
	r, err := s.regs.GetByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if r.Kind != campaign.KindVaccination {
		return nil, ErrKindMismatch
	}
	if r.ConsentStatus != ConsentAccepted {
		return nil, ErrConsentNotAccepted
	}
	if err := s.requireOpenCampaign(ctx, r.CampaignID); err != nil {
		return nil, err
	}

	var target *Dose
	for _, d := range r.Doses {
		if d.DoseIndex == doseIndex {
			target = d
			break
		}
	}
	if target == nil {
		return nil, ErrDoseOutOfRange
	}
	if !s.inflight.Begin(target.ID) {
		return nil, ErrMarkInFlight
	}
	defer s.inflight.End(target.ID)

	dose, err := MarkDoseDone(r, doseIndex, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.regs.SaveDose(ctx, dose); err != nil {
		// Not stored means not applied: restore the pending state so a
		// retry is not rejected as a duplicate.
		dose.Administered = false
		dose.AdministeredAt = nil
		return nil, fmt.Errorf("persist dose: %w", err)
	}
	return dose, nil
}

// MarkExamDone records the outcome of one selected specialist exam.
func (s *Service) MarkExamDone(ctx context.Context, registrationID, specialistExamID uuid.UUID, result, diagnosis string) (*ExamAttachment, error) {
	r, err := s.regs.GetByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if r.Kind != campaign.KindCheckup {
		return nil, ErrKindMismatch
	}
	if err := s.requireOpenCampaign(ctx, r.CampaignID); err != nil {
		return nil, err
	}

	var target *ExamAttachment
	for _, ex := range r.Exams {
		if ex.SpecialistExamID == specialistExamID {
			target = ex
			break
		}
	}
	if target == nil {
		return nil, ErrExamNotSelected
	}
	if !s.inflight.Begin(target.ID) {
		return nil, ErrMarkInFlight
	}
	defer s.inflight.End(target.ID)

	exam, err := MarkExamDone(r, specialistExamID, result, diagnosis)
	if err != nil {
		return nil, err
	}
	if err := s.regs.SaveExam(ctx, exam); err != nil {
		// Same failure rule as doses: the exam stays WAITING until the
		// outcome is stored.
		exam.AttachStatus = AttachWaiting
		exam.Result = nil
		exam.Diagnosis = nil
		return nil, fmt.Errorf("persist exam: %w", err)
	}
	return exam, nil
}

func (s *Service) requireOpenCampaign(ctx context.Context, campaignID uuid.UUID) error {
	cp, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return err
	}
	if cp.Status.Terminal() {
		return ErrCampaignClosed
	}
	return nil
}

// RosterRow is one roster entry with its derived completion summary. Locked
// flags a row whose campaign has closed while sub-units were still pending,
// so the caller can render it as not administered rather than actionable.
type RosterRow struct {
	*Registration
	Summary CompletionSummary `json:"summary"`
	Locked  bool              `json:"locked"`
}

// Roster lists a campaign's registrations with SUBMITTED rows first (they
// need actor attention); the remaining order is stable.
func (s *Service) Roster(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]*RosterRow, int, error) {
	cp, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, 0, err
	}
	regs, total, err := s.regs.ListByCampaign(ctx, campaignID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	rows := make([]*RosterRow, 0, len(regs))
	for _, r := range regs {
		summary := r.Completion(cp.DoseQuantity)
		rows = append(rows, &RosterRow{
			Registration: r,
			Summary:      summary,
			Locked:       cp.Status.Terminal() && summary.Status != Complete,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Status == StatusSubmitted && rows[j].Status != StatusSubmitted
	})
	return rows, total, nil
}
