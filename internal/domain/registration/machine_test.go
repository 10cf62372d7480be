package registration

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/schoolmed/schoolmed/internal/domain/campaign"
)

func newVaccinationReg(doses int) *Registration {
	r := &Registration{
		ID:            uuid.New(),
		CampaignID:    uuid.New(),
		StudentID:     uuid.New(),
		Kind:          campaign.KindVaccination,
		ConsentStatus: ConsentUnset,
		Status:        StatusDrafted,
	}
	for i := 1; i <= doses; i++ {
		r.Doses = append(r.Doses, &Dose{ID: uuid.New(), RegistrationID: r.ID, DoseIndex: i})
	}
	return r
}

func newCheckupReg() *Registration {
	return &Registration{
		ID:            uuid.New(),
		CampaignID:    uuid.New(),
		StudentID:     uuid.New(),
		Kind:          campaign.KindCheckup,
		ConsentStatus: ConsentUnset,
		Status:        StatusDrafted,
	}
}

func TestAcceptRequiresConsentFlag(t *testing.T) {
	r := newVaccinationReg(1)
	if err := Accept(r, false); !errors.Is(err, ErrConsentRequired) {
		t.Errorf("expected ErrConsentRequired, got %v", err)
	}
	if r.ConsentStatus != ConsentUnset {
		t.Errorf("failed accept must not change state, got %s", r.ConsentStatus)
	}
	if err := Accept(r, true); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	if r.ConsentStatus != ConsentAccepted {
		t.Errorf("expected ACCEPTED, got %s", r.ConsentStatus)
	}
}

func TestAcceptIdempotencyGuard(t *testing.T) {
	r := newVaccinationReg(1)
	if err := Accept(r, true); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	if err := Accept(r, true); !errors.Is(err, ErrAlreadyAccepted) {
		t.Errorf("expected ErrAlreadyAccepted, got %v", err)
	}
}

func TestRefuseThenAcceptRejected(t *testing.T) {
	r := newVaccinationReg(1)

	if err := Refuse(r, ""); !errors.Is(err, ErrReasonRequired) {
		t.Errorf("expected ErrReasonRequired, got %v", err)
	}
	if r.ConsentStatus != ConsentUnset {
		t.Errorf("failed refuse must not change state, got %s", r.ConsentStatus)
	}

	if err := Refuse(r, "allergy"); err != nil {
		t.Fatalf("Refuse failed: %v", err)
	}
	if r.ConsentStatus != ConsentRefused || r.Reason != "allergy" {
		t.Errorf("expected REFUSED with reason, got %s %q", r.ConsentStatus, r.Reason)
	}

	// refusal is terminal for consent
	if err := Accept(r, true); !errors.Is(err, ErrConsentDecided) {
		t.Errorf("expected ErrConsentDecided, got %v", err)
	}
	if err := Refuse(r, "again"); !errors.Is(err, ErrAlreadyRefused) {
		t.Errorf("expected ErrAlreadyRefused, got %v", err)
	}
}

func TestSubmitValidation(t *testing.T) {
	examA, examB := uuid.New(), uuid.New()
	offered := map[uuid.UUID]bool{examA: true, examB: true}

	r := newCheckupReg()
	err := Submit(r, "", []uuid.UUID{examA, examB}, offered)
	if !errors.Is(err, ErrReasonRequired) {
		t.Errorf("expected ErrReasonRequired, got %v", err)
	}
	if r.Status != StatusDrafted || len(r.Exams) != 0 {
		t.Error("blocked submit must not change state")
	}

	err = Submit(r, "annual checkup", nil, offered)
	if !errors.Is(err, ErrNoExamsSelected) {
		t.Errorf("expected ErrNoExamsSelected, got %v", err)
	}

	err = Submit(r, "annual checkup", []uuid.UUID{uuid.New()}, offered)
	if !errors.Is(err, ErrExamNotOffered) {
		t.Errorf("expected ErrExamNotOffered, got %v", err)
	}
}

func TestSubmitSetsWaitingExams(t *testing.T) {
	examA, examB := uuid.New(), uuid.New()
	offered := map[uuid.UUID]bool{examA: true, examB: true}

	r := newCheckupReg()
	if err := Submit(r, "annual checkup", []uuid.UUID{examA, examB}, offered); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if r.Status != StatusSubmitted {
		t.Errorf("expected SUBMITTED, got %s", r.Status)
	}
	if len(r.Exams) != 2 {
		t.Fatalf("expected 2 attachments, got %d", len(r.Exams))
	}
	for _, ex := range r.Exams {
		if ex.AttachStatus != AttachWaiting {
			t.Errorf("expected WAITING, got %s", ex.AttachStatus)
		}
	}

	if err := Submit(r, "again", []uuid.UUID{examA}, offered); !errors.Is(err, ErrNotDrafted) {
		t.Errorf("expected ErrNotDrafted on resubmit, got %v", err)
	}
}

func TestSubmitDeduplicatesSelection(t *testing.T) {
	examA := uuid.New()
	offered := map[uuid.UUID]bool{examA: true}

	r := newCheckupReg()
	if err := Submit(r, "annual checkup", []uuid.UUID{examA, examA}, offered); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if len(r.Exams) != 1 {
		t.Errorf("expected 1 attachment for duplicated selection, got %d", len(r.Exams))
	}
}

func TestReviewTransitions(t *testing.T) {
	examA := uuid.New()
	offered := map[uuid.UUID]bool{examA: true}

	r := newCheckupReg()
	if err := Approve(r); !errors.Is(err, ErrNotSubmitted) {
		t.Errorf("expected ErrNotSubmitted approving a draft, got %v", err)
	}
	if err := Submit(r, "annual checkup", []uuid.UUID{examA}, offered); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if err := Approve(r); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if r.Status != StatusApproved {
		t.Errorf("expected APPROVED, got %s", r.Status)
	}

	rejected := newCheckupReg()
	if err := Submit(rejected, "annual checkup", []uuid.UUID{examA}, offered); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if err := Reject(rejected, ""); !errors.Is(err, ErrReasonRequired) {
		t.Errorf("expected ErrReasonRequired, got %v", err)
	}
	if err := Reject(rejected, "incomplete records"); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if !rejected.Status.Terminal() {
		t.Error("rejected registration should be terminal")
	}
	if err := Cancel(rejected); !errors.Is(err, ErrRegistrationDone) {
		t.Errorf("expected ErrRegistrationDone cancelling a rejected registration, got %v", err)
	}
}

func TestMarkDoseDoneWriteOnce(t *testing.T) {
	r := newVaccinationReg(3)
	at := time.Now()

	dose, err := MarkDoseDone(r, 2, at)
	if err != nil {
		t.Fatalf("MarkDoseDone failed: %v", err)
	}
	if !dose.Administered || dose.AdministeredAt == nil {
		t.Error("dose not marked administered")
	}

	if _, err := MarkDoseDone(r, 2, at); !errors.Is(err, ErrDoseAdministered) {
		t.Errorf("expected ErrDoseAdministered, got %v", err)
	}
	if _, err := MarkDoseDone(r, 9, at); !errors.Is(err, ErrDoseOutOfRange) {
		t.Errorf("expected ErrDoseOutOfRange, got %v", err)
	}
}

func TestCompletedCountNeverDecreases(t *testing.T) {
	r := newVaccinationReg(3)
	at := time.Now()

	count := func() int {
		n := 0
		for _, d := range r.Doses {
			if d.Administered {
				n++
			}
		}
		return n
	}

	prev := count()
	for i := 1; i <= 3; i++ {
		if _, err := MarkDoseDone(r, i, at); err != nil {
			t.Fatalf("MarkDoseDone(%d) failed: %v", i, err)
		}
		if count() < prev {
			t.Fatal("completed count decreased")
		}
		prev = count()
	}
	// repeat marks and every other transition leave terminal doses alone
	for i := 1; i <= 3; i++ {
		MarkDoseDone(r, i, at)
	}
	Cancel(r)
	if count() != 3 {
		t.Errorf("expected 3 administered doses, got %d", count())
	}
}

func TestMarkExamDoneTerminalRegistration(t *testing.T) {
	examA := uuid.New()
	offered := map[uuid.UUID]bool{examA: true}

	r := newCheckupReg()
	if err := Submit(r, "annual checkup", []uuid.UUID{examA}, offered); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if err := Cancel(r); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if _, err := MarkExamDone(r, examA, "ok", ""); !errors.Is(err, ErrRegistrationDone) {
		t.Errorf("expected ErrRegistrationDone, got %v", err)
	}
}

func TestMarkExamDoneWriteOnce(t *testing.T) {
	examA := uuid.New()
	offered := map[uuid.UUID]bool{examA: true}

	r := newCheckupReg()
	if err := Submit(r, "annual checkup", []uuid.UUID{examA}, offered); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	ex, err := MarkExamDone(r, examA, "normal", "no findings")
	if err != nil {
		t.Fatalf("MarkExamDone failed: %v", err)
	}
	if ex.AttachStatus != AttachDone {
		t.Errorf("expected DONE, got %s", ex.AttachStatus)
	}
	if _, err := MarkExamDone(r, examA, "again", ""); !errors.Is(err, ErrExamDone) {
		t.Errorf("expected ErrExamDone, got %v", err)
	}
	if _, err := MarkExamDone(r, uuid.New(), "x", ""); !errors.Is(err, ErrExamNotSelected) {
		t.Errorf("expected ErrExamNotSelected, got %v", err)
	}
}
