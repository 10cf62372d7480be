package registration

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Transition errors. Validation failures block before any state change;
// conflict failures report a transition the current state forbids.
var (
	ErrConsentRequired  = errors.New("explicit consent flag is required")
	ErrReasonRequired   = errors.New("reason is required")
	ErrAlreadyAccepted  = errors.New("registration already accepted")
	ErrAlreadyRefused   = errors.New("registration already refused")
	ErrConsentDecided   = errors.New("consent already decided")
	ErrNoExamsSelected  = errors.New("at least one specialist exam must be selected")
	ErrExamNotOffered   = errors.New("specialist exam is not offered by this campaign")
	ErrNotDrafted       = errors.New("registration must be in DRAFTED status")
	ErrNotSubmitted     = errors.New("registration must be in SUBMITTED status")
	ErrRegistrationDone = errors.New("registration is in a terminal status")
	ErrDoseOutOfRange   = errors.New("dose index out of range")
	ErrDoseAdministered = errors.New("dose already administered")
	ErrExamNotSelected  = errors.New("specialist exam is not selected on this registration")
	ErrExamDone         = errors.New("specialist exam already completed")
)

// The functions below are pure transitions over the registration aggregate.
// They mutate the passed value only when the transition is legal and return
// a typed error otherwise, so callers can persist exactly what changed.

// Accept records guardian consent on a vaccination registration. Re-accepting
// is rejected rather than silently re-applied.
func Accept(r *Registration, consented bool) error {
	switch r.ConsentStatus {
	case ConsentAccepted:
		return ErrAlreadyAccepted
	case ConsentRefused:
		return ErrConsentDecided
	}
	if !consented {
		return ErrConsentRequired
	}
	r.ConsentStatus = ConsentAccepted
	return nil
}

// Refuse records guardian refusal with a mandatory reason.
func Refuse(r *Registration, reason string) error {
	switch r.ConsentStatus {
	case ConsentRefused:
		return ErrAlreadyRefused
	case ConsentAccepted:
		return ErrConsentDecided
	}
	if reason == "" {
		return ErrReasonRequired
	}
	r.ConsentStatus = ConsentRefused
	r.Reason = reason
	return nil
}

// Submit moves a DRAFTED checkup registration to SUBMITTED with the selected
// specialist exams. selected carries the exam IDs left waiting by the
// guardian; offered is the campaign's full exam list.
func Submit(r *Registration, reason string, selected []uuid.UUID, offered map[uuid.UUID]bool) error {
	if r.Status.Terminal() {
		return ErrRegistrationDone
	}
	if r.Status != StatusDrafted {
		return ErrNotDrafted
	}
	if reason == "" {
		return ErrReasonRequired
	}
	if len(selected) == 0 {
		return ErrNoExamsSelected
	}
	seen := make(map[uuid.UUID]bool, len(selected))
	for _, id := range selected {
		if !offered[id] {
			return ErrExamNotOffered
		}
		seen[id] = true
	}

	exams := make([]*ExamAttachment, 0, len(seen))
	for _, id := range selected {
		if !seen[id] {
			continue
		}
		seen[id] = false
		exams = append(exams, &ExamAttachment{
			RegistrationID:   r.ID,
			SpecialistExamID: id,
			AttachStatus:     AttachWaiting,
		})
	}
	r.Status = StatusSubmitted
	r.Reason = reason
	r.Exams = exams
	return nil
}

// Approve moves a SUBMITTED registration to APPROVED.
func Approve(r *Registration) error {
	if r.Status.Terminal() {
		return ErrRegistrationDone
	}
	if r.Status != StatusSubmitted {
		return ErrNotSubmitted
	}
	r.Status = StatusApproved
	return nil
}

// Reject moves a SUBMITTED registration to REJECTED with a reason.
func Reject(r *Registration, reason string) error {
	if r.Status.Terminal() {
		return ErrRegistrationDone
	}
	if r.Status != StatusSubmitted {
		return ErrNotSubmitted
	}
	if reason == "" {
		return ErrReasonRequired
	}
	r.Status = StatusRejected
	r.Reason = reason
	return nil
}

// Cancel moves any non-terminal registration to CANCELLED.
func Cancel(r *Registration) error {
	if r.Status.Terminal() {
		return ErrRegistrationDone
	}
	r.Status = StatusCancelled
	return nil
}

// MarkDoseDone sets the dose at index administered. Administration is
// write-once; a second mark on the same dose is a conflict.
func MarkDoseDone(r *Registration, index int, at time.Time) (*Dose, error) {
	var dose *Dose
	for _, d := range r.Doses {
		if d.DoseIndex == index {
			dose = d
			break
		}
	}
	if dose == nil {
		return nil, ErrDoseOutOfRange
	}
	if dose.Administered {
		return nil, ErrDoseAdministered
	}
	dose.Administered = true
	dose.AdministeredAt = &at
	return dose, nil
}

// MarkExamDone records the outcome of one selected specialist exam.
func MarkExamDone(r *Registration, specialistExamID uuid.UUID, result, diagnosis string) (*ExamAttachment, error) {
	if r.Status.Terminal() {
		return nil, ErrRegistrationDone
	}
	var exam *ExamAttachment
	for _, ex := range r.Exams {
		if ex.SpecialistExamID == specialistExamID {
			exam = ex
			break
		}
	}
	if exam == nil || exam.AttachStatus == AttachCannot {
		return nil, ErrExamNotSelected
	}
	if exam.AttachStatus == AttachDone {
		return nil, ErrExamDone
	}
	exam.AttachStatus = AttachDone
	exam.Result = &result
	exam.Diagnosis = &diagnosis
	return exam, nil
}
