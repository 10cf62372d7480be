package registration

// CompletionState is the single display status derived from a registration's
// sub-units.
type CompletionState string

const (
	NotStarted CompletionState = "NOT_STARTED"
	InProgress CompletionState = "IN_PROGRESS"
	Complete   CompletionState = "COMPLETE"
)

// CompletionSummary is derived per registration and never persisted.
type CompletionSummary struct {
	CompletedCount   int             `json:"completed_count"`
	RequiredCount    int             `json:"required_count"`
	Status           CompletionState `json:"status"`
	ProgressFraction float64         `json:"progress_fraction"`
}

// Summarize classifies completed against required sub-units. The completed
// count is clamped to required when computing the fraction since server data
// may transiently report more completed than required during data entry.
// required == 0 yields NOT_STARTED with fraction 0.
func Summarize(completed, required int) CompletionSummary {
	s := CompletionSummary{CompletedCount: completed, RequiredCount: required}
	if required <= 0 {
		s.Status = NotStarted
		return s
	}
	clamped := completed
	if clamped < 0 {
		clamped = 0
	}
	if clamped > required {
		clamped = required
	}
	s.ProgressFraction = float64(clamped) / float64(required)
	switch {
	case clamped == 0:
		s.Status = NotStarted
	case clamped < required:
		s.Status = InProgress
	default:
		s.Status = Complete
	}
	return s
}

// Completion derives the summary for a registration. For vaccinations the
// required count is the campaign's configured dose quantity; for checkups it
// is the number of selected exams.
func (r *Registration) Completion(doseQuantity int) CompletionSummary {
	if len(r.Exams) > 0 {
		completed, required := 0, 0
		for _, ex := range r.Exams {
			if ex.AttachStatus == AttachCannot {
				continue
			}
			required++
			if ex.AttachStatus == AttachDone {
				completed++
			}
		}
		return Summarize(completed, required)
	}

	completed := 0
	for _, d := range r.Doses {
		if d.Administered {
			completed++
		}
	}
	return Summarize(completed, doseQuantity)
}
