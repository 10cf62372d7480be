package registration

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/schoolmed/schoolmed/internal/platform/auth"
	"github.com/schoolmed/schoolmed/internal/platform/session"
	"github.com/schoolmed/schoolmed/pkg/pagination"
)

type Handler struct {
	svc        *Service
	selections session.SelectionStore
}

func NewHandler(svc *Service, selections session.SelectionStore) *Handler {
	return &Handler{svc: svc, selections: selections}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	staff := api.Group("", auth.RequireRole("admin", "nurse"))
	staff.POST("/campaigns/:id/registrations", h.Register)
	staff.GET("/campaigns/:id/roster", h.Roster)
	staff.POST("/registrations/:id/approve", h.Approve)
	staff.POST("/registrations/:id/reject", h.Reject)
	staff.POST("/registrations/:id/cancel", h.Cancel)
	staff.POST("/registrations/:id/doses/:index/done", h.MarkDoseDone)
	staff.POST("/registrations/:id/exams/:examID/done", h.MarkExamDone)

	any := api.Group("", auth.RequireRole("admin", "nurse", "guardian"))
	any.GET("/registrations/:id", h.Get)
	any.GET("/campaigns/:id/registration", h.Resolve)
	any.GET("/students/:id/registrations", h.ListByStudent)

	guardian := api.Group("", auth.RequireRole("admin", "guardian"))
	guardian.POST("/campaigns/:id/consent/accept", h.Accept)
	guardian.POST("/campaigns/:id/consent/refuse", h.Refuse)
	guardian.POST("/campaigns/:id/submit", h.Submit)
}

// studentID resolves the acting student: an explicit id in the request wins,
// otherwise the caller's currently selected child is used.
func (h *Handler) studentID(ctx context.Context, explicit string) (uuid.UUID, error) {
	if explicit != "" {
		return uuid.Parse(explicit)
	}
	return h.selections.SelectedStudent(ctx, auth.UserIDFromContext(ctx))
}

func (h *Handler) Register(c echo.Context) error {
	campaignID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		StudentID string `json:"student_id"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	studentID, err := uuid.Parse(body.StudentID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid student_id")
	}
	r, err := h.svc.Register(c.Request().Context(), campaignID, studentID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	r, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "registration not found")
	}
	return c.JSON(http.StatusOK, r)
}

// Resolve maps (campaign, student) to the registration id.
func (h *Handler) Resolve(c echo.Context) error {
	campaignID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	studentID, err := h.studentID(ctx, c.QueryParam("student_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "no student selected")
	}
	id, err := h.svc.ResolveRegistrationID(ctx, campaignID, studentID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"registration_id": id.String()})
}

func (h *Handler) ListByStudent(c echo.Context) error {
	studentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	regs, err := h.svc.ListByStudent(c.Request().Context(), studentID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, regs)
}

func (h *Handler) Accept(c echo.Context) error {
	campaignID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		StudentID string `json:"student_id"`
		Consented bool   `json:"consented"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	studentID, err := h.studentID(ctx, body.StudentID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "no student selected")
	}
	r, err := h.svc.Accept(ctx, campaignID, studentID, body.Consented)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) Refuse(c echo.Context) error {
	campaignID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		StudentID string `json:"student_id"`
		Reason    string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	studentID, err := h.studentID(ctx, body.StudentID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "no student selected")
	}
	r, err := h.svc.Refuse(ctx, campaignID, studentID, body.Reason)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) Submit(c echo.Context) error {
	campaignID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		StudentID string   `json:"student_id"`
		Reason    string   `json:"reason"`
		ExamIDs   []string `json:"exam_ids"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	studentID, err := h.studentID(ctx, body.StudentID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "no student selected")
	}
	examIDs := make([]uuid.UUID, 0, len(body.ExamIDs))
	for _, raw := range body.ExamIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid exam id")
		}
		examIDs = append(examIDs, id)
	}
	r, err := h.svc.SubmitCheckup(ctx, campaignID, studentID, body.Reason, examIDs)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) Approve(c echo.Context) error {
	return h.review(c, func(ctx context.Context, id uuid.UUID) (*Registration, error) {
		return h.svc.Approve(ctx, id)
	})
}

func (h *Handler) Reject(c echo.Context) error {
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return h.review(c, func(ctx context.Context, id uuid.UUID) (*Registration, error) {
		return h.svc.Reject(ctx, id, body.Reason)
	})
}

func (h *Handler) Cancel(c echo.Context) error {
	return h.review(c, func(ctx context.Context, id uuid.UUID) (*Registration, error) {
		return h.svc.Cancel(ctx, id)
	})
}

func (h *Handler) review(c echo.Context, fn func(ctx context.Context, id uuid.UUID) (*Registration, error)) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	r, err := fn(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) MarkDoseDone(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var index int
	if err := echo.PathParamsBinder(c).Int("index", &index).BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid dose index")
	}
	dose, err := h.svc.MarkDoseDone(c.Request().Context(), id, index)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, dose)
}

func (h *Handler) MarkExamDone(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	examID, err := uuid.Parse(c.Param("examID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid exam id")
	}
	var body struct {
		Result    string `json:"result"`
		Diagnosis string `json:"diagnosis"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	exam, err := h.svc.MarkExamDone(c.Request().Context(), id, examID, body.Result, body.Diagnosis)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, exam)
}

func (h *Handler) Roster(c echo.Context) error {
	campaignID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p := pagination.FromContext(c)
	rows, total, err := h.svc.Roster(c.Request().Context(), campaignID, p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(rows, total, p.Limit, p.Offset))
}

// mapError translates service errors into HTTP statuses: validation to 400,
// state conflicts to 409, unresolved lookups to 404.
func mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotRegistered):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrConsentRequired),
		errors.Is(err, ErrReasonRequired),
		errors.Is(err, ErrNoExamsSelected),
		errors.Is(err, ErrExamNotOffered),
		errors.Is(err, ErrDoseOutOfRange):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrAlreadyAccepted),
		errors.Is(err, ErrAlreadyRefused),
		errors.Is(err, ErrConsentDecided),
		errors.Is(err, ErrAlreadyRegistered),
		errors.Is(err, ErrNotDrafted),
		errors.Is(err, ErrNotSubmitted),
		errors.Is(err, ErrRegistrationDone),
		errors.Is(err, ErrDoseAdministered),
		errors.Is(err, ErrExamNotSelected),
		errors.Is(err, ErrExamDone),
		errors.Is(err, ErrCampaignClosed),
		errors.Is(err, ErrConsentNotAccepted),
		errors.Is(err, ErrMarkInFlight),
		errors.Is(err, ErrKindMismatch):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
