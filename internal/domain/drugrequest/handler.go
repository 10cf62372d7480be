package drugrequest

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/schoolmed/schoolmed/internal/platform/auth"
	"github.com/schoolmed/schoolmed/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	guardian := api.Group("", auth.RequireRole("admin", "guardian"))
	guardian.POST("/drug-requests", h.Create)
	guardian.POST("/drug-requests/:id/cancel", h.Cancel)

	staff := api.Group("", auth.RequireRole("admin", "nurse"))
	staff.GET("/drug-requests", h.List)
	staff.POST("/drug-requests/:id/approve", h.Approve)
	staff.POST("/drug-requests/:id/reject", h.Reject)
	staff.POST("/drug-requests/:id/administered", h.MarkAdministered)

	any := api.Group("", auth.RequireRole("admin", "nurse", "guardian"))
	any.GET("/drug-requests/:id", h.Get)
	any.GET("/students/:id/drug-requests", h.ListByStudent)
}

func (h *Handler) Create(c echo.Context) error {
	var req Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	req.RequestedBy = auth.UserIDFromContext(ctx)
	if err := h.svc.Create(ctx, &req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, req)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	req, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "request not found")
	}
	return c.JSON(http.StatusOK, req)
}

func (h *Handler) ListByStudent(c echo.Context) error {
	studentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	reqs, err := h.svc.ListByStudent(c.Request().Context(), studentID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, reqs)
}

// List returns requests awaiting review; status defaults to PENDING.
func (h *Handler) List(c echo.Context) error {
	status := Status(c.QueryParam("status"))
	if status == "" {
		status = StatusPending
	}
	p := pagination.FromContext(c)
	reqs, total, err := h.svc.ListByStatus(c.Request().Context(), status, p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(reqs, total, p.Limit, p.Offset))
}

func (h *Handler) Approve(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	req, err := h.svc.Approve(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, req)
}

func (h *Handler) Reject(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req, err := h.svc.Reject(c.Request().Context(), id, body.Reason)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, req)
}

func (h *Handler) MarkAdministered(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	req, err := h.svc.MarkAdministered(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, req)
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	req, err := h.svc.Cancel(ctx, id, auth.UserIDFromContext(ctx))
	if err != nil {
		if errors.Is(err, ErrNotRequester) {
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		}
		return mapError(err)
	}
	return c.JSON(http.StatusOK, req)
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrReasonRequired):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotPending),
		errors.Is(err, ErrNotApproved),
		errors.Is(err, ErrTerminal):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusNotFound, "request not found")
	}
}
