package medevent

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/schoolmed/schoolmed/internal/domain/inventory"
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
	staff := api.Group("", auth.RequireRole("admin", "nurse"))
	staff.POST("/events", h.Create)
	staff.GET("/events", h.List)

	any := api.Group("", auth.RequireRole("admin", "nurse", "guardian"))
	any.GET("/events/:id", h.Get)
	any.GET("/students/:id/events", h.ListByStudent)
}

func (h *Handler) Create(c echo.Context) error {
	var ev Event
	if err := c.Bind(&ev); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	ev.RecordedBy = auth.UserIDFromContext(ctx)
	if err := h.svc.Create(ctx, &ev); err != nil {
		if errors.Is(err, inventory.ErrStockConflict) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		if errors.Is(err, inventory.ErrItemNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, ev)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ev, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "event not found")
	}
	return c.JSON(http.StatusOK, ev)
}

func (h *Handler) ListByStudent(c echo.Context) error {
	studentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p := pagination.FromContext(c)
	events, total, err := h.svc.ListByStudent(c.Request().Context(), studentID, p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(events, total, p.Limit, p.Offset))
}

// List returns events in a date range; defaults to the last 30 days.
func (h *Handler) List(c echo.Context) error {
	to := time.Now()
	from := to.AddDate(0, 0, -30)
	if raw := c.QueryParam("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid from")
		}
		from = parsed
	}
	if raw := c.QueryParam("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid to")
		}
		to = parsed
	}
	p := pagination.FromContext(c)
	events, total, err := h.svc.ListByRange(c.Request().Context(), from, to, p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(events, total, p.Limit, p.Offset))
}
