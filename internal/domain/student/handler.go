package student

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/schoolmed/schoolmed/internal/platform/auth"
	"github.com/schoolmed/schoolmed/internal/platform/session"
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
	staff.POST("/students", h.Create)
	staff.GET("/students", h.List)
	staff.GET("/students/code/:code", h.GetByCode)
	staff.PUT("/students/:id", h.Update)
	staff.DELETE("/students/:id", h.Delete)

	any := api.Group("", auth.RequireRole("admin", "nurse", "guardian"))
	any.GET("/students/mine", h.Mine)
	any.GET("/students/selected", h.Selected)
	any.PUT("/students/select/:id", h.Select)
	any.DELETE("/students/select", h.ClearSelection)
	any.GET("/students/:id", h.Get)
}

func (h *Handler) Create(c echo.Context) error {
	var st Student
	if err := c.Bind(&st); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), &st); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, st)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	st, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "student not found")
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) GetByCode(c echo.Context) error {
	st, err := h.svc.GetByCode(c.Request().Context(), c.Param("code"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "student not found")
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var st Student
	if err := c.Bind(&st); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	st.ID = id
	if err := h.svc.Update(c.Request().Context(), &st); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) List(c echo.Context) error {
	p := pagination.FromContext(c)
	students, total, err := h.svc.List(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(students, total, p.Limit, p.Offset))
}

// Mine lists the caller's own children.
func (h *Handler) Mine(c echo.Context) error {
	ctx := c.Request().Context()
	students, err := h.svc.ListByGuardian(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, students)
}

func (h *Handler) Select(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	guardianOnly := hasOnlyGuardianRole(auth.RolesFromContext(ctx))
	st, err := h.svc.Select(ctx, auth.UserIDFromContext(ctx), id, guardianOnly)
	if err != nil {
		if errors.Is(err, ErrNotGuardian) {
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		}
		return echo.NewHTTPError(http.StatusNotFound, "student not found")
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) Selected(c echo.Context) error {
	ctx := c.Request().Context()
	st, err := h.svc.Selected(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		if errors.Is(err, session.ErrNoSelection) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) ClearSelection(c echo.Context) error {
	ctx := c.Request().Context()
	if err := h.svc.ClearSelection(ctx, auth.UserIDFromContext(ctx)); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func hasOnlyGuardianRole(roles []string) bool {
	guardian := false
	for _, r := range roles {
		switch r {
		case "admin", "nurse":
			return false
		case "guardian":
			guardian = true
		}
	}
	return guardian
}
