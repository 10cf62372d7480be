package campaign

import (
	"context"
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
	read := api.Group("", auth.RequireRole("admin", "nurse", "guardian"))
	read.GET("/campaigns", h.List)
	read.GET("/campaigns/:id", h.Get)
	read.GET("/campaigns/:id/exams", h.ListExams)

	admin := api.Group("", auth.RequireRole("admin"))
	admin.POST("/campaigns", h.Create)
	admin.DELETE("/campaigns/:id", h.Delete)
	admin.POST("/campaigns/:id/activate", h.Activate)
	admin.POST("/campaigns/:id/complete", h.Complete)
	admin.POST("/campaigns/:id/cancel", h.Cancel)
	admin.POST("/campaigns/:id/exams", h.AddExam)
	admin.DELETE("/campaigns/:id/exams/:examID", h.RemoveExam)
}

func (h *Handler) Create(c echo.Context) error {
	var cp Campaign
	if err := c.Bind(&cp); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), &cp); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, cp)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	cp, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "campaign not found")
	}
	return c.JSON(http.StatusOK, cp)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	if status := c.QueryParam("status"); status != "" {
		items, total, err := h.svc.ListByStatus(c.Request().Context(), Status(status), pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}
	items, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Activate(c echo.Context) error {
	return h.lifecycle(c, h.svc.Activate)
}

func (h *Handler) Complete(c echo.Context) error {
	return h.lifecycle(c, h.svc.Complete)
}

func (h *Handler) Cancel(c echo.Context) error {
	return h.lifecycle(c, h.svc.Cancel)
}

func (h *Handler) lifecycle(c echo.Context, fn func(ctx context.Context, id uuid.UUID) (*Campaign, error)) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	cp, err := fn(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrClosed) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, cp)
}

func (h *Handler) AddExam(c echo.Context) error {
	campaignID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var ex SpecialistExam
	if err := c.Bind(&ex); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ex.CampaignID = campaignID
	if err := h.svc.AddExam(c.Request().Context(), &ex); err != nil {
		if errors.Is(err, ErrClosed) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, ex)
}

func (h *Handler) ListExams(c echo.Context) error {
	campaignID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	exams, err := h.svc.ListExams(c.Request().Context(), campaignID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, exams)
}

func (h *Handler) RemoveExam(c echo.Context) error {
	campaignID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	examID, err := uuid.Parse(c.Param("examID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid exam id")
	}
	if err := h.svc.RemoveExam(c.Request().Context(), campaignID, examID); err != nil {
		if errors.Is(err, ErrClosed) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
