package schedule

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/caremarket/caremarket/internal/platform/auth"
	"github.com/caremarket/caremarket/pkg/respond"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.PUT("/weekly-schedule", h.ReplaceSchedule, auth.RequireRole(auth.RoleDoctor))
	api.GET("/weekly-schedule/:doctorId", h.GetSchedule)
	api.GET("/weekly-schedule/:doctorId/slots", h.GetSlots)
}

type replaceRequest struct {
	Windows []*Window `json:"windows"`
}

func (h *Handler) ReplaceSchedule(c echo.Context) error {
	doctorID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid user identity")
	}

	var req replaceRequest
	if err := c.Bind(&req); err != nil {
		return respond.BadRequest(c, err.Error())
	}

	if err := h.svc.Replace(c.Request().Context(), doctorID, req.Windows); err != nil {
		return respond.BadRequest(c, err.Error())
	}
	return respond.OKMessage(c, "schedule updated", req.Windows)
}

func (h *Handler) GetSchedule(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("doctorId"))
	if err != nil {
		return respond.BadRequest(c, "invalid doctor id")
	}
	windows, err := h.svc.ForDoctor(c.Request().Context(), doctorID)
	if err != nil {
		return respond.Error(c, http.StatusInternalServerError, err.Error())
	}
	if windows == nil {
		windows = []*Window{}
	}
	return respond.OK(c, windows)
}

func (h *Handler) GetSlots(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("doctorId"))
	if err != nil {
		return respond.BadRequest(c, "invalid doctor id")
	}
	date, err := time.Parse("2006-01-02", c.QueryParam("date"))
	if err != nil {
		return respond.BadRequest(c, "date must be YYYY-MM-DD")
	}

	slots, err := h.svc.SlotsFor(c.Request().Context(), doctorID, date)
	if err != nil {
		return respond.Error(c, http.StatusInternalServerError, err.Error())
	}
	return respond.OK(c, slots)
}
