package appointment

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/caremarket/caremarket/internal/platform/auth"
	"github.com/caremarket/caremarket/pkg/pagination"
	"github.com/caremarket/caremarket/pkg/respond"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/appointments", h.Book, auth.RequireRole(auth.RolePatient))
	api.GET("/appointments", h.List)
	api.GET("/appointments/:id", h.Get)
	api.PUT("/appointments/:id/status", h.UpdateStatus, auth.RequireRole(auth.RoleDoctor))
	api.DELETE("/appointments/:id", h.Cancel)
}

type bookRequest struct {
	DoctorID  uuid.UUID `json:"doctor_id"`
	StartTime time.Time `json:"start_time"`
	Reason    *string   `json:"reason,omitempty"`
}

func (h *Handler) Book(c echo.Context) error {
	patientID, err := callerID(c)
	if err != nil {
		return err
	}

	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return respond.BadRequest(c, err.Error())
	}

	a, err := h.svc.Book(c.Request().Context(), patientID, req.DoctorID, req.StartTime, req.Reason)
	if err != nil {
		if errors.Is(err, ErrSlotTaken) || errors.Is(err, ErrOutsideSchedule) {
			return respond.Conflict(c, err.Error())
		}
		return respond.BadRequest(c, err.Error())
	}
	return respond.Created(c, a)
}

// List is role-scoped: patients see their own bookings, doctors their own
// calendar.
func (h *Handler) List(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)

	var (
		items []*Appointment
		total int
	)
	if auth.RoleFromContext(c.Request().Context()) == auth.RoleDoctor {
		items, total, err = h.svc.ListByDoctor(c.Request().Context(), userID, pg.Limit, pg.Offset)
	} else {
		items, total, err = h.svc.ListByPatient(c.Request().Context(), userID, pg.Limit, pg.Offset)
	}
	if err != nil {
		return respond.Error(c, http.StatusInternalServerError, err.Error())
	}
	return respond.OK(c, pagination.NewPage(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.BadRequest(c, "invalid id")
	}
	userID, err := callerID(c)
	if err != nil {
		return err
	}

	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return respond.NotFound(c, "appointment not found")
	}
	role := auth.RoleFromContext(c.Request().Context())
	if role != auth.RoleAdmin && a.PatientID != userID && a.DoctorID != userID {
		return respond.NotFound(c, "appointment not found")
	}
	return respond.OK(c, a)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.BadRequest(c, "invalid id")
	}

	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return respond.BadRequest(c, err.Error())
	}

	a, err := h.svc.UpdateStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return respond.NotFound(c, "appointment not found")
		}
		return respond.Conflict(c, err.Error())
	}
	return respond.OKMessage(c, "status updated", a)
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.BadRequest(c, "invalid id")
	}
	userID, err := callerID(c)
	if err != nil {
		return err
	}

	a, err := h.svc.Cancel(c.Request().Context(), id, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return respond.NotFound(c, "appointment not found")
		}
		return respond.Conflict(c, err.Error())
	}
	return respond.OKMessage(c, "appointment cancelled", a)
}

func callerID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid user identity")
	}
	return id, nil
}
