package prescription

import (
	"errors"
	"net/http"

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
	api.POST("/prescription", h.Issue, auth.RequireRole(auth.RoleDoctor))
	api.GET("/prescription", h.List)
	api.GET("/prescription/:id", h.Get)
	api.POST("/prescription/:id/dispense", h.Dispense,
		auth.RequireRole(auth.RolePharmacy, auth.RoleParapharmacy))
	api.DELETE("/prescription/:id", h.Cancel, auth.RequireRole(auth.RoleDoctor))
}

func (h *Handler) Issue(c echo.Context) error {
	doctorID, err := callerID(c)
	if err != nil {
		return err
	}

	var in IssueInput
	if err := c.Bind(&in); err != nil {
		return respond.BadRequest(c, err.Error())
	}

	p, err := h.svc.Issue(c.Request().Context(), doctorID, in)
	if err != nil {
		return respond.BadRequest(c, err.Error())
	}
	return respond.Created(c, p)
}

// List is role-scoped: patients see prescriptions issued to them, doctors
// the ones they wrote.
func (h *Handler) List(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)

	var (
		items []*Prescription
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

	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return respond.NotFound(c, "prescription not found")
	}

	role := auth.RoleFromContext(c.Request().Context())
	switch role {
	case auth.RoleAdmin, auth.RolePharmacy, auth.RoleParapharmacy:
		// Pharmacies need read access to dispense.
	default:
		if p.PatientID != userID && p.DoctorID != userID {
			return respond.NotFound(c, "prescription not found")
		}
	}
	return respond.OK(c, p)
}

func (h *Handler) Dispense(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.BadRequest(c, "invalid id")
	}
	pharmacyID, err := callerID(c)
	if err != nil {
		return err
	}

	p, err := h.svc.Dispense(c.Request().Context(), id, pharmacyID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return respond.NotFound(c, "prescription not found")
		}
		return respond.Conflict(c, err.Error())
	}
	return respond.OKMessage(c, "prescription dispensed", p)
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.BadRequest(c, "invalid id")
	}
	doctorID, err := callerID(c)
	if err != nil {
		return err
	}

	p, err := h.svc.Cancel(c.Request().Context(), id, doctorID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return respond.NotFound(c, "prescription not found")
		}
		return respond.Conflict(c, err.Error())
	}
	return respond.OKMessage(c, "prescription cancelled", p)
}

func callerID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid user identity")
	}
	return id, nil
}
