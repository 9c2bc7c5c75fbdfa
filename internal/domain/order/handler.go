package order

import (
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
	api.POST("/order", h.PlaceOrder)
	api.GET("/order", h.ListOrders)
	api.GET("/order/:id", h.GetOrder)

	sellers := api.Group("", auth.RequireRole(auth.RolePharmacy, auth.RoleParapharmacy))
	sellers.PUT("/order/:id/status", h.UpdateStatus)
}

func (h *Handler) PlaceOrder(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	o, err := h.svc.Place(c.Request().Context(), userID)
	if err != nil {
		return respond.Conflict(c, err.Error())
	}
	return respond.Created(c, o)
}

func (h *Handler) ListOrders(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListByUser(c.Request().Context(), userID, pg.Limit, pg.Offset)
	if err != nil {
		return respond.Error(c, http.StatusInternalServerError, err.Error())
	}
	return respond.OK(c, pagination.NewPage(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetOrder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.BadRequest(c, "invalid id")
	}
	o, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return respond.NotFound(c, "order not found")
	}

	// Buyers only see their own orders.
	role := auth.RoleFromContext(c.Request().Context())
	if role == auth.RolePatient && o.UserID.String() != auth.UserIDFromContext(c.Request().Context()) {
		return respond.NotFound(c, "order not found")
	}
	return respond.OK(c, o)
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

	o, err := h.svc.UpdateStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		if err == ErrNotFound {
			return respond.NotFound(c, "order not found")
		}
		return respond.Conflict(c, err.Error())
	}
	return respond.OKMessage(c, "status updated", o)
}

func callerID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid user identity")
	}
	return id, nil
}
