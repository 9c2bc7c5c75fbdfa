package favorite

import (
	"net/http"

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
	api.POST("/favorite", h.Add)
	api.DELETE("/favorite", h.Remove)
	api.GET("/favorite", h.List)
}

type favoriteRequest struct {
	ItemType string    `json:"itemType"`
	ItemID   uuid.UUID `json:"itemId"`
}

func (h *Handler) Add(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}

	var req favoriteRequest
	if err := c.Bind(&req); err != nil {
		return respond.BadRequest(c, err.Error())
	}

	f, err := h.svc.Add(c.Request().Context(), userID, req.ItemType, req.ItemID)
	if err != nil {
		return respond.BadRequest(c, err.Error())
	}
	return respond.Created(c, f)
}

func (h *Handler) Remove(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}

	var req favoriteRequest
	if err := c.Bind(&req); err != nil {
		return respond.BadRequest(c, err.Error())
	}

	if err := h.svc.Remove(c.Request().Context(), userID, req.ItemType, req.ItemID); err != nil {
		return respond.BadRequest(c, err.Error())
	}
	return respond.NoContent(c, "favorite removed")
}

func (h *Handler) List(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}

	favs, err := h.svc.List(c.Request().Context(), userID, c.QueryParam("type"))
	if err != nil {
		return respond.BadRequest(c, err.Error())
	}
	return respond.OK(c, favs)
}

func callerID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid user identity")
	}
	return id, nil
}
