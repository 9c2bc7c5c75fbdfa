package inbox

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
	api.GET("/notification", h.List)
	api.GET("/notification/unread-count", h.UnreadCount)
	api.PUT("/notification/:id/read", h.MarkRead)
	api.PUT("/notification/read-all", h.MarkAllRead)
}

func (h *Handler) List(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)

	items, total, err := h.svc.List(c.Request().Context(), userID, pg.Limit, pg.Offset)
	if err != nil {
		return respond.Error(c, http.StatusInternalServerError, err.Error())
	}
	return respond.OK(c, pagination.NewPage(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UnreadCount(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	n, err := h.svc.UnreadCount(c.Request().Context(), userID)
	if err != nil {
		return respond.Error(c, http.StatusInternalServerError, err.Error())
	}
	return respond.OK(c, map[string]int{"unread": n})
}

func (h *Handler) MarkRead(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.BadRequest(c, "invalid id")
	}

	if err := h.svc.MarkRead(c.Request().Context(), userID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return respond.NotFound(c, "notification not found")
		}
		return respond.Error(c, http.StatusInternalServerError, err.Error())
	}
	return respond.NoContent(c, "marked read")
}

func (h *Handler) MarkAllRead(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	if err := h.svc.MarkAllRead(c.Request().Context(), userID); err != nil {
		return respond.Error(c, http.StatusInternalServerError, err.Error())
	}
	return respond.NoContent(c, "all marked read")
}

func callerID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid user identity")
	}
	return id, nil
}
