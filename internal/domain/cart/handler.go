package cart

import (
	"errors"
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
	api.GET("/cart", h.GetCart)
	api.POST("/cart/items", h.AddItem)
	api.PUT("/cart/items/:productId", h.UpdateItem)
	api.DELETE("/cart/items/:productId", h.RemoveItem)
	api.DELETE("/cart", h.ClearCart)
}

type addItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Qty       int       `json:"qty"`
}

type updateItemRequest struct {
	Qty int `json:"qty"`
}

func (h *Handler) GetCart(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	cart, err := h.svc.Get(c.Request().Context(), userID)
	if err != nil {
		return respond.Error(c, http.StatusInternalServerError, err.Error())
	}
	return respond.OK(c, cart)
}

func (h *Handler) AddItem(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}

	var req addItemRequest
	if err := c.Bind(&req); err != nil {
		return respond.BadRequest(c, err.Error())
	}
	if req.Qty == 0 {
		req.Qty = 1
	}

	cart, err := h.svc.Add(c.Request().Context(), userID, req.ProductID, req.Qty)
	if err != nil {
		return rejectOrFail(c, err)
	}
	return respond.OKMessage(c, "item added", cart)
}

func (h *Handler) UpdateItem(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		return respond.BadRequest(c, "invalid product id")
	}

	var req updateItemRequest
	if err := c.Bind(&req); err != nil {
		return respond.BadRequest(c, err.Error())
	}

	cart, err := h.svc.UpdateQuantity(c.Request().Context(), userID, productID, req.Qty)
	if err != nil {
		return rejectOrFail(c, err)
	}
	return respond.OK(c, cart)
}

func (h *Handler) RemoveItem(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		return respond.BadRequest(c, "invalid product id")
	}

	cart, err := h.svc.Remove(c.Request().Context(), userID, productID)
	if err != nil {
		return respond.Error(c, http.StatusInternalServerError, err.Error())
	}
	return respond.OKMessage(c, "item removed", cart)
}

func (h *Handler) ClearCart(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	cart, err := h.svc.Clear(c.Request().Context(), userID)
	if err != nil {
		return respond.Error(c, http.StatusInternalServerError, err.Error())
	}
	return respond.OKMessage(c, "cart cleared", cart)
}

func callerID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid user identity")
	}
	return id, nil
}

// rejectOrFail maps stock rejections to a 409 envelope so clients can show
// the warning without treating it as a hard failure.
func rejectOrFail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ErrOutOfStock), errors.Is(err, ErrStockExceeded):
		return respond.Conflict(c, err.Error())
	case errors.Is(err, ErrLineNotFound):
		return respond.NotFound(c, err.Error())
	default:
		return respond.BadRequest(c, err.Error())
	}
}
