package catalog

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
	api.GET("/products", h.SearchProducts)
	api.GET("/products/:id", h.GetProduct)
	api.GET("/products/:id/availability", h.GetAvailability)

	sellers := api.Group("", auth.RequireRole(auth.RolePharmacy, auth.RoleParapharmacy))
	sellers.POST("/products", h.CreateProduct)
	sellers.PUT("/products/:id", h.UpdateProduct)
	sellers.DELETE("/products/:id", h.DeleteProduct)
	sellers.GET("/products/mine", h.ListMine)
}

func (h *Handler) CreateProduct(c echo.Context) error {
	var p Product
	if err := c.Bind(&p); err != nil {
		return respond.BadRequest(c, err.Error())
	}

	ownerID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return respond.BadRequest(c, "invalid owner identity")
	}
	p.OwnerID = ownerID

	if err := h.svc.CreateProduct(c.Request().Context(), &p); err != nil {
		return respond.BadRequest(c, err.Error())
	}
	return respond.Created(c, p)
}

func (h *Handler) GetProduct(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.BadRequest(c, "invalid id")
	}
	p, err := h.svc.GetProduct(c.Request().Context(), id)
	if err != nil {
		return respond.NotFound(c, "product not found")
	}
	return respond.OK(c, p)
}

func (h *Handler) GetAvailability(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.BadRequest(c, "invalid id")
	}
	avail, err := h.svc.Availability(c.Request().Context(), id)
	if err != nil {
		return respond.NotFound(c, "product not found")
	}
	return respond.OK(c, avail)
}

func (h *Handler) SearchProducts(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.Search(c.Request().Context(),
		c.QueryParam("q"), c.QueryParam("category"), pg.Limit, pg.Offset)
	if err != nil {
		return respond.Error(c, http.StatusInternalServerError, err.Error())
	}
	return respond.OK(c, pagination.NewPage(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListMine(c echo.Context) error {
	pg := pagination.FromContext(c)
	ownerID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return respond.BadRequest(c, "invalid owner identity")
	}
	items, total, err := h.svc.ListByOwner(c.Request().Context(), ownerID, pg.Limit, pg.Offset)
	if err != nil {
		return respond.Error(c, http.StatusInternalServerError, err.Error())
	}
	return respond.OK(c, pagination.NewPage(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateProduct(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.BadRequest(c, "invalid id")
	}

	existing, err := h.svc.GetProduct(c.Request().Context(), id)
	if err != nil {
		return respond.NotFound(c, "product not found")
	}
	if existing.OwnerID.String() != auth.UserIDFromContext(c.Request().Context()) &&
		auth.RoleFromContext(c.Request().Context()) != auth.RoleAdmin {
		return respond.Error(c, http.StatusForbidden, "not the product owner")
	}

	var p Product
	if err := c.Bind(&p); err != nil {
		return respond.BadRequest(c, err.Error())
	}
	p.ID = id
	p.OwnerID = existing.OwnerID
	p.SKU = existing.SKU

	if err := h.svc.UpdateProduct(c.Request().Context(), &p); err != nil {
		return respond.BadRequest(c, err.Error())
	}
	return respond.OK(c, p)
}

func (h *Handler) DeleteProduct(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.BadRequest(c, "invalid id")
	}

	existing, err := h.svc.GetProduct(c.Request().Context(), id)
	if err != nil {
		return respond.NotFound(c, "product not found")
	}
	if existing.OwnerID.String() != auth.UserIDFromContext(c.Request().Context()) &&
		auth.RoleFromContext(c.Request().Context()) != auth.RoleAdmin {
		return respond.Error(c, http.StatusForbidden, "not the product owner")
	}

	if err := h.svc.DeleteProduct(c.Request().Context(), id); err != nil {
		return respond.Error(c, http.StatusInternalServerError, err.Error())
	}
	return respond.NoContent(c, "product deleted")
}
