package account

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

// RegisterRoutes mounts public auth routes on public and the
// session-guarded ones on api.
func (h *Handler) RegisterRoutes(public, api *echo.Group) {
	public.POST("/auth/register", h.Register)
	public.POST("/auth/login", h.Login)
	public.POST("/auth/refresh", h.Refresh)

	api.POST("/auth/logout", h.Logout)
	api.GET("/profile", h.GetProfile)
	api.PUT("/profile", h.UpdateProfile)
}

func (h *Handler) Register(c echo.Context) error {
	var in RegisterInput
	if err := c.Bind(&in); err != nil {
		return respond.BadRequest(c, err.Error())
	}

	sess, err := h.svc.Register(c.Request().Context(), in)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return respond.Conflict(c, err.Error())
		}
		return respond.BadRequest(c, err.Error())
	}
	return respond.Created(c, sess)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return respond.BadRequest(c, err.Error())
	}

	sess, err := h.svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respond.Error(c, http.StatusUnauthorized, err.Error())
	}
	return respond.OKMessage(c, "logged in", sess)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *Handler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return respond.BadRequest(c, err.Error())
	}

	sess, err := h.svc.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return respond.Error(c, http.StatusUnauthorized, err.Error())
	}
	return respond.OK(c, sess)
}

func (h *Handler) Logout(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Logout(c.Request().Context(), userID); err != nil {
		return respond.Error(c, http.StatusInternalServerError, err.Error())
	}
	return respond.NoContent(c, "logged out")
}

func (h *Handler) GetProfile(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	u, err := h.svc.Profile(c.Request().Context(), userID)
	if err != nil {
		return respond.NotFound(c, "user not found")
	}
	return respond.OK(c, u)
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}

	var in ProfileUpdate
	if err := c.Bind(&in); err != nil {
		return respond.BadRequest(c, err.Error())
	}

	u, err := h.svc.UpdateProfile(c.Request().Context(), userID, in)
	if err != nil {
		return respond.BadRequest(c, err.Error())
	}
	return respond.OKMessage(c, "profile updated", u)
}

func callerID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid user identity")
	}
	return id, nil
}
