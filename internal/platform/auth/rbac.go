package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Marketplace roles. Admin passes every role check.
const (
	RolePatient      = "patient"
	RoleDoctor       = "doctor"
	RolePharmacy     = "pharmacy"
	RoleParapharmacy = "parapharmacy"
	RoleAdmin        = "admin"
)

// ValidRoles lists the roles accepted at registration.
var ValidRoles = map[string]bool{
	RolePatient:      true,
	RoleDoctor:       true,
	RolePharmacy:     true,
	RoleParapharmacy: true,
	RoleAdmin:        true,
}

// RequireRole returns middleware that checks if the user has one of the
// specified roles. Admin always passes.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := RoleFromContext(c.Request().Context())
			if role == RoleAdmin {
				return next(c)
			}
			for _, required := range roles {
				if role == required {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}
