package authmw

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/logging"
	"github.com/Skotchmaster/marketplace/internal/models"
)

// RequireRole must run after RequireAuth.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := UserID(c); !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			role := Role(c)
			if !slices.Contains(roles, role) {
				logging.FromContext(c.Request().Context()).Warn("role_rejected",
					"status", http.StatusForbidden, "role", role, "need", roles)
				return echo.NewHTTPError(http.StatusForbidden, "you don't have enough rights")
			}
			return next(c)
		}
	}
}

func RequireAdmin() echo.MiddlewareFunc {
	return RequireRole(models.RoleAdmin)
}

func RequireSeller() echo.MiddlewareFunc {
	return RequireRole(models.RoleSeller, models.RoleAdmin)
}
