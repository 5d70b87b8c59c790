package authmw

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/tokens"
)

const (
	userIDKey = "user_id"
	roleKey   = "role"
)

func setUserContext(c echo.Context, claims *tokens.AccessClaims) {
	if id, err := uuid.Parse(claims.Subject); err == nil {
		c.Set(userIDKey, id)
	}
	c.Set(roleKey, claims.Role)
}

// UserID returns the authenticated user, if any.
func UserID(c echo.Context) (uuid.UUID, bool) {
	id, ok := c.Get(userIDKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

func Role(c echo.Context) string {
	role, _ := c.Get(roleKey).(string)
	return role
}
