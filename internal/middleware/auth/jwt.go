package authmw

import (
	"errors"
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/logging"
	"github.com/Skotchmaster/marketplace/internal/tokens"
)

const claimsKey = "user"

// RequireAuth accepts an access token from the Authorization header or,
// failing that, from the access cookie.
func RequireAuth(accessSecret []byte) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  claimsKey,
		TokenLookup: "header:Authorization:Bearer ,cookie:" + tokens.AccessCookie,
		ParseTokenFunc: func(_ echo.Context, raw string) (interface{}, error) {
			return tokens.AccessClaimsFromToken(raw, accessSecret)
		},
		SuccessHandler: func(c echo.Context) {
			if claims, ok := c.Get(claimsKey).(*tokens.AccessClaims); ok {
				setUserContext(c, claims)
			}
		},
		ErrorHandler: func(c echo.Context, err error) error {
			l := logging.FromContext(c.Request().Context()).With("mw", "auth")
			msg := "invalid or expired token"
			var extr *echojwt.TokenExtractionError
			if errors.As(err, &extr) {
				msg = "authentication required"
			}
			l.Warn("auth_rejected", "status", http.StatusUnauthorized, "reason", msg, "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, msg).SetInternal(err)
		},
	})
}
