package authmw

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/logging"
	"github.com/Skotchmaster/marketplace/internal/tokens"
)

// Session is a freshly issued token pair.
type Session struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

type RefreshFunc func(ctx context.Context, refreshToken string) (Session, error)

// AutoRefresh renews an expired cookie session in place so browser clients
// are not bounced to the login page every time the access token lapses.
type AutoRefresh struct {
	AccessSecret  []byte
	Refresh       RefreshFunc
	SecureCookies bool
	// SkipPrefix leaves the auth endpoints alone; they manage cookies themselves.
	SkipPrefix string
}

func (m *AutoRefresh) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Header.Get(echo.HeaderAuthorization) != "" {
				return next(c)
			}
			if m.SkipPrefix != "" && strings.HasPrefix(req.URL.Path, m.SkipPrefix) {
				return next(c)
			}

			if access, err := c.Cookie(tokens.AccessCookie); err == nil && access.Value != "" {
				_, perr := tokens.AccessClaimsFromToken(access.Value, m.AccessSecret)
				if perr == nil || !errors.Is(perr, jwt.ErrTokenExpired) {
					return next(c)
				}
			}

			refresh, err := c.Cookie(tokens.RefreshCookie)
			if err != nil || refresh.Value == "" {
				return next(c)
			}

			l := logging.FromContext(req.Context()).With("mw", "auto_refresh")
			s, err := m.Refresh(req.Context(), refresh.Value)
			if err != nil {
				l.Info("session_refresh_failed", "error", err)
				c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/", m.SecureCookies))
				c.SetCookie(tokens.DeleteCookie(tokens.RefreshCookie, "/", m.SecureCookies))
				return next(c)
			}

			c.SetCookie(tokens.CreateCookie(tokens.AccessCookie, s.AccessToken, "/", s.AccessExp, m.SecureCookies))
			c.SetCookie(tokens.CreateCookie(tokens.RefreshCookie, s.RefreshToken, "/", s.RefreshExp, m.SecureCookies))
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+s.AccessToken)
			l.Debug("session_refreshed")
			return next(c)
		}
	}
}
