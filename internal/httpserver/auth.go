package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/logging"
	authmw "github.com/Skotchmaster/marketplace/internal/middleware/auth"
	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/tokens"
	"github.com/Skotchmaster/marketplace/internal/transport"
)

type AuthHTTP struct {
	Svc           *service.AuthService
	Users         *service.UserService
	SecureCookies bool
}

func (h *AuthHTTP) setSession(c echo.Context, res *service.LoginResult) {
	c.SetCookie(tokens.CreateCookie(tokens.AccessCookie, res.AccessToken, "/", res.AccessExp, h.SecureCookies))
	c.SetCookie(tokens.CreateCookie(tokens.RefreshCookie, res.RefreshToken, "/", res.RefreshExp, h.SecureCookies))
}

func (h *AuthHTTP) clearSession(c echo.Context) {
	c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/", h.SecureCookies))
	c.SetCookie(tokens.DeleteCookie(tokens.RefreshCookie, "/", h.SecureCookies))
}

// RefreshSession backs the cookie auto-refresh middleware.
func (h *AuthHTTP) RefreshSession(ctx context.Context, raw string) (authmw.Session, error) {
	res, err := h.Svc.Refresh(ctx, raw)
	if err != nil {
		return authmw.Session{}, err
	}
	return authmw.Session{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		AccessExp:    res.AccessExp,
		RefreshExp:   res.RefreshExp,
	}, nil
}

func authResponse(res *service.LoginResult) transport.AuthResponse {
	return transport.AuthResponse{
		User:         res.User,
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresAt:    res.AccessExp,
	}
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "register_failed", "invalid body", err)
	}

	res, err := h.Svc.Register(ctx, req)
	if err != nil {
		return fail(l, "register_failed", err)
	}
	h.setSession(c, res)

	l.Info("register_success", "user_id", res.User.ID)
	return c.JSON(http.StatusCreated, transport.OK(authResponse(res)))
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "login_failed", "invalid body", err)
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return fail(l, "login_failed", err)
	}
	h.setSession(c, res)

	l.Info("login_success", "user_id", res.User.ID)
	return c.JSON(http.StatusOK, transport.OK(authResponse(res)))
}

// refreshToken prefers the request body and falls back to the cookie.
func refreshToken(c echo.Context) string {
	var req transport.RefreshRequest
	if err := c.Bind(&req); err == nil && req.RefreshToken != "" {
		return req.RefreshToken
	}
	if ck, err := c.Cookie(tokens.RefreshCookie); err == nil {
		return ck.Value
	}
	return ""
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	raw := refreshToken(c)
	if raw == "" {
		l.Warn("refresh_failed", "status", http.StatusUnauthorized, "reason", "no refresh token")
		return echo.NewHTTPError(http.StatusUnauthorized, "refresh token required")
	}

	res, err := h.Svc.Refresh(ctx, raw)
	if err != nil {
		h.clearSession(c)
		return fail(l, "refresh_failed", err)
	}
	h.setSession(c, res)
	return c.JSON(http.StatusOK, transport.OK(authResponse(res)))
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	if raw := refreshToken(c); raw != "" {
		if err := h.Svc.Logout(ctx, raw); err != nil {
			l.Warn("logout_revoke_failed", "error", err)
		}
	}
	h.clearSession(c)
	return c.JSON(http.StatusOK, transport.Message("logged out"))
}

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.me")

	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	user, err := h.Svc.Me(ctx, actor.UserID)
	if err != nil {
		return fail(l, "me_failed", err)
	}
	return c.JSON(http.StatusOK, transport.OK(user))
}

func (h *AuthHTTP) Profile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.profile")

	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	user, err := h.Users.Profile(ctx, actor.UserID)
	if err != nil {
		return fail(l, "profile_failed", err)
	}
	return c.JSON(http.StatusOK, transport.OK(user))
}

func (h *AuthHTTP) UpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.update_profile")

	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req transport.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_profile_failed", "invalid body", err)
	}
	user, err := h.Users.UpdateProfile(ctx, actor.UserID, req)
	if err != nil {
		return fail(l, "update_profile_failed", err)
	}
	return c.JSON(http.StatusOK, transport.OK(user))
}
