package authmw

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/tokens"
)

func autoRefreshEcho(t *testing.T, userID uuid.UUID, fail bool) (*echo.Echo, *atomic.Int32) {
	t.Helper()
	calls := &atomic.Int32{}
	m := &AutoRefresh{
		AccessSecret: secret,
		SkipPrefix:   "/auth/",
		Refresh: func(_ context.Context, raw string) (Session, error) {
			calls.Add(1)
			if fail || raw != "refresh-1" {
				return Session{}, errors.New("refresh token revoked")
			}
			access, exp, err := tokens.NewAccessToken(userID.String(), models.RoleCustomer, secret, time.Minute)
			if err != nil {
				return Session{}, err
			}
			return Session{AccessToken: access, RefreshToken: "refresh-2", AccessExp: exp, RefreshExp: exp.Add(time.Hour)}, nil
		},
	}
	e := newEcho(m.Middleware(), RequireAuth(secret))
	e.GET("/auth/me", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, m.Middleware())
	return e, calls
}

func expiredToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	tok, _, err := tokens.NewAccessToken(userID.String(), models.RoleCustomer, secret, -time.Minute)
	require.NoError(t, err)
	return tok
}

func cookieMap(rec *httptest.ResponseRecorder) map[string]string {
	out := map[string]string{}
	for _, ck := range rec.Result().Cookies() {
		out[ck.Name] = ck.Value
	}
	return out
}

func TestAutoRefresh_RenewsExpiredSession(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	e, calls := autoRefreshEcho(t, userID, false)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.AddCookie(&http.Cookie{Name: tokens.AccessCookie, Value: expiredToken(t, userID)})
	req.AddCookie(&http.Cookie{Name: tokens.RefreshCookie, Value: "refresh-1"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID.String()+"|"+models.RoleCustomer, rec.Body.String())
	assert.EqualValues(t, 1, calls.Load())
	cookies := cookieMap(rec)
	assert.NotEmpty(t, cookies[tokens.AccessCookie])
	assert.Equal(t, "refresh-2", cookies[tokens.RefreshCookie])
}

func TestAutoRefresh_FailedRefreshClearsSession(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	e, calls := autoRefreshEcho(t, userID, true)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.AddCookie(&http.Cookie{Name: tokens.RefreshCookie, Value: "refresh-1"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.EqualValues(t, 1, calls.Load())
	cookies := cookieMap(rec)
	assert.Contains(t, cookies, tokens.AccessCookie)
	assert.Empty(t, cookies[tokens.RefreshCookie])
}

func TestAutoRefresh_LeavesOtherRequestsAlone(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	e, calls := autoRefreshEcho(t, userID, false)

	tests := []struct {
		name   string
		path   string
		header string
		access string
		status int
	}{
		{name: "valid cookie", path: "/private", access: token(t, userID, models.RoleCustomer), status: http.StatusOK},
		{name: "bearer header", path: "/private", header: "Bearer " + expiredToken(t, userID), status: http.StatusUnauthorized},
		{name: "tampered cookie", path: "/private", access: "not-a-jwt", status: http.StatusUnauthorized},
		{name: "skipped prefix", path: "/auth/me", access: expiredToken(t, userID), status: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			if tt.access != "" {
				req.AddCookie(&http.Cookie{Name: tokens.AccessCookie, Value: tt.access})
			}
			req.AddCookie(&http.Cookie{Name: tokens.RefreshCookie, Value: "refresh-1"})
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
	assert.Zero(t, calls.Load())
}
