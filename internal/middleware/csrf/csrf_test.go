package csrf

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEcho(cfg Config) *echo.Echo {
	e := echo.New()
	e.Use(Middleware(cfg))
	ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	e.GET("/form", ok)
	e.POST("/submit", ok)
	e.POST("/auth/login", ok)
	return e
}

func issueToken(t *testing.T, e *echo.Echo) string {
	t.Helper()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/form", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	tok := rec.Header().Get("X-CSRF-Token")
	require.NotEmpty(t, tok)
	return tok
}

func TestMiddleware(t *testing.T) {
	t.Parallel()
	e := newEcho(Config{SkipPaths: []string{"/auth/login"}})
	tok := issueToken(t, e)

	tests := []struct {
		name   string
		path   string
		build  func(r *http.Request)
		status int
	}{
		{
			name: "valid header token",
			path: "/submit",
			build: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: tok})
				r.AddCookie(&http.Cookie{Name: "accessToken", Value: "session"})
				r.Header.Set("X-CSRF-Token", tok)
				r.Header.Set(echo.HeaderOrigin, "http://example.com")
			},
			status: http.StatusNoContent,
		},
		{
			name: "mismatched token",
			path: "/submit",
			build: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: tok})
				r.AddCookie(&http.Cookie{Name: "accessToken", Value: "session"})
				r.Header.Set("X-CSRF-Token", tok+"x")
				r.Header.Set(echo.HeaderOrigin, "http://example.com")
			},
			status: http.StatusForbidden,
		},
		{
			name: "foreign origin",
			path: "/submit",
			build: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: tok})
				r.AddCookie(&http.Cookie{Name: "accessToken", Value: "session"})
				r.Header.Set("X-CSRF-Token", tok)
				r.Header.Set(echo.HeaderOrigin, "http://evil.test")
			},
			status: http.StatusForbidden,
		},
		{
			name: "bearer client",
			path: "/submit",
			build: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "accessToken", Value: "session"})
				r.Header.Set(echo.HeaderAuthorization, "Bearer abc")
			},
			status: http.StatusNoContent,
		},
		{
			name:   "no session cookie",
			path:   "/submit",
			build:  func(*http.Request) {},
			status: http.StatusNoContent,
		},
		{
			name: "skipped path",
			path: "/auth/login",
			build: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "accessToken", Value: "session"})
			},
			status: http.StatusNoContent,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader("{}"))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			tt.build(req)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestSecureCompare(t *testing.T) {
	t.Parallel()
	assert.True(t, secureCompare("abc", "abc"))
	assert.False(t, secureCompare("abc", "abd"))
	assert.False(t, secureCompare("", ""))
	assert.False(t, secureCompare("abc", "ab"))
}
