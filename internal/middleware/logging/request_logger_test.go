package loggingmw

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/Skotchmaster/marketplace/internal/logging"
)

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler echo.HandlerFunc
		status  int
		level   string
	}{
		{
			name:    "ok",
			handler: func(c echo.Context) error { return c.NoContent(http.StatusNoContent) },
			status:  http.StatusNoContent,
			level:   "level=INFO",
		},
		{
			name:    "client error",
			handler: func(c echo.Context) error { return echo.NewHTTPError(http.StatusNotFound, "nope") },
			status:  http.StatusNotFound,
			level:   "level=WARN",
		},
		{
			name:    "server error",
			handler: func(c echo.Context) error { return echo.NewHTTPError(http.StatusBadGateway, "down") },
			status:  http.StatusBadGateway,
			level:   "level=ERROR",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			e := echo.New()
			e.Use(RequestLogger(logging.NewWithWriter(&buf, "debug", "test")))
			e.GET("/items/:id", func(c echo.Context) error {
				assert.NotNil(t, logging.FromContext(c.Request().Context()))
				return tt.handler(c)
			})

			req := httptest.NewRequest(http.MethodGet, "/items/7", nil)
			req.Header.Set(echo.HeaderXRequestID, "rid-1")
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "rid-1", rec.Header().Get(echo.HeaderXRequestID))
			out := buf.String()
			assert.Contains(t, out, "request completed")
			assert.Contains(t, out, tt.level)
			assert.Contains(t, out, "request_id=rid-1")
			assert.Contains(t, out, "path=/items/:id")
		})
	}
}
