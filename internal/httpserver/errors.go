package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/logging"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/transport"
)

const internalMessage = "internal server error"

// statusOf maps a service error to an HTTP status and a client message.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, models.ErrInvalidAmount):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, service.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrConflict), errors.Is(err, gorm.ErrDuplicatedKey),
		errors.Is(err, models.ErrInvalidStateTransition):
		return http.StatusConflict, err.Error()
	}
	return http.StatusInternalServerError, internalMessage
}

// fail logs a failed call at the level its status deserves and converts it
// into an *echo.HTTPError carrying the cause.
func fail(l *slog.Logger, event string, err error) error {
	code, msg := statusOf(err)
	if code >= http.StatusInternalServerError {
		l.Error(event, "status", code, "reason", msg, "error", err)
	} else {
		l.Warn(event, "status", code, "reason", msg, "error", err)
	}
	return echo.NewHTTPError(code, msg).SetInternal(err)
}

func badRequest(l *slog.Logger, event, reason string, err error) error {
	l.Warn(event, "status", http.StatusBadRequest, "reason", reason, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, reason).SetInternal(err)
}

// HTTPErrorHandler renders every error as an envelope. Error detail is left
// out in production.
func HTTPErrorHandler(production bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if !errors.As(err, &he) {
			code, msg := statusOf(err)
			he = echo.NewHTTPError(code, msg).SetInternal(err)
		}

		msg, ok := he.Message.(string)
		if !ok {
			msg = http.StatusText(he.Code)
		}
		detail := ""
		if !production && he.Internal != nil {
			detail = he.Internal.Error()
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(he.Code)
		} else {
			werr = c.JSON(he.Code, transport.Fail(msg, detail))
		}
		if werr != nil {
			logging.FromContext(c.Request().Context()).Error("write_error_response_failed", "error", werr)
		}
	}
}
