package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	authmw "github.com/Skotchmaster/marketplace/internal/middleware/auth"
	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/internal/util"
)

// actorFrom reads the caller resolved by the auth middleware.
func actorFrom(c echo.Context) (service.Actor, error) {
	id, ok := authmw.UserID(c)
	if !ok {
		return service.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return service.Actor{UserID: id, Role: authmw.Role(c)}, nil
}

func paramID(c echo.Context, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Param(name))
}

func pageFrom(c echo.Context, def int) util.Page {
	return util.Calculate(
		util.ParseIntDefault(c.QueryParam("page"), 1),
		util.ParseIntDefault(c.QueryParam("limit"), def),
		def,
	)
}

func paged(c echo.Context, items any, total int64, page util.Page) error {
	return c.JSON(http.StatusOK, transport.Paged(items, transport.Pagination{
		Page:       page.Page,
		Limit:      page.Limit,
		Total:      total,
		TotalPages: util.TotalPages(total, page.Limit),
	}))
}
