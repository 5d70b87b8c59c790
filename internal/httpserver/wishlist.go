package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/logging"
	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/transport"
)

type WishlistHTTP struct {
	Svc *service.WishlistService
}

func (h *WishlistHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.list")

	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	items, err := h.Svc.List(ctx, actor.UserID)
	if err != nil {
		return fail(l, "list_wishlist_failed", err)
	}
	return c.JSON(http.StatusOK, transport.OK(items))
}

func (h *WishlistHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.add")

	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req transport.AddWishlistRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "add_wishlist_failed", "invalid body", err)
	}
	item, err := h.Svc.Add(ctx, actor.UserID, req)
	if err != nil {
		return fail(l, "add_wishlist_failed", err)
	}
	return c.JSON(http.StatusCreated, transport.OK(item))
}

func (h *WishlistHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.update")

	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "update_wishlist_failed", "invalid wishlist id", err)
	}
	var req transport.UpdateWishlistRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_wishlist_failed", "invalid body", err)
	}
	item, err := h.Svc.UpdateNotes(ctx, actor.UserID, id, req.Notes)
	if err != nil {
		return fail(l, "update_wishlist_failed", err)
	}
	return c.JSON(http.StatusOK, transport.OK(item))
}

func (h *WishlistHTTP) Remove(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.remove")

	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "remove_wishlist_failed", "invalid wishlist id", err)
	}
	if err := h.Svc.Remove(ctx, actor.UserID, id); err != nil {
		return fail(l, "remove_wishlist_failed", err)
	}
	return c.JSON(http.StatusOK, transport.Message("removed from wishlist"))
}
