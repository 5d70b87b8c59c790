package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/logging"
	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/transport"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get_cart")

	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	cart, err := h.Svc.GetCart(ctx, actor.UserID)
	if err != nil {
		return fail(l, "get_cart_failed", err)
	}
	return c.JSON(http.StatusOK, transport.OK(cart))
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_item")

	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req transport.AddCartItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "add_item_failed", "invalid body", err)
	}
	cart, err := h.Svc.AddItem(ctx, actor.UserID, req)
	if err != nil {
		return fail(l, "add_item_failed", err)
	}
	return c.JSON(http.StatusOK, transport.OK(cart))
}

func (h *CartHTTP) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update_item")

	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	itemID, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "update_item_failed", "invalid item id", err)
	}
	var req transport.UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_item_failed", "invalid body", err)
	}
	cart, err := h.Svc.UpdateItem(ctx, actor.UserID, itemID, req.Quantity)
	if err != nil {
		return fail(l, "update_item_failed", err)
	}
	return c.JSON(http.StatusOK, transport.OK(cart))
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_item")

	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	itemID, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "remove_item_failed", "invalid item id", err)
	}
	cart, err := h.Svc.RemoveItem(ctx, actor.UserID, itemID)
	if err != nil {
		return fail(l, "remove_item_failed", err)
	}
	return c.JSON(http.StatusOK, transport.OK(cart))
}

func (h *CartHTTP) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	cart, err := h.Svc.Clear(ctx, actor.UserID)
	if err != nil {
		return fail(l, "clear_cart_failed", err)
	}
	return c.JSON(http.StatusOK, transport.OK(cart))
}
