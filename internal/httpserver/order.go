package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/logging"
	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/internal/util"
)

const HeaderIdempotencyKey = "Idempotency-Key"

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) CreateOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create_orders")

	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_orders_failed", "invalid body", err)
	}
	orders, err := h.Svc.CreateOrders(ctx, actor.UserID, req, c.Request().Header.Get(HeaderIdempotencyKey))
	if err != nil {
		return fail(l, "create_orders_failed", err)
	}

	l.Info("create_orders_success", "count", len(orders))
	return c.JSON(http.StatusCreated, transport.OK(orders))
}

// ListOrders lists the caller's purchases, or with ?as=seller the orders
// placed with the caller.
func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_orders")

	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	q := service.OrderListQuery{
		Status:   c.QueryParam("status"),
		AsSeller: c.QueryParam("as") == "seller",
	}
	page := pageFrom(c, util.DefaultPageSize)
	total, items, err := h.Svc.ListOrders(ctx, actor, q, page)
	if err != nil {
		return fail(l, "list_orders_failed", err)
	}
	return paged(c, items, total, page)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order")

	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "get_order_failed", "invalid order id", err)
	}
	order, err := h.Svc.GetOrder(ctx, actor, id)
	if err != nil {
		return fail(l, "get_order_failed", err)
	}
	return c.JSON(http.StatusOK, transport.OK(order))
}

func (h *OrderHTTP) CancelOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.cancel_order")

	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "cancel_order_failed", "invalid order id", err)
	}
	var req transport.CancelOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "cancel_order_failed", "invalid body", err)
	}
	order, err := h.Svc.CancelOrder(ctx, actor, id, req.Reason)
	if err != nil {
		return fail(l, "cancel_order_failed", err)
	}

	l.Info("cancel_order_success", "order_id", id)
	return c.JSON(http.StatusOK, transport.OK(order))
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_status")

	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "update_status_failed", "invalid order id", err)
	}
	var req transport.UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_status_failed", "invalid body", err)
	}
	order, err := h.Svc.UpdateStatus(ctx, actor, id, req)
	if err != nil {
		return fail(l, "update_status_failed", err)
	}

	l.Info("update_status_success", "order_id", id, "status", order.Status)
	return c.JSON(http.StatusOK, transport.OK(order))
}

func (h *OrderHTTP) CorrectItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.correct_item")

	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	orderID, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "correct_item_failed", "invalid order id", err)
	}
	itemID, err := paramID(c, "itemId")
	if err != nil {
		return badRequest(l, "correct_item_failed", "invalid item id", err)
	}
	var req transport.CorrectOrderItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "correct_item_failed", "invalid body", err)
	}
	order, err := h.Svc.CorrectItem(ctx, actor, orderID, itemID, req)
	if err != nil {
		return fail(l, "correct_item_failed", err)
	}
	return c.JSON(http.StatusOK, transport.OK(order))
}
