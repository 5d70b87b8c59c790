package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/logging"
	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/transport"
)

type PaymentHTTP struct {
	Svc *service.PaymentService
}

func (h *PaymentHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.create_order")

	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req transport.CreatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_payment_failed", "invalid body", err)
	}
	p, err := h.Svc.CreateOrder(ctx, actor, req)
	if err != nil {
		return fail(l, "create_payment_failed", err)
	}

	l.Info("create_payment_success", "payment_id", p.ID, "order_id", p.OrderID)
	return c.JSON(http.StatusCreated, transport.OK(p))
}

func (h *PaymentHTTP) Verify(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.verify")

	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req transport.VerifyPaymentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "verify_payment_failed", "invalid body", err)
	}
	p, err := h.Svc.Verify(ctx, actor, req)
	if err != nil {
		return fail(l, "verify_payment_failed", err)
	}

	l.Info("verify_payment_success", "payment_id", p.ID)
	return c.JSON(http.StatusOK, transport.OK(p))
}

func (h *PaymentHTTP) Refund(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.refund")

	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "refund_failed", "invalid payment id", err)
	}
	var req transport.RefundRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "refund_failed", "invalid body", err)
	}
	p, err := h.Svc.Refund(ctx, actor, id, req)
	if err != nil {
		return fail(l, "refund_failed", err)
	}

	l.Info("refund_success", "payment_id", id)
	return c.JSON(http.StatusOK, transport.OK(p))
}
