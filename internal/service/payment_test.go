package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/transport"
)

var paymentSecret = []byte("gateway-secret")

func placeOrder(t *testing.T, svc *PaymentService, buyer *models.User, price string) models.Order {
	t.Helper()
	seller := seedUser(t, svc.Repo, models.RoleSeller)
	p := seedProduct(t, svc.Repo, seller.ID, price, 5)
	orders := &OrderService{Repo: svc.Repo}
	out, err := orders.CreateOrders(context.Background(), buyer.ID, transport.CreateOrderRequest{
		Items:           []transport.CreateOrderItem{{ProductID: p.ID, Quantity: 1}},
		ShippingAddress: testAddress(),
	}, "")
	require.NoError(t, err)
	require.Len(t, out, 1)
	return out[0]
}

func TestSign(t *testing.T) {
	t.Parallel()
	sig := Sign(paymentSecret, "order_1", "pay_1")
	assert.Len(t, sig, 64)
	assert.Equal(t, sig, Sign(paymentSecret, "order_1", "pay_1"))
	assert.NotEqual(t, sig, Sign(paymentSecret, "order_1", "pay_2"))
	assert.NotEqual(t, sig, Sign([]byte("other"), "order_1", "pay_1"))
}

func TestPaymentService_CreateOrder(t *testing.T) {
	t.Parallel()
	rec := &recorder{}
	svc := &PaymentService{Repo: newRepo(t), Secret: paymentSecret, Events: rec}
	ctx := context.Background()
	buyer := seedUser(t, svc.Repo, models.RoleCustomer)
	stranger := seedUser(t, svc.Repo, models.RoleCustomer)
	order := placeOrder(t, svc, buyer, "40.00")

	_, err := svc.CreateOrder(ctx, actorOf(stranger), transport.CreatePaymentRequest{OrderID: order.ID})
	require.ErrorIs(t, err, ErrForbidden)
	_, err = svc.CreateOrder(ctx, actorOf(buyer), transport.CreatePaymentRequest{OrderID: order.ID, Currency: "euro"})
	require.ErrorIs(t, err, ErrValidation)

	p, err := svc.CreateOrder(ctx, actorOf(buyer), transport.CreatePaymentRequest{OrderID: order.ID})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, p.Status)
	assert.Equal(t, DefaultCurrency, p.Currency)
	assert.True(t, dec("40").Equal(p.Amount))
	assert.True(t, strings.HasPrefix(p.GatewayOrderID, "order_"))

	again, err := svc.CreateOrder(ctx, actorOf(buyer), transport.CreatePaymentRequest{OrderID: order.ID})
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID)
	assert.Equal(t, p.GatewayOrderID, again.GatewayOrderID)
}

func TestPaymentService_VerifyAndRefund(t *testing.T) {
	t.Parallel()
	rec := &recorder{}
	svc := &PaymentService{Repo: newRepo(t), Secret: paymentSecret, Events: rec}
	ctx := context.Background()
	buyer := seedUser(t, svc.Repo, models.RoleCustomer)
	admin := seedUser(t, svc.Repo, models.RoleAdmin)
	order := placeOrder(t, svc, buyer, "40.00")

	p, err := svc.CreateOrder(ctx, actorOf(buyer), transport.CreatePaymentRequest{OrderID: order.ID})
	require.NoError(t, err)

	_, err = svc.Verify(ctx, actorOf(buyer), transport.VerifyPaymentRequest{
		GatewayOrderID:   p.GatewayOrderID,
		GatewayPaymentID: "pay_1",
		Signature:        "deadbeef",
	})
	require.ErrorIs(t, err, ErrValidation)

	failed, err := svc.Repo.GetPayment(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, failed.Status)
	assert.Equal(t, "SIGNATURE_MISMATCH", failed.FailureCode)
	o, err := svc.Repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, o.Status)
	assert.Equal(t, models.PaymentStatusFailed, o.PaymentStatus)

	reopened, err := svc.CreateOrder(ctx, actorOf(buyer), transport.CreatePaymentRequest{OrderID: order.ID})
	require.NoError(t, err)
	assert.Equal(t, p.ID, reopened.ID)
	assert.Equal(t, models.PaymentStatusPending, reopened.Status)
	assert.NotEqual(t, p.GatewayOrderID, reopened.GatewayOrderID)

	req := transport.VerifyPaymentRequest{
		GatewayOrderID:   reopened.GatewayOrderID,
		GatewayPaymentID: "pay_2",
		Signature:        strings.ToUpper(Sign(paymentSecret, reopened.GatewayOrderID, "pay_2")),
	}
	done, err := svc.Verify(ctx, actorOf(buyer), req)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, done.Status)
	require.NotNil(t, done.GatewayPaymentID)
	assert.Equal(t, "pay_2", *done.GatewayPaymentID)

	o, err = svc.Repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, o.Status)
	assert.Equal(t, models.PaymentStatusCompleted, o.PaymentStatus)

	_, err = svc.Verify(ctx, actorOf(buyer), req)
	require.ErrorIs(t, err, models.ErrInvalidStateTransition, "a completed payment is not verified twice")

	_, err = svc.CreateOrder(ctx, actorOf(buyer), transport.CreatePaymentRequest{OrderID: order.ID})
	require.ErrorIs(t, err, models.ErrInvalidStateTransition)

	_, err = svc.Refund(ctx, actorOf(buyer), p.ID, transport.RefundRequest{})
	require.ErrorIs(t, err, ErrForbidden)

	tooMuch := dec("50")
	_, err = svc.Refund(ctx, actorOf(admin), p.ID, transport.RefundRequest{Amount: &tooMuch})
	require.ErrorIs(t, err, models.ErrInvalidAmount)

	part := dec("15")
	refunded, err := svc.Refund(ctx, actorOf(admin), p.ID, transport.RefundRequest{Amount: &part, Reason: "damaged"})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusRefunded, refunded.Status)
	require.NotNil(t, refunded.RefundAmount)
	assert.True(t, part.Equal(*refunded.RefundAmount))

	o, err = svc.Repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusRefunded, o.Status)

	_, err = svc.Refund(ctx, actorOf(admin), p.ID, transport.RefundRequest{})
	require.ErrorIs(t, err, models.ErrInvalidStateTransition)

	assert.Equal(t, []string{"payment.failed", "payment.completed", "payment.refunded"}, rec.types())
}

func TestPaymentService_Verify_NotFound(t *testing.T) {
	t.Parallel()
	svc := &PaymentService{Repo: newRepo(t), Secret: paymentSecret}
	buyer := seedUser(t, svc.Repo, models.RoleCustomer)

	_, err := svc.Verify(context.Background(), actorOf(buyer), transport.VerifyPaymentRequest{
		GatewayOrderID:   "order_missing",
		GatewayPaymentID: "pay_1",
		Signature:        Sign(paymentSecret, "order_missing", "pay_1"),
	})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Verify(context.Background(), actorOf(buyer), transport.VerifyPaymentRequest{GatewayOrderID: "order_x"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestPaymentService_Verify_CancelledOrder(t *testing.T) {
	t.Parallel()
	svc := &PaymentService{Repo: newRepo(t), Secret: paymentSecret}
	ctx := context.Background()
	buyer := seedUser(t, svc.Repo, models.RoleCustomer)
	order := placeOrder(t, svc, buyer, "40.00")

	p, err := svc.CreateOrder(ctx, actorOf(buyer), transport.CreatePaymentRequest{OrderID: order.ID})
	require.NoError(t, err)

	orders := &OrderService{Repo: svc.Repo}
	_, err = orders.CancelOrder(ctx, actorOf(buyer), order.ID, "changed my mind")
	require.NoError(t, err)

	_, err = svc.Verify(ctx, actorOf(buyer), transport.VerifyPaymentRequest{
		GatewayOrderID:   p.GatewayOrderID,
		GatewayPaymentID: "pay_1",
		Signature:        Sign(paymentSecret, p.GatewayOrderID, "pay_1"),
	})
	require.ErrorIs(t, err, models.ErrInvalidStateTransition)

	stored, err := svc.Repo.GetPayment(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, stored.Status)
	o, err := svc.Repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, o.Status)
	assert.Equal(t, models.PaymentStatusPending, o.PaymentStatus)
}
