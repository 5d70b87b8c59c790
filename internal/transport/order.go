package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/marketplace/internal/models"
)

type AddCartItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

type CreateOrderItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// CreateOrderRequest places orders for Items, or for the whole cart when
// Items is empty. BillingAddress defaults to ShippingAddress.
type CreateOrderRequest struct {
	Items           []CreateOrderItem `json:"items"`
	ShippingAddress models.Address    `json:"shipping_address"`
	BillingAddress  *models.Address   `json:"billing_address"`
	PaymentMethod   string            `json:"payment_method"`
	Notes           string            `json:"notes"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

type UpdateOrderStatusRequest struct {
	Status            string     `json:"status"`
	TrackingNumber    string     `json:"tracking_number"`
	EstimatedDelivery *time.Time `json:"estimated_delivery"`
	Reason            string     `json:"reason"`
}

type CorrectOrderItemRequest struct {
	Quantity *int             `json:"quantity"`
	Price    *decimal.Decimal `json:"price"`
}

type CreatePaymentRequest struct {
	OrderID  uuid.UUID `json:"order_id"`
	Currency string    `json:"currency"`
}

type VerifyPaymentRequest struct {
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	Signature        string `json:"signature"`
}

// RefundRequest refunds the whole refundable amount when Amount is nil.
type RefundRequest struct {
	Amount *decimal.Decimal `json:"amount"`
	Reason string           `json:"reason"`
}
