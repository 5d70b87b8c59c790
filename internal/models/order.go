package models

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

const DefaultPaymentMethod = "razorpay"

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// Validate reports the first missing field. All five are required.
func (a Address) Validate() error {
	fields := []struct {
		name, value string
	}{
		{"street", a.Street},
		{"city", a.City},
		{"state", a.State},
		{"zipCode", a.ZipCode},
		{"country", a.Country},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("address %s is required", f.name)
		}
	}
	return nil
}

type Order struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"                  json:"id"`
	UserID            uuid.UUID       `gorm:"type:uuid;index;not null"              json:"user_id"`
	SellerID          uuid.UUID       `gorm:"type:uuid;index;not null"              json:"seller_id"`
	Status            string          `gorm:"not null;default:pending;size:20;index" json:"status"`
	Subtotal          decimal.Decimal `gorm:"type:decimal(10,2);not null"           json:"subtotal"`
	Tax               decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"tax"`
	Shipping          decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"shipping"`
	Discount          decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"discount"`
	Total             decimal.Decimal `gorm:"type:decimal(10,2);not null"           json:"total"`
	PaymentStatus     string          `gorm:"not null;default:pending;size:20"      json:"payment_status"`
	PaymentMethod     string          `gorm:"not null;default:razorpay;size:50"     json:"payment_method"`
	ShippingAddress   Address         `gorm:"serializer:json;not null"              json:"shipping_address"`
	BillingAddress    Address         `gorm:"serializer:json;not null"              json:"billing_address"`
	Notes             string          `gorm:"type:text"                             json:"notes,omitempty"`
	TrackingNumber    string          `gorm:"size:100"                              json:"tracking_number,omitempty"`
	EstimatedDelivery *time.Time      `                                             json:"estimated_delivery,omitempty"`
	ShippedAt         *time.Time      `                                             json:"shipped_at,omitempty"`
	DeliveredAt       *time.Time      `                                             json:"delivered_at,omitempty"`
	CancelledAt       *time.Time      `                                             json:"cancelled_at,omitempty"`
	CancelReason      string          `gorm:"type:text"                             json:"cancel_reason,omitempty"`
	CreatedAt         time.Time       `                                             json:"created_at"`
	UpdatedAt         time.Time       `                                             json:"updated_at"`

	Items   []OrderItem `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"items,omitempty"`
	Payment *Payment    `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"payment,omitempty"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

func (Order) TableName() string {
	return "orders"
}

func (o *Order) CanBeCancelled() bool {
	return slices.Contains([]string{OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing}, o.Status)
}

func (o *Order) CanBeShipped() bool {
	return o.Status == OrderStatusConfirmed || o.Status == OrderStatusProcessing
}

func (o *Order) Cancel(reason string) error {
	if !o.CanBeCancelled() {
		return fmt.Errorf("%w: cannot cancel %s order", ErrInvalidStateTransition, o.Status)
	}
	now := time.Now().UTC()
	o.Status = OrderStatusCancelled
	o.CancelledAt = &now
	o.CancelReason = reason
	return nil
}

func (o *Order) MarkAsProcessing() error {
	if o.Status != OrderStatusConfirmed {
		return fmt.Errorf("%w: cannot process %s order", ErrInvalidStateTransition, o.Status)
	}
	o.Status = OrderStatusProcessing
	return nil
}

func (o *Order) MarkAsShipped(trackingNumber string) error {
	if !o.CanBeShipped() {
		return fmt.Errorf("%w: cannot ship %s order", ErrInvalidStateTransition, o.Status)
	}
	now := time.Now().UTC()
	o.Status = OrderStatusShipped
	o.ShippedAt = &now
	if trackingNumber != "" {
		o.TrackingNumber = trackingNumber
	}
	return nil
}

func (o *Order) MarkAsDelivered() error {
	if o.Status != OrderStatusShipped {
		return fmt.Errorf("%w: cannot deliver %s order", ErrInvalidStateTransition, o.Status)
	}
	now := time.Now().UTC()
	o.Status = OrderStatusDelivered
	o.DeliveredAt = &now
	return nil
}

// UpdatePaymentStatus is the only place payment status feeds back into the
// order status.
func (o *Order) UpdatePaymentStatus(status string) {
	o.PaymentStatus = status
	switch {
	case status == PaymentStatusCompleted && o.Status == OrderStatusPending:
		o.Status = OrderStatusConfirmed
	case status == PaymentStatusRefunded:
		o.Status = OrderStatusRefunded
	}
}

// ProductSnapshot is the copy of product data taken when the order is placed.
type ProductSnapshot struct {
	Name   string          `json:"name"`
	SKU    string          `json:"sku"`
	Price  decimal.Decimal `json:"price"`
	Images []string        `json:"images,omitempty"`
}

type OrderItem struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"                  json:"id"`
	OrderID         uuid.UUID       `gorm:"type:uuid;index;not null"              json:"order_id"`
	ProductID       uuid.UUID       `gorm:"type:uuid;index;not null"              json:"product_id"`
	Quantity        int             `gorm:"not null;check:quantity >= 1"          json:"quantity"`
	Price           decimal.Decimal `gorm:"type:decimal(10,2);not null"           json:"price"`
	Total           decimal.Decimal `gorm:"type:decimal(10,2);not null"           json:"total"`
	ProductSnapshot ProductSnapshot `gorm:"serializer:json"                       json:"product_snapshot"`
	CreatedAt       time.Time       `                                             json:"created_at"`
	UpdatedAt       time.Time       `                                             json:"updated_at"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

func (OrderItem) TableName() string {
	return "order_items"
}
