package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Payment struct {
	ID               uuid.UUID        `gorm:"type:uuid;primaryKey"                  json:"id"`
	OrderID          uuid.UUID        `gorm:"type:uuid;uniqueIndex;not null"        json:"order_id"`
	Amount           decimal.Decimal  `gorm:"type:decimal(10,2);not null"           json:"amount"`
	Currency         string           `gorm:"not null;default:INR;size:3"           json:"currency"`
	Status           string           `gorm:"not null;default:pending;size:20"      json:"status"`
	PaymentMethod    string           `gorm:"not null;size:50"                      json:"payment_method"`
	GatewayPaymentID *string          `gorm:"uniqueIndex;size:100"                  json:"gateway_payment_id,omitempty"`
	GatewayOrderID   string           `gorm:"index;size:100"                        json:"gateway_order_id,omitempty"`
	TransactionID    *string          `gorm:"uniqueIndex;size:100"                  json:"transaction_id,omitempty"`
	GatewayResponse  map[string]any   `gorm:"serializer:json"                       json:"gateway_response,omitempty"`
	RefundAmount     *decimal.Decimal `gorm:"type:decimal(10,2)"                    json:"refund_amount,omitempty"`
	RefundReason     string           `gorm:"type:text"                             json:"refund_reason,omitempty"`
	RefundedAt       *time.Time       `                                             json:"refunded_at,omitempty"`
	FailureReason    string           `gorm:"type:text"                             json:"failure_reason,omitempty"`
	FailureCode      string           `gorm:"size:50"                               json:"failure_code,omitempty"`
	ProcessedAt      *time.Time       `                                             json:"processed_at,omitempty"`
	CreatedAt        time.Time        `                                             json:"created_at"`
	UpdatedAt        time.Time        `                                             json:"updated_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) MarkAsCompleted(gatewayResponse map[string]any) {
	now := time.Now().UTC()
	p.Status = PaymentStatusCompleted
	p.GatewayResponse = gatewayResponse
	p.ProcessedAt = &now
}

func (p *Payment) MarkAsFailed(reason, code string) {
	now := time.Now().UTC()
	p.Status = PaymentStatusFailed
	p.FailureReason = reason
	p.FailureCode = code
	p.ProcessedAt = &now
}

// Refund records a single refund. A second refund is rejected because the
// record keeps one refund value, not a ledger.
func (p *Payment) Refund(amount decimal.Decimal, reason string) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: refund must be positive", ErrInvalidAmount)
	}
	if amount.GreaterThan(p.Amount) {
		return fmt.Errorf("%w: refund %s exceeds paid %s", ErrInvalidAmount, amount, p.Amount)
	}
	if !p.IsRefundable() {
		return fmt.Errorf("%w: payment is %s", ErrInvalidStateTransition, p.Status)
	}
	now := time.Now().UTC()
	p.Status = PaymentStatusRefunded
	p.RefundAmount = &amount
	p.RefundReason = reason
	p.RefundedAt = &now
	return nil
}

func (p *Payment) IsRefundable() bool {
	return p.Status == PaymentStatusCompleted && (p.RefundAmount == nil || p.RefundAmount.IsZero())
}

func (p *Payment) RefundableAmount() decimal.Decimal {
	if p.Status != PaymentStatusCompleted {
		return decimal.Zero
	}
	if p.RefundAmount == nil {
		return p.Amount
	}
	return p.Amount.Sub(*p.RefundAmount)
}
