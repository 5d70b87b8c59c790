package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/logging"
	"github.com/Skotchmaster/marketplace/internal/metrics"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/mykafka"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/transport"
)

const DefaultCurrency = "INR"

type PaymentService struct {
	Repo   *repo.GormRepo
	Secret []byte
	Events mykafka.Publisher
}

// Sign is the gateway signature: hex HMAC-SHA256 of "<gateway order id>|<gateway payment id>".
func Sign(secret []byte, gatewayOrderID, gatewayPaymentID string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *PaymentService) validSignature(req transport.VerifyPaymentRequest) bool {
	want := Sign(s.Secret, req.GatewayOrderID, req.GatewayPaymentID)
	return hmac.Equal([]byte(want), []byte(strings.ToLower(req.Signature)))
}

func newGatewayOrderID() string {
	return "order_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14]
}

// CreateOrder opens a gateway order for one of the caller's orders. Calling it
// again for a pending payment returns the same record.
func (s *PaymentService) CreateOrder(ctx context.Context, actor Actor, req transport.CreatePaymentRequest) (*models.Payment, error) {
	l := logging.FromContext(ctx).With("svc", "payment.create_order", "order_id", req.OrderID)

	if req.OrderID == uuid.Nil {
		return nil, fmt.Errorf("%w: order_id required", ErrValidation)
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	if len(currency) != 3 {
		return nil, fmt.Errorf("%w: currency must be a 3 letter code", ErrValidation)
	}

	order, err := s.Repo.GetOrder(ctx, req.OrderID)
	if err != nil {
		return nil, dbErr(err, "order")
	}
	if order.UserID != actor.UserID {
		return nil, fmt.Errorf("%w: not your order", ErrForbidden)
	}
	if order.Status != models.OrderStatusPending {
		return nil, fmt.Errorf("%w: cannot pay for %s order", models.ErrInvalidStateTransition, order.Status)
	}

	existing, err := s.Repo.GetPaymentByOrder(ctx, order.ID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		return nil, err
	case existing.Status == models.PaymentStatusPending:
		return existing, nil
	case existing.Status == models.PaymentStatusFailed:
		// a failed attempt is reopened under a fresh gateway order
		existing.Status = models.PaymentStatusPending
		existing.GatewayOrderID = newGatewayOrderID()
		existing.GatewayPaymentID = nil
		existing.FailureReason, existing.FailureCode = "", ""
		existing.ProcessedAt = nil
		existing.Amount = order.Total
		existing.Currency = currency
		if err := s.Repo.SavePayment(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	default:
		return nil, fmt.Errorf("%w: order is already paid", ErrConflict)
	}

	p := &models.Payment{
		OrderID:        order.ID,
		Amount:         order.Total,
		Currency:       currency,
		Status:         models.PaymentStatusPending,
		PaymentMethod:  order.PaymentMethod,
		GatewayOrderID: newGatewayOrderID(),
	}
	if err := s.Repo.CreatePayment(ctx, p); err != nil {
		return nil, dbErr(err, "payment")
	}
	l.Info("payment_created", "payment_id", p.ID, "amount", p.Amount.String())
	return p, nil
}

// Verify checks the gateway signature. A good signature completes the payment
// and confirms the order; a bad one records the payment as failed.
func (s *PaymentService) Verify(ctx context.Context, actor Actor, req transport.VerifyPaymentRequest) (*models.Payment, error) {
	l := logging.FromContext(ctx).With("svc", "payment.verify", "gateway_order_id", req.GatewayOrderID)

	if req.GatewayOrderID == "" || req.GatewayPaymentID == "" || req.Signature == "" {
		return nil, fmt.Errorf("%w: gateway_order_id, gateway_payment_id and signature are required", ErrValidation)
	}
	found, err := s.Repo.GetPaymentByGatewayOrder(ctx, req.GatewayOrderID)
	if err != nil {
		return nil, dbErr(err, "payment")
	}

	valid := s.validSignature(req)
	p, err := s.Repo.UpdatePayment(ctx, found.ID, func(p *models.Payment, o *models.Order) error {
		if !actor.owns(o.UserID) {
			return fmt.Errorf("%w: not your order", ErrForbidden)
		}
		if p.Status != models.PaymentStatusPending {
			return fmt.Errorf("%w: payment is %s", models.ErrInvalidStateTransition, p.Status)
		}
		if !valid {
			p.MarkAsFailed("signature mismatch", "SIGNATURE_MISMATCH")
			o.UpdatePaymentStatus(p.Status)
			return nil
		}
		if o.Status != models.OrderStatusPending {
			return fmt.Errorf("%w: cannot capture payment for %s order", models.ErrInvalidStateTransition, o.Status)
		}
		gatewayPaymentID := req.GatewayPaymentID
		p.GatewayPaymentID = &gatewayPaymentID
		p.MarkAsCompleted(map[string]any{
			"gateway_order_id":   req.GatewayOrderID,
			"gateway_payment_id": req.GatewayPaymentID,
			"signature":          req.Signature,
		})
		o.UpdatePaymentStatus(p.Status)
		return nil
	})
	if err != nil {
		return nil, dbErr(err, "payment")
	}

	metrics.PaymentsTotal.WithLabelValues(p.Status).Inc()
	mykafka.Publish(ctx, s.Events, mykafka.TopicPayments, p.OrderID.String(), "payment."+p.Status, p)
	if !valid {
		l.Warn("payment_signature_mismatch", "payment_id", p.ID)
		return nil, fmt.Errorf("%w: invalid payment signature", ErrValidation)
	}
	l.Info("payment_completed", "payment_id", p.ID)
	return p, nil
}

// Refund is admin only. A nil amount refunds everything refundable.
func (s *PaymentService) Refund(ctx context.Context, actor Actor, id uuid.UUID, req transport.RefundRequest) (*models.Payment, error) {
	l := logging.FromContext(ctx).With("svc", "payment.refund", "payment_id", id)

	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: admin role required", ErrForbidden)
	}
	p, err := s.Repo.UpdatePayment(ctx, id, func(p *models.Payment, o *models.Order) error {
		if !p.IsRefundable() {
			return fmt.Errorf("%w: payment is %s", models.ErrInvalidStateTransition, p.Status)
		}
		amount := p.RefundableAmount()
		if req.Amount != nil {
			amount = *req.Amount
		}
		if err := p.Refund(amount, req.Reason); err != nil {
			return err
		}
		o.UpdatePaymentStatus(p.Status)
		return nil
	})
	if err != nil {
		return nil, dbErr(err, "payment")
	}

	metrics.PaymentsTotal.WithLabelValues(p.Status).Inc()
	mykafka.Publish(ctx, s.Events, mykafka.TopicPayments, p.OrderID.String(), "payment.refunded", p)
	l.Info("payment_refunded", "amount", p.RefundAmount.String())
	return p, nil
}
