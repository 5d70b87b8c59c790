package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/aggregate"
	"github.com/Skotchmaster/marketplace/internal/cache"
	"github.com/Skotchmaster/marketplace/internal/config"
	"github.com/Skotchmaster/marketplace/internal/logging"
	"github.com/Skotchmaster/marketplace/internal/metrics"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/mykafka"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/internal/util"
)

type OrderService struct {
	Repo        *repo.GormRepo
	Pricing     config.Pricing
	Idempotency cache.IdempotencyStore
	Events      mykafka.Publisher
}

// OrderListQuery selects whose orders are listed. AsSeller lists the orders
// placed with the caller as seller instead of the caller's purchases.
type OrderListQuery struct {
	Status   string
	AsSeller bool
}

type orderLine struct {
	product  models.Product
	quantity int
}

// Price fills subtotal, tax, shipping and total from the order's items.
func (s *OrderService) Price(o *models.Order) {
	subtotal := decimal.Zero
	for i := range o.Items {
		aggregate.ComputeOrderItemTotal(&o.Items[i])
		subtotal = subtotal.Add(o.Items[i].Total)
	}
	o.Subtotal = subtotal
	o.Tax = subtotal.Mul(s.Pricing.TaxRate).Round(2)
	o.Shipping = s.Pricing.ShippingFee
	if s.Pricing.FreeShippingThreshold.IsPositive() && subtotal.GreaterThanOrEqual(s.Pricing.FreeShippingThreshold) {
		o.Shipping = decimal.Zero
	}
	o.Total = aggregate.OrderTotal(o.Subtotal, o.Tax, o.Shipping, o.Discount)
}

// CreateOrders places one order per seller. With no items in the request the
// cart is ordered and emptied in the same transaction. A repeated
// idempotency key returns the orders of the first request.
func (s *OrderService) CreateOrders(ctx context.Context, userID uuid.UUID, req transport.CreateOrderRequest, idemKey string) ([]models.Order, error) {
	if idemKey == "" || s.Idempotency == nil {
		return s.createOrders(ctx, userID, req)
	}

	key := userID.String() + ":" + idemKey
	prev, owner, err := s.Idempotency.Claim(ctx, key)
	switch {
	case errors.Is(err, cache.ErrInFlight):
		return nil, fmt.Errorf("%w: request with this idempotency key is in progress", ErrConflict)
	case err != nil:
		logging.FromContext(ctx).Warn("idempotency_unavailable", "svc", "order.create", "error", err)
		return s.createOrders(ctx, userID, req)
	case !owner:
		return s.replay(ctx, userID, prev)
	}

	out, err := s.createOrders(ctx, userID, req)
	if err != nil {
		// a failed request does not consume the key, so the client may retry
		if rerr := s.Idempotency.Release(context.WithoutCancel(ctx), key); rerr != nil {
			logging.FromContext(ctx).Warn("idempotency_release_failed", "error", rerr)
		}
		return nil, err
	}
	s.completeKey(ctx, key, out)
	return out, nil
}

func (s *OrderService) completeKey(ctx context.Context, key string, out []models.Order) {
	ids := make([]string, len(out))
	for i := range out {
		ids[i] = out[i].ID.String()
	}
	if err := s.Idempotency.Complete(context.WithoutCancel(ctx), key, strings.Join(ids, ",")); err != nil {
		logging.FromContext(ctx).Warn("idempotency_complete_failed", "error", err)
	}
}

func (s *OrderService) replay(ctx context.Context, userID uuid.UUID, stored string) ([]models.Order, error) {
	var ids []uuid.UUID
	for _, part := range strings.Split(stored, ",") {
		id, err := uuid.Parse(part)
		if err != nil {
			return nil, fmt.Errorf("%w: corrupt idempotency record", ErrUpstream)
		}
		ids = append(ids, id)
	}
	return s.Repo.OrdersByIDs(ctx, userID, ids)
}

func (s *OrderService) createOrders(ctx context.Context, userID uuid.UUID, req transport.CreateOrderRequest) ([]models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.create", "user_id", userID)

	if err := req.ShippingAddress.Validate(); err != nil {
		return nil, fmt.Errorf("%w: shipping %w", ErrValidation, err)
	}
	billing := req.ShippingAddress
	if req.BillingAddress != nil {
		if err := req.BillingAddress.Validate(); err != nil {
			return nil, fmt.Errorf("%w: billing %w", ErrValidation, err)
		}
		billing = *req.BillingAddress
	}
	method := strings.TrimSpace(req.PaymentMethod)
	if method == "" {
		method = models.DefaultPaymentMethod
	}

	items := req.Items
	fromCart := len(items) == 0
	if fromCart {
		cart, err := s.Repo.GetCart(ctx, userID)
		if err != nil {
			return nil, err
		}
		for _, it := range cart.Items {
			items = append(items, transport.CreateOrderItem{ProductID: it.ProductID, Quantity: it.Quantity})
		}
		if len(items) == 0 {
			return nil, fmt.Errorf("%w: cart is empty", ErrValidation)
		}
	}

	lines, err := s.resolveLines(ctx, items)
	if err != nil {
		return nil, err
	}

	// one order per seller, in order of first appearance
	var placed []*models.Order
	bySeller := make(map[uuid.UUID]*models.Order)
	for _, ln := range lines {
		o, ok := bySeller[ln.product.SellerID]
		if !ok {
			o = &models.Order{
				UserID:          userID,
				SellerID:        ln.product.SellerID,
				Status:          models.OrderStatusPending,
				PaymentStatus:   models.PaymentStatusPending,
				PaymentMethod:   method,
				ShippingAddress: req.ShippingAddress,
				BillingAddress:  billing,
				Notes:           req.Notes,
			}
			bySeller[ln.product.SellerID] = o
			placed = append(placed, o)
		}
		o.Items = append(o.Items, models.OrderItem{
			ProductID: ln.product.ID,
			Quantity:  ln.quantity,
			Price:     ln.product.Price,
			ProductSnapshot: models.ProductSnapshot{
				Name:   ln.product.Name,
				SKU:    ln.product.SKU,
				Price:  ln.product.Price,
				Images: ln.product.Images,
			},
		})
	}
	for _, o := range placed {
		s.Price(o)
	}

	if err := s.Repo.PlaceOrders(ctx, placed, fromCart); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product not found", ErrValidation)
		}
		return nil, stockErr(err)
	}

	out := make([]models.Order, len(placed))
	for i, o := range placed {
		out[i] = *o
		mykafka.Publish(ctx, s.Events, mykafka.TopicOrders, o.ID.String(), "order.created", o)
	}
	metrics.OrdersCreatedTotal.Add(float64(len(out)))
	l.Info("orders_created", "count", len(out), "from_cart", fromCart)
	return out, nil
}

// resolveLines merges duplicate products and loads the active products.
func (s *OrderService) resolveLines(ctx context.Context, items []transport.CreateOrderItem) ([]orderLine, error) {
	qty := make(map[uuid.UUID]int)
	var ids []uuid.UUID
	for _, it := range items {
		if it.ProductID == uuid.Nil {
			return nil, fmt.Errorf("%w: product_id required", ErrValidation)
		}
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
		}
		if _, seen := qty[it.ProductID]; !seen {
			ids = append(ids, it.ProductID)
		}
		qty[it.ProductID] += it.Quantity
	}

	products, err := s.Repo.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(products) != len(ids) {
		found := make(map[uuid.UUID]bool, len(products))
		for _, p := range products {
			found[p.ID] = true
		}
		for _, id := range ids {
			if !found[id] {
				return nil, fmt.Errorf("%w: product %s is not available", ErrValidation, id)
			}
		}
	}

	lines := make([]orderLine, len(products))
	for i, p := range products {
		if p.Stock < qty[p.ID] {
			return nil, fmt.Errorf("%w: insufficient stock for %s", ErrValidation, p.Name)
		}
		lines[i] = orderLine{product: p, quantity: qty[p.ID]}
	}
	return lines, nil
}

func (s *OrderService) ListOrders(ctx context.Context, actor Actor, q OrderListQuery, page util.Page) (int64, []models.Order, error) {
	var scope repo.OrderScope
	switch {
	case q.AsSeller:
		if !actor.IsSeller() {
			return 0, nil, fmt.Errorf("%w: seller role required", ErrForbidden)
		}
		scope.SellerID = &actor.UserID
	default:
		scope.UserID = &actor.UserID
	}
	scope.Status = q.Status
	return s.Repo.ListOrders(ctx, scope, page.Offset, page.Limit)
}

// GetOrder is visible to the buyer, the seller and admins.
func (s *OrderService) GetOrder(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error) {
	o, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		return nil, dbErr(err, "order")
	}
	if !actor.owns(o.UserID) && o.SellerID != actor.UserID {
		return nil, fmt.Errorf("%w: not your order", ErrForbidden)
	}
	return o, nil
}

// CancelOrder cancels the caller's own order and puts its items back in stock.
func (s *OrderService) CancelOrder(ctx context.Context, actor Actor, id uuid.UUID, reason string) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.cancel", "order_id", id)

	o, err := s.Repo.UpdateOrder(ctx, id, func(o *models.Order) error {
		if o.UserID != actor.UserID {
			return fmt.Errorf("%w: not your order", ErrForbidden)
		}
		return o.Cancel(reason)
	})
	if err != nil {
		return nil, dbErr(err, "order")
	}
	metrics.OrdersCancelledTotal.Inc()
	l.Info("order_cancelled")
	mykafka.Publish(ctx, s.Events, mykafka.TopicOrders, o.ID.String(), "order.cancelled", o)
	return o, nil
}

// UpdateStatus moves an order forward on behalf of its seller or an admin.
func (s *OrderService) UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, req transport.UpdateOrderStatusRequest) (*models.Order, error) {
	if !actor.IsSeller() {
		return nil, fmt.Errorf("%w: seller role required", ErrForbidden)
	}
	switch req.Status {
	case models.OrderStatusProcessing, models.OrderStatusShipped, models.OrderStatusDelivered, models.OrderStatusCancelled:
	default:
		return nil, fmt.Errorf("%w: unsupported status %q", ErrValidation, req.Status)
	}

	o, err := s.Repo.UpdateOrder(ctx, id, func(o *models.Order) error {
		if !actor.owns(o.SellerID) {
			return fmt.Errorf("%w: not your order", ErrForbidden)
		}
		switch req.Status {
		case models.OrderStatusProcessing:
			return o.MarkAsProcessing()
		case models.OrderStatusShipped:
			if err := o.MarkAsShipped(strings.TrimSpace(req.TrackingNumber)); err != nil {
				return err
			}
			o.EstimatedDelivery = req.EstimatedDelivery
			return nil
		case models.OrderStatusDelivered:
			return o.MarkAsDelivered()
		default:
			return o.Cancel(req.Reason)
		}
	})
	if err != nil {
		return nil, dbErr(err, "order")
	}
	if o.Status == models.OrderStatusCancelled {
		metrics.OrdersCancelledTotal.Inc()
	}
	mykafka.Publish(ctx, s.Events, mykafka.TopicOrders, o.ID.String(), "order.status_changed", map[string]any{
		"id":     o.ID,
		"status": o.Status,
	})
	return o, nil
}

// CorrectItem is the admin correction of a placed line. Stock is not adjusted.
func (s *OrderService) CorrectItem(ctx context.Context, actor Actor, orderID, itemID uuid.UUID, req transport.CorrectOrderItemRequest) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.correct_item", "order_id", orderID, "item_id", itemID)

	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: admin role required", ErrForbidden)
	}
	if req.Quantity == nil && req.Price == nil {
		return nil, fmt.Errorf("%w: quantity or price required", ErrValidation)
	}
	if req.Quantity != nil && *req.Quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be >= 1", ErrValidation)
	}
	if req.Price != nil && req.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}

	o, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, dbErr(err, "order")
	}
	if !o.CanBeCancelled() {
		return nil, fmt.Errorf("%w: cannot correct %s order", models.ErrInvalidStateTransition, o.Status)
	}

	o, err = s.Repo.CorrectOrderItem(ctx, orderID, itemID, req.Quantity, req.Price)
	if err != nil {
		return nil, dbErr(err, "order item")
	}
	l.Info("order_item_corrected", "total", o.Total)
	return o, nil
}
