// Package aggregate keeps denormalized totals in step with the rows they are
// derived from. Every function takes the caller's transaction so the
// triggering write and the recomputation commit together.
package aggregate

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/marketplace/internal/logging"
	"github.com/Skotchmaster/marketplace/internal/metrics"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/tracing"
)

const (
	kindCart    = "cart"
	kindProduct = "product"
	kindOrder   = "order"
)

// OnCartItemChanged re-derives Cart.Total and Cart.ItemCount from the cart's
// items. The stored item price is authoritative, current product prices are
// never consulted.
func OnCartItemChanged(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) (err error) {
	ctx, span := tracing.StartSpan(ctx, "aggregate.cart", attribute.String("cart_id", cartID.String()))
	defer func() { finish(ctx, span, kindCart, err) }()

	tx = tx.WithContext(ctx)

	var cart models.Cart
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", cartID).First(&cart).Error; err != nil {
		return err
	}

	var items []models.CartItem
	if err := tx.Where("cart_id = ?", cartID).Find(&items).Error; err != nil {
		return err
	}

	total, count := decimal.Zero, 0
	for i := range items {
		total = total.Add(items[i].Total())
		count += items[i].Quantity
	}

	return tx.Model(&models.Cart{}).Where("id = ?", cartID).Updates(map[string]any{
		"total":      total,
		"item_count": count,
	}).Error
}

// OnReviewChanged re-derives Product.Rating and Product.ReviewCount from the
// product's approved reviews. Rating is 0 when there are none.
func OnReviewChanged(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (err error) {
	ctx, span := tracing.StartSpan(ctx, "aggregate.product_rating", attribute.String("product_id", productID.String()))
	defer func() { finish(ctx, span, kindProduct, err) }()

	tx = tx.WithContext(ctx)

	// serialise concurrent moderations of the same product
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").Where("id = ?", productID).
		First(&models.Product{}).Error; err != nil {
		return err
	}

	var ratings []int
	if err := tx.Model(&models.Review{}).
		Where("product_id = ? AND status = ?", productID, models.ReviewStatusApproved).
		Pluck("rating", &ratings).Error; err != nil {
		return err
	}

	rating, count := MeanRating(ratings), len(ratings)

	res := tx.Model(&models.Product{}).Where("id = ?", productID).Updates(map[string]any{
		"rating":       rating,
		"review_count": count,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MeanRating rounds to two places, which is what the rating column stores.
func MeanRating(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	mean := float64(sum) / float64(len(ratings))
	return math.Round(mean*100) / 100
}

// SetCartItemPrice snapshots the product's current price onto an item that
// was not given one. The snapshot is never refreshed afterwards.
func SetCartItemPrice(ctx context.Context, tx *gorm.DB, item *models.CartItem) error {
	if !item.Price.IsZero() {
		return nil
	}
	var product models.Product
	if err := tx.WithContext(ctx).Select("id", "price").Where("id = ?", item.ProductID).First(&product).Error; err != nil {
		return fmt.Errorf("snapshot price: %w", err)
	}
	item.Price = product.Price
	return nil
}

// ComputeOrderItemTotal must run before any write that touches price or quantity.
func ComputeOrderItemTotal(item *models.OrderItem) {
	item.Total = item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
}

// OnOrderItemChanged re-derives an order's subtotal and total after an item
// correction. Tax, shipping and discount are kept as placed.
func OnOrderItemChanged(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (err error) {
	ctx, span := tracing.StartSpan(ctx, "aggregate.order", attribute.String("order_id", orderID.String()))
	defer func() { finish(ctx, span, kindOrder, err) }()

	tx = tx.WithContext(ctx)

	var order models.Order
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", orderID).First(&order).Error; err != nil {
		return err
	}

	var items []models.OrderItem
	if err := tx.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return err
	}

	subtotal := decimal.Zero
	for i := range items {
		subtotal = subtotal.Add(items[i].Total)
	}
	total := OrderTotal(subtotal, order.Tax, order.Shipping, order.Discount)

	return tx.Model(&models.Order{}).Where("id = ?", orderID).Updates(map[string]any{
		"subtotal": subtotal,
		"total":    total,
	}).Error
}

// OrderTotal clamps at zero so discounts never produce a negative charge.
func OrderTotal(subtotal, tax, shipping, discount decimal.Decimal) decimal.Decimal {
	total := subtotal.Add(tax).Add(shipping).Sub(discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

func finish(ctx context.Context, span trace.Span, kind string, err error) {
	metrics.AggregateRecomputeTotal.WithLabelValues(kind).Inc()
	if err != nil {
		metrics.AggregateRecomputeFailed.WithLabelValues(kind).Inc()
		logging.FromContext(ctx).Error("aggregate_recompute_failed", "kind", kind, "error", err)
	}
	tracing.End(span, err)
}
