package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/marketplace/internal/aggregate"
	"github.com/Skotchmaster/marketplace/internal/models"
)

type OrderScope struct {
	UserID   *uuid.UUID
	SellerID *uuid.UUID
	Status   string
}

// PlaceOrders stores the orders with their items, takes stock for every line
// and, when clearCart is set, empties the user's cart, all in one transaction.
func (r *GormRepo) PlaceOrders(ctx context.Context, orders []*models.Order, clearCart bool) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, o := range orders {
			for i := range o.Items {
				item := &o.Items[i]
				var product models.Product
				if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
					Where("id = ?", item.ProductID).
					First(&product).Error; err != nil {
					return err
				}
				if !product.IsActive {
					return ErrProductUnavailable
				}
				if product.Stock < item.Quantity {
					return ErrInsufficientStock
				}
				product.TakeStock(item.Quantity)
				if err := tx.Model(&models.Product{}).Where("id = ?", product.ID).Update("stock", product.Stock).Error; err != nil {
					return err
				}
				aggregate.ComputeOrderItemTotal(item)
			}
			if err := tx.Omit("Payment").Create(o).Error; err != nil {
				return err
			}
		}

		if clearCart && len(orders) > 0 {
			cart, err := cartFor(tx, orders[0].UserID)
			if err != nil {
				return err
			}
			return clearCartTx(ctx, tx, cart.ID)
		}
		return nil
	})
}

func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC").Order("id ASC") }).
		Preload("Payment").
		Where("id = ?", id).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) OrdersByIDs(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	if err := r.DB.WithContext(ctx).
		Preload("Items").
		Where("user_id = ? AND id IN ?", userID, ids).
		Order("created_at ASC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormRepo) ListOrders(ctx context.Context, scope OrderScope, offset, limit int) (int64, []models.Order, error) {
	q := func() *gorm.DB {
		q := r.DB.WithContext(ctx).Model(&models.Order{})
		if scope.UserID != nil {
			q = q.Where("user_id = ?", *scope.UserID)
		}
		if scope.SellerID != nil {
			q = q.Where("seller_id = ?", *scope.SellerID)
		}
		if scope.Status != "" {
			q = q.Where("status = ?", scope.Status)
		}
		return q
	}

	var total int64
	if err := q().Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var orders []models.Order
	if err := q().Preload("Items").Order("created_at DESC").Order("id ASC").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

// UpdateOrder locks the order, applies change and saves it. Moving an order
// into cancelled returns its items to stock.
func (r *GormRepo) UpdateOrder(ctx context.Context, id uuid.UUID, change func(o *models.Order) error) (*models.Order, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&order).Error; err != nil {
			return err
		}
		before := order.Status
		if err := change(&order); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Save(&order).Error; err != nil {
			return err
		}
		if before != models.OrderStatusCancelled && order.Status == models.OrderStatusCancelled {
			return restock(tx, order.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetOrder(ctx, id)
}

func restock(tx *gorm.DB, orderID uuid.UUID) error {
	var items []models.OrderItem
	if err := tx.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return err
	}
	for _, it := range items {
		if err := tx.Model(&models.Product{}).
			Where("id = ?", it.ProductID).
			Update("stock", gorm.Expr("stock + ?", it.Quantity)).Error; err != nil {
			return err
		}
	}
	return nil
}

// CorrectOrderItem changes quantity and/or price of one line, then recomputes
// the line total and the order totals.
func (r *GormRepo) CorrectOrderItem(ctx context.Context, orderID, itemID uuid.UUID, quantity *int, price *decimal.Decimal) (*models.Order, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.OrderItem
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND order_id = ?", itemID, orderID).
			First(&item).Error; err != nil {
			return err
		}
		if quantity != nil {
			item.Quantity = *quantity
		}
		if price != nil {
			item.Price = *price
		}
		aggregate.ComputeOrderItemTotal(&item)
		if err := tx.Model(&item).Updates(map[string]any{
			"quantity": item.Quantity,
			"price":    item.Price,
			"total":    item.Total,
		}).Error; err != nil {
			return err
		}
		return aggregate.OnOrderItemChanged(ctx, tx, orderID)
	})
	if err != nil {
		return nil, err
	}
	return r.GetOrder(ctx, orderID)
}

// HasDeliveredOrderWith backs the verified purchase flag on reviews.
func (r *GormRepo) HasDeliveredOrderWith(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND orders.status = ? AND order_items.product_id = ?", userID, models.OrderStatusDelivered, productID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
