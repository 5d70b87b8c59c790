package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/marketplace/internal/models"
)

func (r *GormRepo) GetPayment(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var p models.Payment
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) GetPaymentByOrder(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	var p models.Payment
	if err := r.DB.WithContext(ctx).Where("order_id = ?", orderID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) GetPaymentByGatewayOrder(ctx context.Context, gatewayOrderID string) (*models.Payment, error) {
	var p models.Payment
	if err := r.DB.WithContext(ctx).Where("gateway_order_id = ?", gatewayOrderID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) CreatePayment(ctx context.Context, p *models.Payment) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *GormRepo) SavePayment(ctx context.Context, p *models.Payment) error {
	return r.DB.WithContext(ctx).Save(p).Error
}

// UpdatePayment locks a payment and its order, applies change to both and
// saves them together. Payment status feeds the order through
// Order.UpdatePaymentStatus inside change.
func (r *GormRepo) UpdatePayment(ctx context.Context, id uuid.UUID, change func(p *models.Payment, o *models.Order) error) (*models.Payment, error) {
	var out models.Payment
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&out).Error; err != nil {
			return err
		}
		var order models.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", out.OrderID).First(&order).Error; err != nil {
			return err
		}
		if err := change(&out, &order); err != nil {
			return err
		}
		if err := tx.Save(&out).Error; err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Save(&order).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
