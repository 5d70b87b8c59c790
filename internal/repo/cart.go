package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/marketplace/internal/aggregate"
	"github.com/Skotchmaster/marketplace/internal/models"
)

// cartFor returns the user's cart, creating it on first use.
func cartFor(tx *gorm.DB, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	if err := tx.Where("user_id = ?", userID).FirstOrCreate(&cart, models.Cart{UserID: userID}).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func loadCart(tx *gorm.DB, cartID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	if err := tx.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC").Order("id ASC") }).
		Preload("Items.Product").
		Where("id = ?", cartID).
		First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *GormRepo) GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	db := r.DB.WithContext(ctx)
	cart, err := cartFor(db, userID)
	if err != nil {
		return nil, err
	}
	return loadCart(db, cart.ID)
}

// AddToCart adds quantity of a product to the user's cart. An existing line is
// increased, a new line snapshots the current product price.
func (r *GormRepo) AddToCart(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.Cart, error) {
	var out *models.Cart
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := cartFor(tx, userID)
		if err != nil {
			return err
		}

		var product models.Product
		if err := tx.Where("id = ?", productID).First(&product).Error; err != nil {
			return err
		}
		if !product.IsActive {
			return ErrProductUnavailable
		}

		var item models.CartItem
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("cart_id = ? AND product_id = ?", cart.ID, productID).
			First(&item).Error
		switch {
		case err == nil:
			if item.Quantity+quantity > product.Stock {
				return ErrInsufficientStock
			}
			if err := tx.Model(&item).Update("quantity", item.Quantity+quantity).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if quantity > product.Stock {
				return ErrInsufficientStock
			}
			item = models.CartItem{CartID: cart.ID, ProductID: productID, Quantity: quantity}
			if err := aggregate.SetCartItemPrice(ctx, tx, &item); err != nil {
				return err
			}
			if err := tx.Omit(clause.Associations).Create(&item).Error; err != nil {
				return err
			}
		default:
			return err
		}

		if err := aggregate.OnCartItemChanged(ctx, tx, cart.ID); err != nil {
			return err
		}
		out, err = loadCart(tx, cart.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetCartItemQuantity sets the quantity of one line. Zero or less removes the
// line, and removing a line that is already gone is a no-op.
func (r *GormRepo) SetCartItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*models.Cart, error) {
	var out *models.Cart
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := cartFor(tx, userID)
		if err != nil {
			return err
		}

		var item models.CartItem
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND cart_id = ?", itemID, cart.ID).
			First(&item).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound) && quantity <= 0:
			out, err = loadCart(tx, cart.ID)
			return err
		case err != nil:
			return err
		}

		if quantity <= 0 {
			if err := tx.Delete(&models.CartItem{}, "id = ?", item.ID).Error; err != nil {
				return err
			}
		} else {
			var product models.Product
			if err := tx.Select("id", "stock").Where("id = ?", item.ProductID).First(&product).Error; err != nil {
				return err
			}
			if quantity > product.Stock {
				return ErrInsufficientStock
			}
			if err := tx.Model(&item).Update("quantity", quantity).Error; err != nil {
				return err
			}
		}

		if err := aggregate.OnCartItemChanged(ctx, tx, cart.ID); err != nil {
			return err
		}
		out, err = loadCart(tx, cart.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormRepo) RemoveCartItem(ctx context.Context, userID, itemID uuid.UUID) (*models.Cart, error) {
	return r.SetCartItemQuantity(ctx, userID, itemID, 0)
}

func (r *GormRepo) ClearCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var out *models.Cart
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := cartFor(tx, userID)
		if err != nil {
			return err
		}
		if err := clearCartTx(ctx, tx, cart.ID); err != nil {
			return err
		}
		out, err = loadCart(tx, cart.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func clearCartTx(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) error {
	if err := tx.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	return aggregate.OnCartItemChanged(ctx, tx, cartID)
}
