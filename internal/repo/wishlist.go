package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/marketplace/internal/models"
)

func (r *GormRepo) ListWishlist(ctx context.Context, userID uuid.UUID) ([]models.Wishlist, error) {
	var items []models.Wishlist
	if err := r.DB.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) InWishlist(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Wishlist{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepo) AddToWishlist(ctx context.Context, w *models.Wishlist) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(w).Error
}

func (r *GormRepo) UpdateWishlistNotes(ctx context.Context, userID, id uuid.UUID, notes string) (*models.Wishlist, error) {
	res := r.DB.WithContext(ctx).Model(&models.Wishlist{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("notes", notes)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	var w models.Wishlist
	if err := r.DB.WithContext(ctx).Preload("Product").Where("id = ?", id).First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *GormRepo) RemoveFromWishlist(ctx context.Context, userID, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Wishlist{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
