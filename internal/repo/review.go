package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/marketplace/internal/aggregate"
	"github.com/Skotchmaster/marketplace/internal/models"
)

func (r *GormRepo) GetReview(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var rev models.Review
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&rev).Error; err != nil {
		return nil, err
	}
	return &rev, nil
}

func (r *GormRepo) ReviewExists(ctx context.Context, productID, userID uuid.UUID) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Review{}).
		Where("product_id = ? AND user_id = ?", productID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepo) ListProductReviews(ctx context.Context, productID uuid.UUID, status string, offset, limit int) (int64, []models.Review, error) {
	q := func() *gorm.DB {
		q := r.DB.WithContext(ctx).Model(&models.Review{}).Where("product_id = ?", productID)
		if status != "" {
			q = q.Where("status = ?", status)
		}
		return q
	}

	var total int64
	if err := q().Count(&total).Error; err != nil {
		return 0, nil, err
	}
	var items []models.Review
	if err := q().Preload("User").Order("created_at DESC").Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// CreateReview stores the review and refreshes the product rating.
func (r *GormRepo) CreateReview(ctx context.Context, rev *models.Review) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(rev).Error; err != nil {
			return err
		}
		return aggregate.OnReviewChanged(ctx, tx, rev.ProductID)
	})
}

// SaveReview persists rev. recompute is false for edits that touch neither
// rating nor status, which cannot move the product rating.
func (r *GormRepo) SaveReview(ctx context.Context, rev *models.Review, recompute bool) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(rev).Error; err != nil {
			return err
		}
		if !recompute {
			return nil
		}
		return aggregate.OnReviewChanged(ctx, tx, rev.ProductID)
	})
}

func (r *GormRepo) DeleteReview(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rev models.Review
		if err := tx.Where("id = ?", id).First(&rev).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Review{}, "id = ?", id).Error; err != nil {
			return err
		}
		return aggregate.OnReviewChanged(ctx, tx, rev.ProductID)
	})
}

func (r *GormRepo) IncrementHelpful(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	res := r.DB.WithContext(ctx).Model(&models.Review{}).
		Where("id = ?", id).
		Update("helpful", gorm.Expr("helpful + 1"))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetReview(ctx, id)
}
