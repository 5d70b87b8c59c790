package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/models"
)

func (r *GormRepo) ListCategories(ctx context.Context, includeInactive bool) ([]models.Category, error) {
	q := r.DB.WithContext(ctx).Model(&models.Category{})
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	var items []models.Category
	if err := q.Order("sort_order ASC").Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var c models.Category
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormRepo) SlugTaken(ctx context.Context, slug string, except uuid.UUID) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Category{}).
		Where("slug = ? AND id <> ?", slug, except).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepo) CreateCategory(ctx context.Context, c *models.Category) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *GormRepo) SaveCategory(ctx context.Context, c *models.Category) error {
	return r.DB.WithContext(ctx).Save(c).Error
}

// CategoryInUse reports whether products or child categories still point at id.
func (r *GormRepo) CategoryInUse(ctx context.Context, id uuid.UUID) (bool, error) {
	var products, children int64
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Where("category_id = ?", id).Count(&products).Error; err != nil {
		return false, err
	}
	if err := r.DB.WithContext(ctx).Model(&models.Category{}).Where("parent_id = ?", id).Count(&children).Error; err != nil {
		return false, err
	}
	return products+children > 0, nil
}

func (r *GormRepo) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Delete(&models.Category{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CategoryTree loads active categories level by level starting at the roots.
// Nodes deeper than MaxCategoryDepth are not loaded.
func (r *GormRepo) CategoryTree(ctx context.Context) ([]*models.Category, error) {
	db := r.DB.WithContext(ctx)

	var roots []*models.Category
	if err := db.Where("parent_id IS NULL AND is_active = ?", true).
		Order("sort_order ASC").Order("name ASC").
		Find(&roots).Error; err != nil {
		return nil, err
	}

	level := roots
	for depth := 1; depth < MaxCategoryDepth && len(level) > 0; depth++ {
		byID := make(map[uuid.UUID]*models.Category, len(level))
		ids := make([]uuid.UUID, 0, len(level))
		for _, c := range level {
			byID[c.ID] = c
			ids = append(ids, c.ID)
		}

		var children []*models.Category
		if err := db.Where("parent_id IN ? AND is_active = ?", ids, true).
			Order("sort_order ASC").Order("name ASC").
			Find(&children).Error; err != nil {
			return nil, err
		}
		for _, ch := range children {
			if parent, ok := byID[*ch.ParentID]; ok {
				parent.Children = append(parent.Children, ch)
			}
		}
		level = children
	}
	return roots, nil
}

// IsDescendant reports whether candidate sits below ancestor. Used to refuse
// parent changes that would create a cycle.
func (r *GormRepo) IsDescendant(ctx context.Context, ancestor, candidate uuid.UUID) (bool, error) {
	cur := candidate
	for range MaxCategoryDepth * 4 {
		if cur == ancestor {
			return true, nil
		}
		var c models.Category
		if err := r.DB.WithContext(ctx).Select("id", "parent_id").Where("id = ?", cur).First(&c).Error; err != nil {
			return false, err
		}
		if c.ParentID == nil {
			return false, nil
		}
		cur = *c.ParentID
	}
	return true, nil
}
