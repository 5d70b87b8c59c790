package repo

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/marketplace/internal/models"
)

const (
	FeaturedLimit      = 8
	FeaturedMinRating  = 4.0
	DetailReviewsLimit = 10
)

type ProductFilter struct {
	CategoryID *uuid.UUID
	SellerID   *uuid.UUID
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	MinRating  *float64
	InStock    bool
	Search     string
	SortBy     string
	SortOrder  string

	IncludeInactive bool
}

var productSortColumns = map[string]string{
	"createdAt": "created_at",
	"price":     "price",
	"name":      "name",
	"rating":    "rating",
}

// ValidProductSort reports whether sortBy names a sortable column.
func ValidProductSort(sortBy string) bool {
	_, ok := productSortColumns[sortBy]
	return ok
}

func likePattern(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}

func (f ProductFilter) apply(q *gorm.DB) *gorm.DB {
	if !f.IncludeInactive {
		q = q.Where("products.is_active = ?", true)
	}
	if f.CategoryID != nil {
		q = q.Where("products.category_id = ?", *f.CategoryID)
	}
	if f.SellerID != nil {
		q = q.Where("products.seller_id = ?", *f.SellerID)
	}
	if f.MinPrice != nil {
		q = q.Where("products.price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("products.price <= ?", *f.MaxPrice)
	}
	if f.MinRating != nil {
		q = q.Where("products.rating >= ?", *f.MinRating)
	}
	if f.InStock {
		q = q.Where("products.stock > 0")
	}
	if f.Search != "" {
		p := likePattern(f.Search)
		q = q.Where("LOWER(products.name) LIKE ? OR LOWER(products.description) LIKE ? OR LOWER(products.sku) LIKE ?", p, p, p)
	}
	return q
}

func (f ProductFilter) order() clause.OrderByColumn {
	col, ok := productSortColumns[f.SortBy]
	if !ok {
		col = "created_at"
	}
	return clause.OrderByColumn{
		Column: clause.Column{Table: "products", Name: col},
		Desc:   !strings.EqualFold(f.SortOrder, "asc"),
	}
}

func (r *GormRepo) ListProducts(ctx context.Context, f ProductFilter, offset, limit int) (int64, []models.Product, error) {
	var total int64
	if err := f.apply(r.DB.WithContext(ctx).Model(&models.Product{})).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Product, 0, limit)
	if err := f.apply(r.DB.WithContext(ctx).Model(&models.Product{})).
		Preload("Category").
		Preload("Seller").
		Order(f.order()).
		Order("products.id ASC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// GetProduct loads a product with its category, seller and latest approved reviews.
func (r *GormRepo) GetProduct(ctx context.Context, id uuid.UUID, activeOnly bool) (*models.Product, error) {
	q := r.DB.WithContext(ctx).Where("id = ?", id)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}

	var product models.Product
	if err := q.
		Preload("Category").
		Preload("Seller").
		Preload("Reviews", func(db *gorm.DB) *gorm.DB {
			return db.Where("status = ?", models.ReviewStatusApproved).
				Order("created_at DESC").
				Limit(DetailReviewsLimit)
		}).
		Preload("Reviews.User").
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormRepo) FeaturedProducts(ctx context.Context) ([]models.Product, error) {
	var items []models.Product
	if err := r.DB.WithContext(ctx).
		Where("is_active = ? AND rating >= ?", true, FeaturedMinRating).
		Preload("Category").
		Order("rating DESC").
		Order("review_count DESC").
		Limit(FeaturedLimit).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ProductsByIDs returns active products in the order of ids, skipping missing ones.
func (r *GormRepo) ProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []models.Product
	if err := r.DB.WithContext(ctx).
		Where("id IN ? AND is_active = ?", ids, true).
		Preload("Category").
		Find(&found).Error; err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]models.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]models.Product, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *GormRepo) SKUTaken(ctx context.Context, sku string, except uuid.UUID) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("sku = ? AND id <> ?", sku, except).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

// productColumns are the catalog fields a seller edits. Rating and review
// count belong to the aggregate, stock to order placement.
var productColumns = []string{
	"name", "description", "price", "compare_price", "images", "category_id", "sku",
	"is_active", "weight", "dimensions", "tags", "featured", "trending", "updated_at",
}

// SaveProduct writes the editable catalog fields of p and nothing else.
func (r *GormRepo) SaveProduct(ctx context.Context, p *models.Product) error {
	return saveProduct(r.DB.WithContext(ctx), p, false)
}

func saveProduct(tx *gorm.DB, p *models.Product, withStock bool) error {
	cols := productColumns
	if withStock {
		cols = append(append([]string{}, productColumns...), "stock")
	}
	res := tx.Model(p).Select(cols).Updates(p)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateProduct locks the product row, applies change and saves the editable
// fields. Stock is written only when change sets stockChanged.
func (r *GormRepo) UpdateProduct(ctx context.Context, id uuid.UUID, change func(p *models.Product) (stockChanged bool, err error)) (*models.Product, error) {
	var out models.Product
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&out).Error; err != nil {
			return err
		}
		stockChanged, err := change(&out)
		if err != nil {
			return err
		}
		return saveProduct(tx, &out, stockChanged)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeactivateProduct is the product delete: rows stay for order history.
func (r *GormRepo) DeactivateProduct(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
