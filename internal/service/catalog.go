package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/logging"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/mykafka"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/internal/util"
)

// ProductIndex is the search side of the catalog. *es.ProductIndex implements it.
type ProductIndex interface {
	Index(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string, from, size int) (int64, []uuid.UUID, error)
}

type CatalogService struct {
	Repo   *repo.GormRepo
	Index  ProductIndex
	Events mykafka.Publisher
}

const base36 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateSKU returns PROD-<unix millis>-<6 random base36 chars>.
func GenerateSKU(now time.Time) string {
	var b [6]byte
	for i := range b {
		b[i] = base36[rand.IntN(len(base36))]
	}
	return "PROD-" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + string(b[:])
}

func (s *CatalogService) ListProducts(ctx context.Context, f repo.ProductFilter, page util.Page) (int64, []models.Product, error) {
	if f.SortBy != "" && !repo.ValidProductSort(f.SortBy) {
		return 0, nil, fmt.Errorf("%w: cannot sort by %q", ErrValidation, f.SortBy)
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return 0, nil, fmt.Errorf("%w: minPrice is greater than maxPrice", ErrValidation)
	}
	return s.Repo.ListProducts(ctx, f, page.Offset, page.Limit)
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id, true)
	if err != nil {
		return nil, dbErr(err, "product")
	}
	return p, nil
}

func (s *CatalogService) Featured(ctx context.Context) ([]models.Product, error) {
	return s.Repo.FeaturedProducts(ctx)
}

// SellerProducts lists the caller's own products, inactive ones included.
func (s *CatalogService) SellerProducts(ctx context.Context, actor Actor, page util.Page) (int64, []models.Product, error) {
	if !actor.IsSeller() {
		return 0, nil, fmt.Errorf("%w: seller role required", ErrForbidden)
	}
	f := repo.ProductFilter{SellerID: &actor.UserID, IncludeInactive: true}
	return s.Repo.ListProducts(ctx, f, page.Offset, page.Limit)
}

// Search asks the search index first and falls back to a SQL LIKE search
// when no index is configured or the index is unavailable.
func (s *CatalogService) Search(ctx context.Context, query string, page util.Page) (int64, []models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.search")

	query = strings.TrimSpace(query)
	if query == "" {
		return 0, nil, fmt.Errorf("%w: search query is required", ErrValidation)
	}

	if s.Index != nil {
		total, ids, err := s.Index.Search(ctx, query, page.Offset, page.Limit)
		if err == nil {
			items, err := s.Repo.ProductsByIDs(ctx, ids)
			if err != nil {
				return 0, nil, err
			}
			return total, items, nil
		}
		l.Warn("search_index_failed", "reason", "falling back to database", "error", err)
	}
	return s.Repo.ListProducts(ctx, repo.ProductFilter{Search: query}, page.Offset, page.Limit)
}

func validateProduct(p *models.Product) error {
	if err := validateName(p.Name, 2, 200, "name"); err != nil {
		return err
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}
	if p.ComparePrice != nil && p.ComparePrice.IsNegative() {
		return fmt.Errorf("%w: compare price must be >= 0", ErrValidation)
	}
	if p.Stock < 0 {
		return fmt.Errorf("%w: stock must be >= 0", ErrValidation)
	}
	if n := len(p.SKU); n < 3 || n > 50 {
		return fmt.Errorf("%w: sku must be 3-50 characters", ErrValidation)
	}
	return nil
}

func (s *CatalogService) checkCategory(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("%w: category_id required", ErrValidation)
	}
	if _, err := s.Repo.GetCategory(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: category not found", ErrValidation)
		}
		return err
	}
	return nil
}

func (s *CatalogService) checkSKU(ctx context.Context, sku string, self uuid.UUID) error {
	taken, err := s.Repo.SKUTaken(ctx, sku, self)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: sku %q is already used", ErrConflict, sku)
	}
	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, actor Actor, req transport.CreateProductRequest) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.create_product", "seller_id", actor.UserID)

	if !actor.IsSeller() {
		return nil, fmt.Errorf("%w: seller role required", ErrForbidden)
	}
	p := &models.Product{
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		Price:        req.Price,
		ComparePrice: req.ComparePrice,
		Images:       req.Images,
		CategoryID:   req.CategoryID,
		SellerID:     actor.UserID,
		Stock:        req.Stock,
		SKU:          strings.TrimSpace(req.SKU),
		IsActive:     true,
		Weight:       req.Weight,
		Dimensions:   req.Dimensions,
		Tags:         req.Tags,
		Featured:     req.Featured,
		Trending:     req.Trending,
	}
	if p.SKU == "" {
		p.SKU = GenerateSKU(time.Now())
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, p.CategoryID); err != nil {
		return nil, err
	}
	if err := s.checkSKU(ctx, p.SKU, uuid.Nil); err != nil {
		return nil, err
	}

	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, dbErr(err, "product")
	}
	l.Info("product_created", "product_id", p.ID, "sku", p.SKU)

	s.index(ctx, p)
	mykafka.Publish(ctx, s.Events, mykafka.TopicProducts, p.ID.String(), "product.created", p)
	return p, nil
}

// ownedProduct loads a product for a mutation by actor.
func (s *CatalogService) ownedProduct(ctx context.Context, actor Actor, id uuid.UUID) (*models.Product, error) {
	if !actor.IsSeller() {
		return nil, fmt.Errorf("%w: seller role required", ErrForbidden)
	}
	p, err := s.Repo.GetProduct(ctx, id, false)
	if err != nil {
		return nil, dbErr(err, "product")
	}
	if !actor.owns(p.SellerID) {
		return nil, fmt.Errorf("%w: product belongs to another seller", ErrForbidden)
	}
	return p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, actor Actor, id uuid.UUID, req transport.UpdateProductRequest) (*models.Product, error) {
	current, err := s.ownedProduct(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if req.CategoryID != nil && *req.CategoryID != current.CategoryID {
		if err := s.checkCategory(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
	}
	if req.SKU != nil {
		sku := strings.TrimSpace(*req.SKU)
		req.SKU = &sku
		if sku != current.SKU {
			if err := s.checkSKU(ctx, sku, id); err != nil {
				return nil, err
			}
		}
	}

	// edits land on the locked row so concurrent stock and rating writes survive
	_, err = s.Repo.UpdateProduct(ctx, id, func(p *models.Product) (bool, error) {
		if !actor.owns(p.SellerID) {
			return false, fmt.Errorf("%w: product belongs to another seller", ErrForbidden)
		}
		applyProductUpdate(p, req)
		return req.Stock != nil, validateProduct(p)
	})
	if err != nil {
		return nil, dbErr(err, "product")
	}
	p, err := s.Repo.GetProduct(ctx, id, false)
	if err != nil {
		return nil, dbErr(err, "product")
	}

	s.index(ctx, p)
	mykafka.Publish(ctx, s.Events, mykafka.TopicProducts, p.ID.String(), "product.updated", p)
	return p, nil
}

func applyProductUpdate(p *models.Product, req transport.UpdateProductRequest) {
	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.ComparePrice != nil {
		p.ComparePrice = req.ComparePrice
	}
	if req.Images != nil {
		p.Images = req.Images
	}
	if req.CategoryID != nil {
		p.CategoryID = *req.CategoryID
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
	if req.SKU != nil {
		p.SKU = *req.SKU
	}
	if req.Weight != nil {
		p.Weight = req.Weight
	}
	if req.Dimensions != nil {
		p.Dimensions = req.Dimensions
	}
	if req.Tags != nil {
		p.Tags = req.Tags
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	if req.Featured != nil {
		p.Featured = *req.Featured
	}
	if req.Trending != nil {
		p.Trending = *req.Trending
	}
}

// DeleteProduct deactivates the product. Rows stay for order history.
func (s *CatalogService) DeleteProduct(ctx context.Context, actor Actor, id uuid.UUID) error {
	p, err := s.ownedProduct(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.Repo.DeactivateProduct(ctx, p.ID); err != nil {
		return dbErr(err, "product")
	}
	p.IsActive = false

	s.index(ctx, p)
	mykafka.Publish(ctx, s.Events, mykafka.TopicProducts, p.ID.String(), "product.deleted", map[string]any{"id": p.ID})
	return nil
}

// index keeps the search index in step with the database. Failures are
// logged only: the database stays the source of truth.
func (s *CatalogService) index(ctx context.Context, p *models.Product) {
	if s.Index == nil {
		return
	}
	var err error
	if p.IsActive {
		err = s.Index.Index(ctx, p)
	} else {
		err = s.Index.Delete(ctx, p.ID)
	}
	if err != nil {
		logging.FromContext(ctx).Warn("search_index_update_failed", "product_id", p.ID, "error", err)
	}
}
