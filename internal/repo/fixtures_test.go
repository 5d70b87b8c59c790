package repo

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace/internal/db/dbtest"
	"github.com/Skotchmaster/marketplace/internal/models"
)

func newRepo(t *testing.T) *GormRepo {
	t.Helper()
	return New(dbtest.New(t))
}

func seedUser(t *testing.T, r *GormRepo, role string) *models.User {
	t.Helper()
	u := &models.User{
		Email:        uuid.NewString()[:8] + "@example.com",
		PasswordHash: "x",
		Name:         "Test User",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, r.CreateUser(context.Background(), u))
	return u
}

func seedCategory(t *testing.T, r *GormRepo, name string, parent *uuid.UUID, sort int) *models.Category {
	t.Helper()
	c := &models.Category{
		Name:      name,
		Slug:      name + "-" + uuid.NewString()[:6],
		ParentID:  parent,
		IsActive:  true,
		SortOrder: sort,
	}
	require.NoError(t, r.CreateCategory(context.Background(), c))
	return c
}

type productOpt func(*models.Product)

func withStock(n int) productOpt { return func(p *models.Product) { p.Stock = n } }
func withRating(v float64) productOpt { return func(p *models.Product) { p.Rating = v } }
func withSeller(id uuid.UUID) productOpt { return func(p *models.Product) { p.SellerID = id } }
func withCategory(id uuid.UUID) productOpt { return func(p *models.Product) { p.CategoryID = id } }
func withName(n string) productOpt { return func(p *models.Product) { p.Name = n } }

func seedProduct(t *testing.T, r *GormRepo, price string, opts ...productOpt) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:       "Product " + price,
		Price:      decimal.RequireFromString(price),
		Stock:      10,
		SKU:        "SKU-" + uuid.NewString()[:8],
		CategoryID: uuid.New(),
		SellerID:   uuid.New(),
		IsActive:   true,
	}
	for _, o := range opts {
		o(p)
	}
	require.NoError(t, r.CreateProduct(context.Background(), p))
	return p
}

func reloadProduct(t *testing.T, r *GormRepo, id uuid.UUID) models.Product {
	t.Helper()
	var p models.Product
	require.NoError(t, r.DB.Where("id = ?", id).First(&p).Error)
	return p
}
