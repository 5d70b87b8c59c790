package service

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/marketplace/internal/db/dbtest"
	"github.com/Skotchmaster/marketplace/internal/hash"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/mykafka"
	"github.com/Skotchmaster/marketplace/internal/repo"
)

func TestMain(m *testing.M) {
	hash.Cost = bcrypt.MinCost
	os.Exit(m.Run())
}

type recordedEvent struct {
	topic string
	key   string
	event mykafka.Event
}

type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recorder) PublishEvent(_ context.Context, topic, key string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{topic: topic, key: key, event: event.(mykafka.Event)})
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.event.Type
	}
	return out
}

func newRepo(t *testing.T) *repo.GormRepo {
	t.Helper()
	return repo.New(dbtest.New(t))
}

func seedUser(t *testing.T, r *repo.GormRepo, role string) *models.User {
	t.Helper()
	pw, err := hash.HashPassword("secret123")
	require.NoError(t, err)
	u := &models.User{
		Email:        uuid.NewString()[:8] + "@example.com",
		PasswordHash: pw,
		Name:         "Test User",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, r.CreateUser(context.Background(), u))
	return u
}

func actorOf(u *models.User) Actor {
	return Actor{UserID: u.ID, Role: u.Role}
}

func seedCategory(t *testing.T, r *repo.GormRepo) *models.Category {
	t.Helper()
	c := &models.Category{Name: "Electronics", Slug: "electronics-" + uuid.NewString()[:6], IsActive: true}
	require.NoError(t, r.CreateCategory(context.Background(), c))
	return c
}

func seedProduct(t *testing.T, r *repo.GormRepo, sellerID uuid.UUID, price string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:       "Product " + price,
		Price:      decimal.RequireFromString(price),
		Stock:      stock,
		SKU:        "SKU-" + uuid.NewString()[:8],
		CategoryID: uuid.New(),
		SellerID:   sellerID,
		IsActive:   true,
	}
	require.NoError(t, r.CreateProduct(context.Background(), p))
	return p
}

func productRow(t *testing.T, r *repo.GormRepo, id uuid.UUID) models.Product {
	t.Helper()
	var p models.Product
	require.NoError(t, r.DB.Where("id = ?", id).First(&p).Error)
	return p
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testAddress() models.Address {
	return models.Address{Street: "1 Main St", City: "Pune", State: "MH", ZipCode: "411001", Country: "IN"}
}
