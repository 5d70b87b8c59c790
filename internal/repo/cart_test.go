package repo

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace/internal/models"
)

func assertCart(t *testing.T, cart *models.Cart, total string, count int) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(total).Equal(cart.Total), "total %s, want %s", cart.Total, total)
	assert.Equal(t, count, cart.ItemCount)

	sum, qty := decimal.Zero, 0
	for i := range cart.Items {
		sum = sum.Add(cart.Items[i].Total())
		qty += cart.Items[i].Quantity
	}
	assert.True(t, sum.Equal(cart.Total), "items sum %s, cart total %s", sum, cart.Total)
	assert.Equal(t, qty, cart.ItemCount)
}

func TestCart_TwoItemScenario(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()
	user := uuid.New()

	p10 := seedProduct(t, r, "10")
	p5 := seedProduct(t, r, "5")

	cart, err := r.AddToCart(ctx, user, p10.ID, 2)
	require.NoError(t, err)
	assertCart(t, cart, "20", 2)

	cart, err = r.AddToCart(ctx, user, p5.ID, 1)
	require.NoError(t, err)
	assertCart(t, cart, "25", 3)
	require.Len(t, cart.Items, 2)

	var first uuid.UUID
	for _, it := range cart.Items {
		if it.ProductID == p10.ID {
			first = it.ID
		}
	}
	require.NotEqual(t, uuid.Nil, first)
	cart, err = r.RemoveCartItem(ctx, user, first)
	require.NoError(t, err)
	assertCart(t, cart, "5", 1)

	cart, err = r.RemoveCartItem(ctx, user, first)
	require.NoError(t, err)
	assertCart(t, cart, "5", 1)
}

func TestCart_AddExistingLineKeepsSnapshot(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()
	user := uuid.New()
	p := seedProduct(t, r, "10")

	_, err := r.AddToCart(ctx, user, p.ID, 1)
	require.NoError(t, err)

	p.Price = decimal.NewFromInt(99)
	require.NoError(t, r.SaveProduct(ctx, p))

	cart, err := r.AddToCart(ctx, user, p.ID, 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.True(t, decimal.NewFromInt(10).Equal(cart.Items[0].Price))
	assertCart(t, cart, "30", 3)
}

func TestCart_SetQuantity(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()
	user := uuid.New()
	p := seedProduct(t, r, "2.50", withStock(5))

	cart, err := r.AddToCart(ctx, user, p.ID, 1)
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	cart, err = r.SetCartItemQuantity(ctx, user, itemID, 4)
	require.NoError(t, err)
	assertCart(t, cart, "10", 4)

	_, err = r.SetCartItemQuantity(ctx, user, itemID, 6)
	require.ErrorIs(t, err, ErrInsufficientStock)

	cart, err = r.SetCartItemQuantity(ctx, user, itemID, 0)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assertCart(t, cart, "0", 0)

	cart, err = r.SetCartItemQuantity(ctx, user, itemID, -1)
	require.NoError(t, err)
	assertCart(t, cart, "0", 0)
}

func TestCart_Guards(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()
	user := uuid.New()

	p := seedProduct(t, r, "10", withStock(2))
	_, err := r.AddToCart(ctx, user, p.ID, 3)
	require.ErrorIs(t, err, ErrInsufficientStock)

	_, err = r.AddToCart(ctx, user, p.ID, 2)
	require.NoError(t, err)
	_, err = r.AddToCart(ctx, user, p.ID, 1)
	require.ErrorIs(t, err, ErrInsufficientStock)

	gone := seedProduct(t, r, "10")
	require.NoError(t, r.DeactivateProduct(ctx, gone.ID))
	_, err = r.AddToCart(ctx, user, gone.ID, 1)
	require.ErrorIs(t, err, ErrProductUnavailable)

	other := uuid.New()
	cart, err := r.GetCart(ctx, user)
	require.NoError(t, err)
	_, err = r.SetCartItemQuantity(ctx, other, cart.Items[0].ID, 1)
	require.Error(t, err)
}

func TestCart_Clear(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()
	user := uuid.New()

	_, err := r.AddToCart(ctx, user, seedProduct(t, r, "3").ID, 2)
	require.NoError(t, err)
	_, err = r.AddToCart(ctx, user, seedProduct(t, r, "4").ID, 1)
	require.NoError(t, err)

	cart, err := r.ClearCart(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assertCart(t, cart, "0", 0)
}

func TestCart_CreatedLazilyOncePerUser(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()
	user := uuid.New()

	a, err := r.GetCart(ctx, user)
	require.NoError(t, err)
	b, err := r.GetCart(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)
	assert.True(t, a.IsEmpty())

	var count int64
	require.NoError(t, r.DB.Model(&models.Cart{}).Where("user_id = ?", user).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
