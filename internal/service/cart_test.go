package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/transport"
)

func TestCartService_Lifecycle(t *testing.T) {
	t.Parallel()
	rec := &recorder{}
	svc := &CartService{Repo: newRepo(t), Events: rec}
	ctx := context.Background()
	buyer := seedUser(t, svc.Repo, models.RoleCustomer)
	p := seedProduct(t, svc.Repo, uuid.New(), "25.00", 3)

	cart, err := svc.AddItem(ctx, buyer.ID, transport.AddCartItemRequest{ProductID: p.ID})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 1, cart.ItemCount, "quantity defaults to one")
	assert.True(t, dec("25").Equal(cart.Total))

	cart, err = svc.AddItem(ctx, buyer.ID, transport.AddCartItemRequest{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.ItemCount)
	assert.True(t, dec("75").Equal(cart.Total))

	_, err = svc.AddItem(ctx, buyer.ID, transport.AddCartItemRequest{ProductID: p.ID, Quantity: 1})
	require.ErrorIs(t, err, ErrValidation)

	itemID := cart.Items[0].ID
	_, err = svc.UpdateItem(ctx, buyer.ID, itemID, 4)
	require.ErrorIs(t, err, ErrValidation)

	cart, err = svc.UpdateItem(ctx, buyer.ID, itemID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, cart.ItemCount)
	assert.True(t, dec("25").Equal(cart.Total))

	cart, err = svc.RemoveItem(ctx, buyer.ID, itemID)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
	assert.True(t, cart.Total.IsZero())

	cart, err = svc.RemoveItem(ctx, buyer.ID, itemID)
	require.NoError(t, err, "removing a missing line is a no-op")
	assert.True(t, cart.IsEmpty())

	_, err = svc.UpdateItem(ctx, buyer.ID, itemID, 2)
	require.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{
		"cart.item_added", "cart.item_added", "cart.item_updated", "cart.item_removed", "cart.item_removed",
	}, rec.types())
}

func TestCartService_AddItem_Errors(t *testing.T) {
	t.Parallel()
	svc := &CartService{Repo: newRepo(t)}
	ctx := context.Background()
	buyer := seedUser(t, svc.Repo, models.RoleCustomer)

	_, err := svc.AddItem(ctx, buyer.ID, transport.AddCartItemRequest{ProductID: uuid.New()})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.AddItem(ctx, buyer.ID, transport.AddCartItemRequest{})
	require.ErrorIs(t, err, ErrValidation)

	p := seedProduct(t, svc.Repo, uuid.New(), "5.00", 10)
	_, err = svc.AddItem(ctx, buyer.ID, transport.AddCartItemRequest{ProductID: p.ID, Quantity: -2})
	require.ErrorIs(t, err, ErrValidation)

	p.IsActive = false
	require.NoError(t, svc.Repo.SaveProduct(ctx, p))
	_, err = svc.AddItem(ctx, buyer.ID, transport.AddCartItemRequest{ProductID: p.ID})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCartService_Clear(t *testing.T) {
	t.Parallel()
	svc := &CartService{Repo: newRepo(t)}
	ctx := context.Background()
	buyer := seedUser(t, svc.Repo, models.RoleCustomer)
	a := seedProduct(t, svc.Repo, uuid.New(), "5.00", 10)
	b := seedProduct(t, svc.Repo, uuid.New(), "7.50", 10)

	_, err := svc.AddItem(ctx, buyer.ID, transport.AddCartItemRequest{ProductID: a.ID, Quantity: 2})
	require.NoError(t, err)
	cart, err := svc.AddItem(ctx, buyer.ID, transport.AddCartItemRequest{ProductID: b.ID, Quantity: 2})
	require.NoError(t, err)
	assert.True(t, dec("25").Equal(cart.Total))
	assert.Equal(t, 4, cart.ItemCount)

	cart, err = svc.Clear(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.IsEmpty())
}
