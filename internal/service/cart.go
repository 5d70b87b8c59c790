package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/mykafka"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/transport"
)

type CartService struct {
	Repo   *repo.GormRepo
	Events mykafka.Publisher
}

// stockErr maps the stock sentinels shared by cart and order writes.
func stockErr(err error) error {
	switch {
	case errors.Is(err, repo.ErrInsufficientStock):
		return fmt.Errorf("%w: insufficient stock", ErrValidation)
	case errors.Is(err, repo.ErrProductUnavailable):
		return fmt.Errorf("%w: product is not available", ErrValidation)
	}
	return err
}

func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return s.Repo.GetCart(ctx, userID)
}

func (s *CartService) AddItem(ctx context.Context, userID uuid.UUID, req transport.AddCartItemRequest) (*models.Cart, error) {
	if req.ProductID == uuid.Nil {
		return nil, fmt.Errorf("%w: product_id required", ErrValidation)
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
	}

	cart, err := s.Repo.AddToCart(ctx, userID, req.ProductID, req.Quantity)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: product not found", ErrNotFound)
	}
	if err != nil {
		return nil, stockErr(err)
	}
	s.publish(ctx, cart, "cart.item_added")
	return cart, nil
}

// UpdateItem sets the line quantity. Zero or less removes the line.
func (s *CartService) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*models.Cart, error) {
	cart, err := s.Repo.SetCartItemQuantity(ctx, userID, itemID, quantity)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: cart item not found", ErrNotFound)
	}
	if err != nil {
		return nil, stockErr(err)
	}
	s.publish(ctx, cart, "cart.item_updated")
	return cart, nil
}

// RemoveItem is idempotent: removing a missing line returns the cart unchanged.
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*models.Cart, error) {
	cart, err := s.Repo.RemoveCartItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, cart, "cart.item_removed")
	return cart, nil
}

func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.Repo.ClearCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, cart, "cart.cleared")
	return cart, nil
}

func (s *CartService) publish(ctx context.Context, cart *models.Cart, eventType string) {
	mykafka.Publish(ctx, s.Events, mykafka.TopicCarts, cart.UserID.String(), eventType, map[string]any{
		"cart_id":    cart.ID,
		"user_id":    cart.UserID,
		"total":      cart.Total,
		"item_count": cart.ItemCount,
	})
}
