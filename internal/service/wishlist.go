package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/transport"
)

type WishlistService struct {
	Repo *repo.GormRepo
}

func (s *WishlistService) List(ctx context.Context, userID uuid.UUID) ([]models.Wishlist, error) {
	return s.Repo.ListWishlist(ctx, userID)
}

func (s *WishlistService) Add(ctx context.Context, userID uuid.UUID, req transport.AddWishlistRequest) (*models.Wishlist, error) {
	if req.ProductID == uuid.Nil {
		return nil, fmt.Errorf("%w: product_id required", ErrValidation)
	}
	product, err := s.Repo.GetProduct(ctx, req.ProductID, true)
	if err != nil {
		return nil, dbErr(err, "product")
	}
	in, err := s.Repo.InWishlist(ctx, userID, req.ProductID)
	if err != nil {
		return nil, err
	}
	if in {
		return nil, fmt.Errorf("%w: product is already in the wishlist", ErrConflict)
	}

	w := &models.Wishlist{UserID: userID, ProductID: req.ProductID, Notes: req.Notes}
	if err := s.Repo.AddToWishlist(ctx, w); err != nil {
		return nil, dbErr(err, "wishlist item")
	}
	product.Reviews = nil
	w.Product = product
	return w, nil
}

func (s *WishlistService) UpdateNotes(ctx context.Context, userID, id uuid.UUID, notes string) (*models.Wishlist, error) {
	w, err := s.Repo.UpdateWishlistNotes(ctx, userID, id, notes)
	if err != nil {
		return nil, dbErr(err, "wishlist item")
	}
	return w, nil
}

func (s *WishlistService) Remove(ctx context.Context, userID, id uuid.UUID) error {
	return dbErr(s.Repo.RemoveFromWishlist(ctx, userID, id), "wishlist item")
}
