package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/logging"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/mykafka"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/internal/util"
)

type ReviewService struct {
	Repo   *repo.GormRepo
	Events mykafka.Publisher
}

func validateReview(rev *models.Review) error {
	if rev.Rating < 1 || rev.Rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}
	if err := validateName(rev.Title, 5, 200, "title"); err != nil {
		return err
	}
	return validateName(rev.Comment, 10, 2000, "comment")
}

// List returns the approved reviews of an active product.
func (s *ReviewService) List(ctx context.Context, productID uuid.UUID, page util.Page) (int64, []models.Review, error) {
	if _, err := s.Repo.GetProduct(ctx, productID, true); err != nil {
		return 0, nil, dbErr(err, "product")
	}
	return s.Repo.ListProductReviews(ctx, productID, models.ReviewStatusApproved, page.Offset, page.Limit)
}

// Create stores a pending review. It counts towards the rating once approved.
func (s *ReviewService) Create(ctx context.Context, userID, productID uuid.UUID, req transport.CreateReviewRequest) (*models.Review, error) {
	l := logging.FromContext(ctx).With("svc", "review.create", "product_id", productID)

	rev := &models.Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    req.Rating,
		Title:     strings.TrimSpace(req.Title),
		Comment:   strings.TrimSpace(req.Comment),
		Images:    req.Images,
		Status:    models.ReviewStatusPending,
	}
	if err := validateReview(rev); err != nil {
		return nil, err
	}
	if _, err := s.Repo.GetProduct(ctx, productID, true); err != nil {
		return nil, dbErr(err, "product")
	}
	exists, err := s.Repo.ReviewExists(ctx, productID, userID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: you have already reviewed this product", ErrConflict)
	}
	verified, err := s.Repo.HasDeliveredOrderWith(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	rev.IsVerified = verified

	if err := s.Repo.CreateReview(ctx, rev); err != nil {
		return nil, dbErr(err, "review")
	}
	l.Info("review_created", "review_id", rev.ID, "verified", verified)
	mykafka.Publish(ctx, s.Events, mykafka.TopicReviews, productID.String(), "review.created", rev)
	return rev, nil
}

func (s *ReviewService) ownedReview(ctx context.Context, actor Actor, id uuid.UUID) (*models.Review, error) {
	rev, err := s.Repo.GetReview(ctx, id)
	if err != nil {
		return nil, dbErr(err, "review")
	}
	if !actor.owns(rev.UserID) {
		return nil, fmt.Errorf("%w: not your review", ErrForbidden)
	}
	return rev, nil
}

func (s *ReviewService) Update(ctx context.Context, actor Actor, id uuid.UUID, req transport.UpdateReviewRequest) (*models.Review, error) {
	rev, err := s.ownedReview(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	ratingChanged := req.Rating != nil && *req.Rating != rev.Rating
	if req.Rating != nil {
		rev.Rating = *req.Rating
	}
	if req.Title != nil {
		rev.Title = strings.TrimSpace(*req.Title)
	}
	if req.Comment != nil {
		rev.Comment = strings.TrimSpace(*req.Comment)
	}
	if req.Images != nil {
		rev.Images = req.Images
	}
	if err := validateReview(rev); err != nil {
		return nil, err
	}

	if err := s.Repo.SaveReview(ctx, rev, ratingChanged); err != nil {
		return nil, dbErr(err, "review")
	}
	mykafka.Publish(ctx, s.Events, mykafka.TopicReviews, rev.ProductID.String(), "review.updated", rev)
	return rev, nil
}

func (s *ReviewService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	rev, err := s.ownedReview(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.Repo.DeleteReview(ctx, rev.ID); err != nil {
		return dbErr(err, "review")
	}
	mykafka.Publish(ctx, s.Events, mykafka.TopicReviews, rev.ProductID.String(), "review.deleted", map[string]any{"id": rev.ID})
	return nil
}

// Moderate approves or rejects a review and refreshes the product rating.
func (s *ReviewService) Moderate(ctx context.Context, actor Actor, id uuid.UUID, req transport.ModerateReviewRequest) (*models.Review, error) {
	l := logging.FromContext(ctx).With("svc", "review.moderate", "review_id", id)

	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: admin role required", ErrForbidden)
	}
	rev, err := s.Repo.GetReview(ctx, id)
	if err != nil {
		return nil, dbErr(err, "review")
	}
	switch req.Status {
	case models.ReviewStatusApproved:
		rev.Approve(actor.UserID, req.Notes)
	case models.ReviewStatusRejected:
		rev.Reject(actor.UserID, req.Notes)
	default:
		return nil, fmt.Errorf("%w: status must be approved or rejected", ErrValidation)
	}

	if err := s.Repo.SaveReview(ctx, rev, true); err != nil {
		return nil, dbErr(err, "review")
	}
	l.Info("review_moderated", "status", rev.Status)
	mykafka.Publish(ctx, s.Events, mykafka.TopicReviews, rev.ProductID.String(), "review.moderated", rev)
	return rev, nil
}

func (s *ReviewService) MarkHelpful(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	rev, err := s.Repo.IncrementHelpful(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: review not found", ErrNotFound)
	}
	return rev, err
}
