package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/internal/util"
)

func reviewReq(rating int) transport.CreateReviewRequest {
	return transport.CreateReviewRequest{
		Rating:  rating,
		Title:   "Solid purchase",
		Comment: "Works as described, would buy again.",
	}
}

func TestReviewService_ModerationDrivesRating(t *testing.T) {
	t.Parallel()
	rec := &recorder{}
	svc := &ReviewService{Repo: newRepo(t), Events: rec}
	ctx := context.Background()
	admin := actorOf(seedUser(t, svc.Repo, models.RoleAdmin))
	p := seedProduct(t, svc.Repo, uuid.New(), "10.00", 5)

	var ids []uuid.UUID
	for _, rating := range []int{4, 5, 3} {
		u := seedUser(t, svc.Repo, models.RoleCustomer)
		rev, err := svc.Create(ctx, u.ID, p.ID, reviewReq(rating))
		require.NoError(t, err)
		assert.Equal(t, models.ReviewStatusPending, rev.Status)
		ids = append(ids, rev.ID)
	}

	row := productRow(t, svc.Repo, p.ID)
	assert.Zero(t, row.ReviewCount, "pending reviews do not count")

	for _, id := range ids {
		_, err := svc.Moderate(ctx, admin, id, transport.ModerateReviewRequest{Status: models.ReviewStatusApproved})
		require.NoError(t, err)
	}
	row = productRow(t, svc.Repo, p.ID)
	assert.InDelta(t, 4.0, row.Rating, 0.001)
	assert.Equal(t, 3, row.ReviewCount)

	rejected, err := svc.Moderate(ctx, admin, ids[2], transport.ModerateReviewRequest{Status: models.ReviewStatusRejected, Notes: "spam"})
	require.NoError(t, err)
	assert.Equal(t, "spam", rejected.ModerationNotes)
	require.NotNil(t, rejected.ModeratedBy)
	assert.Equal(t, admin.UserID, *rejected.ModeratedBy)

	row = productRow(t, svc.Repo, p.ID)
	assert.InDelta(t, 4.5, row.Rating, 0.001)
	assert.Equal(t, 2, row.ReviewCount)

	total, listed, err := svc.List(ctx, p.ID, util.Calculate(1, 10, util.DefaultPageSize))
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, listed, 2)

	_, err = svc.Moderate(ctx, admin, ids[0], transport.ModerateReviewRequest{Status: "maybe"})
	require.ErrorIs(t, err, ErrValidation)
	_, err = svc.Moderate(ctx, Actor{UserID: uuid.New(), Role: models.RoleSeller}, ids[0], transport.ModerateReviewRequest{Status: models.ReviewStatusApproved})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestReviewService_Create_Rules(t *testing.T) {
	t.Parallel()
	svc := &ReviewService{Repo: newRepo(t)}
	ctx := context.Background()
	u := seedUser(t, svc.Repo, models.RoleCustomer)
	p := seedProduct(t, svc.Repo, uuid.New(), "10.00", 5)

	bad := []transport.CreateReviewRequest{
		reviewReq(0),
		reviewReq(6),
		{Rating: 4, Title: "Ok", Comment: "Works as described."},
		{Rating: 4, Title: "Solid purchase", Comment: "short"},
	}
	for _, req := range bad {
		_, err := svc.Create(ctx, u.ID, p.ID, req)
		require.ErrorIs(t, err, ErrValidation)
	}

	_, err := svc.Create(ctx, u.ID, uuid.New(), reviewReq(4))
	require.ErrorIs(t, err, ErrNotFound)

	rev, err := svc.Create(ctx, u.ID, p.ID, reviewReq(4))
	require.NoError(t, err)
	assert.False(t, rev.IsVerified)

	_, err = svc.Create(ctx, u.ID, p.ID, reviewReq(5))
	require.ErrorIs(t, err, ErrConflict)
}

func TestReviewService_VerifiedPurchase(t *testing.T) {
	t.Parallel()
	svc := &ReviewService{Repo: newRepo(t)}
	ctx := context.Background()
	buyer := seedUser(t, svc.Repo, models.RoleCustomer)
	p := seedProduct(t, svc.Repo, uuid.New(), "10.00", 5)

	orders := &OrderService{Repo: svc.Repo}
	placed, err := orders.CreateOrders(ctx, buyer.ID, transport.CreateOrderRequest{
		Items:           []transport.CreateOrderItem{{ProductID: p.ID, Quantity: 1}},
		ShippingAddress: testAddress(),
	}, "")
	require.NoError(t, err)
	require.NoError(t, svc.Repo.DB.Model(&models.Order{}).
		Where("id = ?", placed[0].ID).
		Update("status", models.OrderStatusDelivered).Error)

	rev, err := svc.Create(ctx, buyer.ID, p.ID, reviewReq(5))
	require.NoError(t, err)
	assert.True(t, rev.IsVerified)
}

func TestReviewService_EditHelpfulDelete(t *testing.T) {
	t.Parallel()
	svc := &ReviewService{Repo: newRepo(t)}
	ctx := context.Background()
	author := seedUser(t, svc.Repo, models.RoleCustomer)
	other := seedUser(t, svc.Repo, models.RoleCustomer)
	admin := actorOf(seedUser(t, svc.Repo, models.RoleAdmin))
	p := seedProduct(t, svc.Repo, uuid.New(), "10.00", 5)

	rev, err := svc.Create(ctx, author.ID, p.ID, reviewReq(2))
	require.NoError(t, err)
	_, err = svc.Moderate(ctx, admin, rev.ID, transport.ModerateReviewRequest{Status: models.ReviewStatusApproved})
	require.NoError(t, err)

	five := 5
	_, err = svc.Update(ctx, actorOf(other), rev.ID, transport.UpdateReviewRequest{Rating: &five})
	require.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.Update(ctx, actorOf(author), rev.ID, transport.UpdateReviewRequest{Rating: &five})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Rating)
	assert.InDelta(t, 5.0, productRow(t, svc.Repo, p.ID).Rating, 0.001)

	for range 2 {
		_, err = svc.MarkHelpful(ctx, rev.ID)
		require.NoError(t, err)
	}
	got, err := svc.Repo.GetReview(ctx, rev.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Helpful)

	_, err = svc.MarkHelpful(ctx, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, svc.Delete(ctx, actorOf(other), rev.ID), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, admin, rev.ID))
	row := productRow(t, svc.Repo, p.ID)
	assert.Zero(t, row.ReviewCount)
	assert.Zero(t, row.Rating)
}
