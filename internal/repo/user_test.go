package repo

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/tokens"
)

func TestUsers(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()

	u := &models.User{Email: "  Jane@Example.com ", PasswordHash: "h", Name: "Jane"}
	require.NoError(t, r.CreateUser(ctx, u))
	assert.Equal(t, models.RoleCustomer, u.Role)

	taken, err := r.EmailTaken(ctx, "JANE@example.com")
	require.NoError(t, err)
	assert.True(t, taken)

	got, err := r.GetUserByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.True(t, got.IsActive)

	now := time.Now().UTC()
	require.NoError(t, r.TouchLastLogin(ctx, u.ID, now))
	got, err = r.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLoginAt)

	_, err = r.GetUserByID(ctx, uuid.New())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.ErrorIs(t, r.CreateUser(ctx, &models.User{Email: "jane@example.com", PasswordHash: "h", Name: "Dup"}), gorm.ErrDuplicatedKey)
}

func storeRefresh(t *testing.T, r *GormRepo, userID uuid.UUID) (string, *models.RefreshToken) {
	t.Helper()
	raw, claims, err := tokens.NewRefreshToken(userID.String(), []byte("refresh"), time.Hour)
	require.NoError(t, err)
	rt := &models.RefreshToken{
		Token:     tokens.Sha256Hex(raw),
		UserID:    userID,
		JTI:       claims.ID,
		ExpiresAt: claims.ExpiresAt.Unix(),
	}
	require.NoError(t, r.AddRefreshToken(context.Background(), rt))
	return raw, rt
}

func TestRotateRefreshToken(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()
	user := uuid.New()

	raw, old := storeRefresh(t, r, user)
	_, next := func() (string, *models.RefreshToken) {
		raw, claims, err := tokens.NewRefreshToken(user.String(), []byte("refresh"), time.Hour)
		require.NoError(t, err)
		return raw, &models.RefreshToken{Token: tokens.Sha256Hex(raw), UserID: user, JTI: claims.ID, ExpiresAt: claims.ExpiresAt.Unix()}
	}()

	require.NoError(t, r.RotateRefreshToken(ctx, old.JTI, raw, next))

	stored, err := r.FindRefreshByJTI(ctx, old.JTI)
	require.NoError(t, err)
	assert.True(t, stored.Revoked)

	require.ErrorIs(t, r.RotateRefreshToken(ctx, old.JTI, raw, &models.RefreshToken{}), ErrTokenRevoked)

	_, err = r.FindRefreshByJTI(ctx, next.JTI)
	require.NoError(t, err)
}

func TestRevokeTokens(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()
	user := uuid.New()

	raw, rt := storeRefresh(t, r, user)
	require.NoError(t, r.RevokeRefreshToken(ctx, raw))
	got, err := r.FindRefreshByJTI(ctx, rt.JTI)
	require.NoError(t, err)
	assert.True(t, got.Revoked)

	_, rt2 := storeRefresh(t, r, user)
	require.NoError(t, r.RevokeUserTokens(ctx, user))
	got, err = r.FindRefreshByJTI(ctx, rt2.JTI)
	require.NoError(t, err)
	assert.True(t, got.Revoked)
}

func TestWishlist(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()
	user := uuid.New()
	p := seedProduct(t, r, "5")

	w := &models.Wishlist{UserID: user, ProductID: p.ID, Notes: "birthday"}
	require.NoError(t, r.AddToWishlist(ctx, w))
	require.ErrorIs(t, r.AddToWishlist(ctx, &models.Wishlist{UserID: user, ProductID: p.ID}), gorm.ErrDuplicatedKey)

	in, err := r.InWishlist(ctx, user, p.ID)
	require.NoError(t, err)
	assert.True(t, in)

	items, err := r.ListWishlist(ctx, user)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Product)
	assert.Equal(t, p.Name, items[0].Product.Name)

	updated, err := r.UpdateWishlistNotes(ctx, user, w.ID, "christmas")
	require.NoError(t, err)
	assert.Equal(t, "christmas", updated.Notes)

	_, err = r.UpdateWishlistNotes(ctx, uuid.New(), w.ID, "steal")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.ErrorIs(t, r.RemoveFromWishlist(ctx, uuid.New(), w.ID), gorm.ErrRecordNotFound)
	require.NoError(t, r.RemoveFromWishlist(ctx, user, w.ID))
	items, err = r.ListWishlist(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, items)
}
