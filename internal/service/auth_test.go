package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/tokens"
	"github.com/Skotchmaster/marketplace/internal/transport"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	return &AuthService{
		Repo:          newRepo(t),
		AccessSecret:  []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
	}
}

func TestAuthService_RegisterLoginRefreshLogout(t *testing.T) {
	t.Parallel()
	svc := newAuthService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, transport.RegisterRequest{
		Email:    "  Buyer@Example.com ",
		Password: "secret123",
		Name:     "Buyer",
	})
	require.NoError(t, err)
	assert.Equal(t, "buyer@example.com", reg.User.Email)
	assert.Equal(t, models.RoleCustomer, reg.User.Role)

	claims, err := tokens.AccessClaimsFromToken(reg.AccessToken, svc.AccessSecret)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID.String(), claims.Subject)
	assert.Equal(t, models.RoleCustomer, claims.Role)

	_, err = svc.Login(ctx, "buyer@example.com", "wrong-password")
	require.ErrorIs(t, err, ErrUnauthorized)

	login, err := svc.Login(ctx, "BUYER@example.com", "secret123")
	require.NoError(t, err)
	require.NotNil(t, login.User.LastLoginAt)

	next, err := svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, next.RefreshToken)

	_, err = svc.Refresh(ctx, login.RefreshToken)
	require.ErrorIs(t, err, ErrUnauthorized, "a refresh token is single use")

	require.NoError(t, svc.Logout(ctx, next.RefreshToken))
	_, err = svc.Refresh(ctx, next.RefreshToken)
	require.ErrorIs(t, err, ErrUnauthorized)

	me, err := svc.Me(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Buyer", me.Name)
}

func TestAuthService_Register_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  transport.RegisterRequest
	}{
		{"bad email", transport.RegisterRequest{Email: "nope", Password: "secret123", Name: "Al"}},
		{"short password", transport.RegisterRequest{Email: "a@b.io", Password: "123", Name: "Al"}},
		{"short name", transport.RegisterRequest{Email: "a@b.io", Password: "secret123", Name: "A"}},
		{"admin role", transport.RegisterRequest{Email: "a@b.io", Password: "secret123", Name: "Al", Role: models.RoleAdmin}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := newAuthService(t)
			_, err := svc.Register(context.Background(), tt.req)
			require.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	t.Parallel()
	svc := newAuthService(t)
	ctx := context.Background()

	req := transport.RegisterRequest{Email: "seller@example.com", Password: "secret123", Name: "Seller", Role: models.RoleSeller}
	res, err := svc.Register(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, models.RoleSeller, res.User.Role)

	_, err = svc.Register(ctx, req)
	require.ErrorIs(t, err, ErrConflict)
}

func TestAuthService_Login_Inactive(t *testing.T) {
	t.Parallel()
	svc := newAuthService(t)
	ctx := context.Background()

	u := seedUser(t, svc.Repo, models.RoleCustomer)
	u.IsActive = false
	require.NoError(t, svc.Repo.SaveUser(ctx, u))

	_, err := svc.Login(ctx, u.Email, "secret123")
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Login(ctx, "missing@example.com", "secret123")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthService_Refresh_Garbage(t *testing.T) {
	t.Parallel()
	svc := newAuthService(t)

	_, err := svc.Refresh(context.Background(), "")
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.Refresh(context.Background(), "not-a-jwt")
	require.ErrorIs(t, err, ErrUnauthorized)
}
