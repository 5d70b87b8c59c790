package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/hash"
	"github.com/Skotchmaster/marketplace/internal/logging"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/tokens"
	"github.com/Skotchmaster/marketplace/internal/transport"
)

const MinPasswordLength = 6

type AuthService struct {
	Repo          *repo.GormRepo
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type LoginResult struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

func validateEmail(email string) error {
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: valid email is required", ErrValidation)
	}
	return nil
}

func validateName(name string, lo, hi int, field string) error {
	n := len([]rune(strings.TrimSpace(name)))
	if n < lo || n > hi {
		return fmt.Errorf("%w: %s must be %d-%d characters", ErrValidation, field, lo, hi)
	}
	return nil
}

func (s *AuthService) Register(ctx context.Context, req transport.RegisterRequest) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(req.Password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, MinPasswordLength)
	}
	if err := validateName(req.Name, 2, 100, "name"); err != nil {
		return nil, err
	}
	role := req.Role
	switch role {
	case "":
		role = models.RoleCustomer
	case models.RoleCustomer, models.RoleSeller:
	default:
		return nil, fmt.Errorf("%w: role must be customer or seller", ErrValidation)
	}

	taken, err := s.Repo.EmailTaken(ctx, email)
	if err != nil {
		l.Error("register_failed", "reason", "email lookup", "error", err)
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		l.Error("register_failed", "reason", "cannot hash the password", "error", err)
		return nil, err
	}
	user := &models.User{
		Email:        email,
		PasswordHash: pwHash,
		Name:         strings.TrimSpace(req.Name),
		Phone:        strings.TrimSpace(req.Phone),
		Role:         role,
		IsActive:     true,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		return nil, dbErr(err, "user")
	}
	l.Info("user_registered", "user_id", user.ID, "role", role)

	return s.issue(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.Repo.GetUserByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	}
	if err != nil {
		l.Error("login_failed", "reason", "user lookup", "error", err)
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: account is deactivated", ErrForbidden)
	}

	now := time.Now().UTC()
	if err := s.Repo.TouchLastLogin(ctx, user.ID, now); err != nil {
		l.Warn("touch_last_login_failed", "user_id", user.ID, "error", err)
	}
	user.LastLoginAt = &now

	return s.issue(ctx, user)
}

// newTokens signs a token pair and returns the refresh row to store.
func (s *AuthService) newTokens(user *models.User) (*LoginResult, *models.RefreshToken, error) {
	access, accessExp, err := tokens.NewAccessToken(user.ID.String(), user.Role, s.AccessSecret, s.AccessTTL)
	if err != nil {
		return nil, nil, err
	}
	refresh, claims, err := tokens.NewRefreshToken(user.ID.String(), s.RefreshSecret, s.RefreshTTL)
	if err != nil {
		return nil, nil, err
	}
	row := &models.RefreshToken{
		Token:     tokens.Sha256Hex(refresh),
		UserID:    user.ID,
		JTI:       claims.ID,
		ExpiresAt: claims.ExpiresAt.Unix(),
	}
	return &LoginResult{
		User:         user,
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   claims.ExpiresAt.Time,
	}, row, nil
}

func (s *AuthService) issue(ctx context.Context, user *models.User) (*LoginResult, error) {
	res, row, err := s.newTokens(user)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.AddRefreshToken(ctx, row); err != nil {
		return nil, err
	}
	return res, nil
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// revoked, so replaying it fails.
func (s *AuthService) Refresh(ctx context.Context, raw string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	if raw == "" {
		return nil, fmt.Errorf("%w: refresh token missing", ErrUnauthorized)
	}
	claims, err := tokens.RefreshClaimsFromToken(raw, s.RefreshSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid refresh token", ErrUnauthorized)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid refresh token", ErrUnauthorized)
	}
	user, err := s.Repo.GetUserByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !user.IsActive) {
		return nil, fmt.Errorf("%w: user not found", ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}

	res, row, err := s.newTokens(user)
	if err != nil {
		return nil, err
	}
	err = s.Repo.RotateRefreshToken(ctx, claims.ID, raw, row)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, repo.ErrTokenRevoked):
		l.Warn("refresh_rejected", "user_id", userID, "jti", claims.ID)
		return nil, fmt.Errorf("%w: token expired or revoked", ErrUnauthorized)
	case err != nil:
		return nil, err
	}
	return res, nil
}

// Logout revokes the given refresh token. An empty token is accepted so that
// clients holding only an access token can still log out.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}
	return s.Repo.RevokeRefreshToken(ctx, raw)
}

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, dbErr(err, "user")
	}
	return user, nil
}
