package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/marketplace/internal/hash"
	"github.com/Skotchmaster/marketplace/internal/logging"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/transport"
)

type UserService struct {
	Repo *repo.GormRepo
}

func (s *UserService) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, dbErr(err, "user")
	}
	return user, nil
}

// UpdateProfile changes name, phone and avatar. A password change needs the
// current password and revokes every refresh token of the user.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req transport.UpdateProfileRequest) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "user.update_profile", "user_id", userID)

	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, dbErr(err, "user")
	}

	if req.Name != nil {
		if err := validateName(*req.Name, 2, 100, "name"); err != nil {
			return nil, err
		}
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		phone := strings.TrimSpace(*req.Phone)
		if len(phone) > 20 {
			return nil, fmt.Errorf("%w: phone is too long", ErrValidation)
		}
		user.Phone = phone
	}
	if req.AvatarURL != nil {
		user.AvatarURL = strings.TrimSpace(*req.AvatarURL)
	}

	passwordChanged := false
	if req.NewPassword != nil {
		if !hash.CheckPassword(user.PasswordHash, req.CurrentPassword) {
			return nil, fmt.Errorf("%w: current password is incorrect", ErrUnauthorized)
		}
		if len(*req.NewPassword) < MinPasswordLength {
			return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, MinPasswordLength)
		}
		pwHash, err := hash.HashPassword(*req.NewPassword)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = pwHash
		passwordChanged = true
	}

	if err := s.Repo.SaveUser(ctx, user); err != nil {
		return nil, dbErr(err, "user")
	}
	if passwordChanged {
		if err := s.Repo.RevokeUserTokens(ctx, userID); err != nil {
			l.Error("revoke_tokens_failed", "error", err)
			return nil, err
		}
		l.Info("password_changed")
	}
	return user, nil
}
