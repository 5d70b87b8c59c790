package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/marketplace/internal/logging"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/storage"
)

type UploadService struct {
	Storage *storage.Gateway
	Repo    *repo.GormRepo
}

// FileInfo is the metadata of a stored object plus a short-lived read URL.
type FileInfo struct {
	*storage.Metadata
	SignedURL string `json:"signedUrl,omitempty"`
}

func storageErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrInvalidUpload):
		return fmt.Errorf("%w: %w", ErrValidation, err)
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return fmt.Errorf("%w: %w", ErrUpstream, err)
}

func (s *UploadService) Upload(ctx context.Context, folder storage.Folder, f storage.File) (*storage.Result, error) {
	res, err := s.Storage.Upload(ctx, folder, f)
	if err != nil {
		return nil, storageErr(err)
	}
	return res, nil
}

// UploadMany stores all files or none of them.
func (s *UploadService) UploadMany(ctx context.Context, folder storage.Folder, files []storage.File) ([]storage.Result, error) {
	res, err := s.Storage.UploadMany(ctx, folder, files)
	if err != nil {
		return nil, storageErr(err)
	}
	return res, nil
}

// UploadAvatar stores the image and points the user's profile at it.
func (s *UploadService) UploadAvatar(ctx context.Context, userID uuid.UUID, f storage.File) (*storage.Result, *models.User, error) {
	l := logging.FromContext(ctx).With("svc", "upload.avatar", "user_id", userID)

	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, nil, dbErr(err, "user")
	}
	res, err := s.Storage.Upload(ctx, storage.FolderAvatars, f)
	if err != nil {
		return nil, nil, storageErr(err)
	}
	user.AvatarURL = res.URL
	if err := s.Repo.SaveUser(ctx, user); err != nil {
		l.Error("save_avatar_failed", "file", res.FileName, "error", err)
		if derr := s.Storage.Delete(context.WithoutCancel(ctx), res.FileName); derr != nil {
			l.Warn("cleanup_failed", "file", res.FileName, "error", derr)
		}
		return nil, nil, err
	}
	return res, user, nil
}

func (s *UploadService) Delete(ctx context.Context, name string) error {
	return storageErr(s.Storage.Delete(ctx, name))
}

func (s *UploadService) Info(ctx context.Context, name string) (*FileInfo, error) {
	md, err := s.Storage.Metadata(ctx, name)
	if err != nil {
		return nil, storageErr(err)
	}
	info := &FileInfo{Metadata: md}
	url, err := s.Storage.SignedURL(ctx, name, 0)
	if err != nil {
		logging.FromContext(ctx).Warn("signed_url_failed", "file", name, "error", err)
	} else {
		info.SignedURL = url
	}
	return info, nil
}
