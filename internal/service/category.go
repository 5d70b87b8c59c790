package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/logging"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/transport"
)

var (
	slugRe      = regexp.MustCompile(`^[a-z0-9-]+$`)
	slugStripRe = regexp.MustCompile(`[^a-z0-9]+`)
)

type CategoryService struct {
	Repo *repo.GormRepo
}

// Slugify lowercases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	return strings.Trim(slugStripRe.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

func (s *CategoryService) List(ctx context.Context, includeInactive bool) ([]models.Category, error) {
	return s.Repo.ListCategories(ctx, includeInactive)
}

func (s *CategoryService) Tree(ctx context.Context) ([]*models.Category, error) {
	return s.Repo.CategoryTree(ctx)
}

func (s *CategoryService) Get(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	c, err := s.Repo.GetCategory(ctx, id)
	if err != nil {
		return nil, dbErr(err, "category")
	}
	return c, nil
}

func (s *CategoryService) checkSlug(ctx context.Context, slug string, self uuid.UUID) error {
	if !slugRe.MatchString(slug) || len(slug) > 100 {
		return fmt.Errorf("%w: slug may contain only lowercase letters, digits and dashes", ErrValidation)
	}
	taken, err := s.Repo.SlugTaken(ctx, slug, self)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: slug %q is already used", ErrConflict, slug)
	}
	return nil
}

func (s *CategoryService) checkParent(ctx context.Context, self, parent uuid.UUID) error {
	if parent == self {
		return fmt.Errorf("%w: category cannot be its own parent", ErrValidation)
	}
	if _, err := s.Repo.GetCategory(ctx, parent); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: parent category not found", ErrValidation)
		}
		return err
	}
	if self == uuid.Nil {
		return nil
	}
	cycle, err := s.Repo.IsDescendant(ctx, self, parent)
	if err != nil {
		return err
	}
	if cycle {
		return fmt.Errorf("%w: parent is a descendant of the category", ErrValidation)
	}
	return nil
}

func (s *CategoryService) Create(ctx context.Context, req transport.CreateCategoryRequest) (*models.Category, error) {
	l := logging.FromContext(ctx).With("svc", "category.create")

	if err := validateName(req.Name, 2, 100, "name"); err != nil {
		return nil, err
	}
	slug := strings.TrimSpace(req.Slug)
	if slug == "" {
		slug = Slugify(req.Name)
	}
	if err := s.checkSlug(ctx, slug, uuid.Nil); err != nil {
		return nil, err
	}
	if req.ParentID != nil {
		if err := s.checkParent(ctx, uuid.Nil, *req.ParentID); err != nil {
			return nil, err
		}
	}

	c := &models.Category{
		Name:        strings.TrimSpace(req.Name),
		Slug:        slug,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		ParentID:    req.ParentID,
		IsActive:    true,
		SortOrder:   req.SortOrder,
	}
	if err := s.Repo.CreateCategory(ctx, c); err != nil {
		return nil, dbErr(err, "category")
	}
	// is_active has a column default, so an inactive category needs a second write.
	if req.IsActive != nil && !*req.IsActive {
		c.IsActive = false
		if err := s.Repo.SaveCategory(ctx, c); err != nil {
			return nil, err
		}
	}
	l.Info("category_created", "category_id", c.ID, "slug", c.Slug)
	return c, nil
}

func (s *CategoryService) Update(ctx context.Context, id uuid.UUID, req transport.UpdateCategoryRequest) (*models.Category, error) {
	c, err := s.Repo.GetCategory(ctx, id)
	if err != nil {
		return nil, dbErr(err, "category")
	}

	if req.Name != nil {
		if err := validateName(*req.Name, 2, 100, "name"); err != nil {
			return nil, err
		}
		c.Name = strings.TrimSpace(*req.Name)
	}
	if req.Slug != nil && *req.Slug != c.Slug {
		if err := s.checkSlug(ctx, *req.Slug, c.ID); err != nil {
			return nil, err
		}
		c.Slug = *req.Slug
	}
	if req.Description != nil {
		c.Description = *req.Description
	}
	if req.ImageURL != nil {
		c.ImageURL = *req.ImageURL
	}
	switch {
	case req.ClearParent:
		c.ParentID = nil
	case req.ParentID != nil:
		if err := s.checkParent(ctx, c.ID, *req.ParentID); err != nil {
			return nil, err
		}
		c.ParentID = req.ParentID
	}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}
	if req.SortOrder != nil {
		c.SortOrder = *req.SortOrder
	}

	if err := s.Repo.SaveCategory(ctx, c); err != nil {
		return nil, dbErr(err, "category")
	}
	return c, nil
}

// Delete refuses categories that still have products or children.
func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	inUse, err := s.Repo.CategoryInUse(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return fmt.Errorf("%w: category has products or subcategories", ErrConflict)
	}
	return dbErr(s.Repo.DeleteCategory(ctx, id), "category")
}
