package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace/internal/transport"
)

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := []struct{ in, want string }{
		{"Home & Garden", "home-garden"},
		{"  Books ", "books"},
		{"Sports/Outdoors 2024", "sports-outdoors-2024"},
		{"---", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), tt.in)
	}
}

func TestCategoryService_Create(t *testing.T) {
	t.Parallel()
	svc := &CategoryService{Repo: newRepo(t)}
	ctx := context.Background()

	c, err := svc.Create(ctx, transport.CreateCategoryRequest{Name: "Home & Garden"})
	require.NoError(t, err)
	assert.Equal(t, "home-garden", c.Slug)
	assert.True(t, c.IsActive)

	_, err = svc.Create(ctx, transport.CreateCategoryRequest{Name: "Home and Garden", Slug: "home-garden"})
	require.ErrorIs(t, err, ErrConflict)

	_, err = svc.Create(ctx, transport.CreateCategoryRequest{Name: "Bad", Slug: "Bad Slug"})
	require.ErrorIs(t, err, ErrValidation)

	inactive := false
	hidden, err := svc.Create(ctx, transport.CreateCategoryRequest{Name: "Hidden", IsActive: &inactive})
	require.NoError(t, err)
	got, err := svc.Get(ctx, hidden.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	active, err := svc.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, active, 1)
	all, err := svc.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCategoryService_ParentCycle(t *testing.T) {
	t.Parallel()
	svc := &CategoryService{Repo: newRepo(t)}
	ctx := context.Background()

	root, err := svc.Create(ctx, transport.CreateCategoryRequest{Name: "Electronics"})
	require.NoError(t, err)
	child, err := svc.Create(ctx, transport.CreateCategoryRequest{Name: "Phones", ParentID: &root.ID})
	require.NoError(t, err)
	grandchild, err := svc.Create(ctx, transport.CreateCategoryRequest{Name: "Cases", ParentID: &child.ID})
	require.NoError(t, err)

	_, err = svc.Update(ctx, root.ID, transport.UpdateCategoryRequest{ParentID: &grandchild.ID})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Update(ctx, root.ID, transport.UpdateCategoryRequest{ParentID: &root.ID})
	require.ErrorIs(t, err, ErrValidation)

	moved, err := svc.Update(ctx, grandchild.ID, transport.UpdateCategoryRequest{ParentID: &root.ID})
	require.NoError(t, err)
	assert.Equal(t, root.ID, *moved.ParentID)

	detached, err := svc.Update(ctx, grandchild.ID, transport.UpdateCategoryRequest{ClearParent: true})
	require.NoError(t, err)
	assert.Nil(t, detached.ParentID)

	tree, err := svc.Tree(ctx)
	require.NoError(t, err)
	assert.Len(t, tree, 2)
}

func TestCategoryService_Delete(t *testing.T) {
	t.Parallel()
	svc := &CategoryService{Repo: newRepo(t)}
	ctx := context.Background()

	root, err := svc.Create(ctx, transport.CreateCategoryRequest{Name: "Books"})
	require.NoError(t, err)
	leaf, err := svc.Create(ctx, transport.CreateCategoryRequest{Name: "Fiction", ParentID: &root.ID})
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(ctx, root.ID), ErrConflict)
	require.NoError(t, svc.Delete(ctx, leaf.ID))
	require.NoError(t, svc.Delete(ctx, root.ID))

	_, err = svc.Get(ctx, root.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
