package transport

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/marketplace/internal/models"
)

type CreateCategoryRequest struct {
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	ImageURL    string     `json:"image_url"`
	ParentID    *uuid.UUID `json:"parent_id"`
	IsActive    *bool      `json:"is_active"`
	SortOrder   int        `json:"sort_order"`
}

type UpdateCategoryRequest struct {
	Name        *string    `json:"name"`
	Slug        *string    `json:"slug"`
	Description *string    `json:"description"`
	ImageURL    *string    `json:"image_url"`
	ParentID    *uuid.UUID `json:"parent_id"`
	ClearParent bool       `json:"clear_parent"`
	IsActive    *bool      `json:"is_active"`
	SortOrder   *int       `json:"sort_order"`
}

type CreateProductRequest struct {
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	Price        decimal.Decimal    `json:"price"`
	ComparePrice *decimal.Decimal   `json:"compare_price"`
	Images       []string           `json:"images"`
	CategoryID   uuid.UUID          `json:"category_id"`
	Stock        int                `json:"stock"`
	SKU          string             `json:"sku"`
	Weight       *decimal.Decimal   `json:"weight"`
	Dimensions   *models.Dimensions `json:"dimensions"`
	Tags         []string           `json:"tags"`
	Featured     bool               `json:"featured"`
	Trending     bool               `json:"trending"`
}

type UpdateProductRequest struct {
	Name         *string            `json:"name"`
	Description  *string            `json:"description"`
	Price        *decimal.Decimal   `json:"price"`
	ComparePrice *decimal.Decimal   `json:"compare_price"`
	Images       []string           `json:"images"`
	CategoryID   *uuid.UUID         `json:"category_id"`
	Stock        *int               `json:"stock"`
	SKU          *string            `json:"sku"`
	Weight       *decimal.Decimal   `json:"weight"`
	Dimensions   *models.Dimensions `json:"dimensions"`
	Tags         []string           `json:"tags"`
	IsActive     *bool              `json:"is_active"`
	Featured     *bool              `json:"featured"`
	Trending     *bool              `json:"trending"`
}

type CreateReviewRequest struct {
	Rating  int      `json:"rating"`
	Title   string   `json:"title"`
	Comment string   `json:"comment"`
	Images  []string `json:"images"`
}

type UpdateReviewRequest struct {
	Rating  *int     `json:"rating"`
	Title   *string  `json:"title"`
	Comment *string  `json:"comment"`
	Images  []string `json:"images"`
}

type ModerateReviewRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

type AddWishlistRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Notes     string    `json:"notes"`
}

type UpdateWishlistRequest struct {
	Notes string `json:"notes"`
}
