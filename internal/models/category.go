package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Category struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"          json:"id"`
	Name        string     `gorm:"not null;size:100"             json:"name"`
	Slug        string     `gorm:"uniqueIndex;not null;size:100" json:"slug"`
	Description string     `                                     json:"description,omitempty"`
	ImageURL    string     `                                     json:"image_url,omitempty"`
	ParentID    *uuid.UUID `gorm:"type:uuid;index"               json:"parent_id,omitempty"`
	IsActive    bool       `gorm:"not null;default:true"         json:"is_active"`
	SortOrder   int        `gorm:"not null;default:0"            json:"sort_order"`
	CreatedAt   time.Time  `                                     json:"created_at"`
	UpdatedAt   time.Time  `                                     json:"updated_at"`

	Children []*Category `gorm:"-" json:"children,omitempty"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

func (Category) TableName() string {
	return "categories"
}
