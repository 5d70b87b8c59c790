package repo

import (
	"errors"

	"gorm.io/gorm"
)

// MaxCategoryDepth bounds the breadth-first category tree load.
const MaxCategoryDepth = 5

var (
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrProductUnavailable = errors.New("product unavailable")
)

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}
