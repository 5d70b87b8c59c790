package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Product struct {
	ID           uuid.UUID        `gorm:"type:uuid;primaryKey"                json:"id"`
	Name         string           `gorm:"not null;size:200"                   json:"name"`
	Description  string           `gorm:"type:text"                           json:"description"`
	Price        decimal.Decimal  `gorm:"type:decimal(10,2);not null"         json:"price"`
	ComparePrice *decimal.Decimal `gorm:"type:decimal(10,2)"                  json:"compare_price,omitempty"`
	Images       []string         `gorm:"serializer:json"                     json:"images"`
	CategoryID   uuid.UUID        `gorm:"type:uuid;index;not null"            json:"category_id"`
	SellerID     uuid.UUID        `gorm:"type:uuid;index;not null"            json:"seller_id"`
	Stock        int              `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	SKU          string           `gorm:"column:sku;uniqueIndex;not null;size:50" json:"sku"`
	IsActive     bool             `gorm:"not null;default:true;index"         json:"is_active"`
	Rating       float64          `gorm:"type:decimal(3,2);not null;default:0" json:"rating"`
	ReviewCount  int              `gorm:"not null;default:0"                  json:"review_count"`
	Weight       *decimal.Decimal `gorm:"type:decimal(8,2)"                   json:"weight,omitempty"`
	Dimensions   *Dimensions      `gorm:"serializer:json"                     json:"dimensions,omitempty"`
	Tags         []string         `gorm:"serializer:json"                     json:"tags"`
	Featured     bool             `gorm:"not null;default:false"              json:"featured"`
	Trending     bool             `gorm:"not null;default:false"              json:"trending"`
	CreatedAt    time.Time        `                                           json:"created_at"`
	UpdatedAt    time.Time        `                                           json:"updated_at"`

	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"category,omitempty"`
	Seller   *User     `gorm:"foreignKey:SellerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"    json:"seller,omitempty"`
	Reviews  []Review  `gorm:"foreignKey:ProductID"                                                  json:"reviews,omitempty"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

func (Product) TableName() string {
	return "products"
}

func (p *Product) IsInStock() bool {
	return p.Stock > 0
}

// TakeStock lowers stock by q, never below zero.
func (p *Product) TakeStock(q int) {
	p.Stock = max(0, p.Stock-q)
}
