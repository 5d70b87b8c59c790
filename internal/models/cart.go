package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Cart holds denormalized totals. Total and ItemCount are only written by
// aggregate.OnCartItemChanged.
type Cart struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"              json:"id"`
	UserID    uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null"    json:"user_id"`
	Total     decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"total"`
	ItemCount int             `gorm:"not null;default:0"                json:"item_count"`
	CreatedAt time.Time       `                                         json:"created_at"`
	UpdatedAt time.Time       `                                         json:"updated_at"`

	Items []CartItem `gorm:"foreignKey:CartID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"items"`
}

func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

func (Cart) TableName() string {
	return "carts"
}

func (c *Cart) IsEmpty() bool {
	return c.ItemCount == 0
}

type CartItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"                              json:"id"`
	CartID    uuid.UUID       `gorm:"type:uuid;uniqueIndex:idx_cart_product;not null"   json:"cart_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;uniqueIndex:idx_cart_product;not null"   json:"product_id"`
	Quantity  int             `gorm:"not null;default:1;check:quantity > 0"             json:"quantity"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null"                       json:"price"`
	CreatedAt time.Time       `                                                         json:"created_at"`
	UpdatedAt time.Time       `                                                         json:"updated_at"`

	Product *Product `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"product,omitempty"`
}

func (i *CartItem) BeforeCreate(tx *gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

func (CartItem) TableName() string {
	return "cart_items"
}

func (i *CartItem) Total() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
