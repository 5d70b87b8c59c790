package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"             json:"id"`
	Email        string     `gorm:"uniqueIndex;not null;size:255"    json:"email"`
	PasswordHash string     `gorm:"not null"                         json:"-"`
	Name         string     `gorm:"not null;size:100"                json:"name"`
	Phone        string     `gorm:"size:20"                          json:"phone,omitempty"`
	AvatarURL    string     `                                        json:"avatar_url,omitempty"`
	Role         string     `gorm:"not null;default:customer;size:20" json:"role"`
	IsActive     bool       `gorm:"not null;default:true"            json:"is_active"`
	LastLoginAt  *time.Time `                                        json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `                                        json:"created_at"`
	UpdatedAt    time.Time  `                                        json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsSeller() bool {
	return u.Role == RoleSeller || u.Role == RoleAdmin
}

type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"  json:"id"`
	Token     string    `gorm:"uniqueIndex;not null"  json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	JTI       string    `gorm:"uniqueIndex;not null"  json:"jti"`
	ExpiresAt int64     `gorm:"not null"              json:"expires_at"`
	Revoked   bool      `gorm:"not null;default:false" json:"revoked"`
	CreatedAt time.Time `                             json:"created_at"`
}

func (t *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	ensureID(&t.ID)
	return nil
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}
