package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ReviewStatusPending  = "pending"
	ReviewStatusApproved = "approved"
	ReviewStatusRejected = "rejected"
)

type Review struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"                              json:"id"`
	ProductID       uuid.UUID  `gorm:"type:uuid;uniqueIndex:idx_product_user;not null"   json:"product_id"`
	UserID          uuid.UUID  `gorm:"type:uuid;uniqueIndex:idx_product_user;not null"   json:"user_id"`
	Rating          int        `gorm:"not null;check:rating >= 1 AND rating <= 5"        json:"rating"`
	Title           string     `gorm:"not null;size:200"                                 json:"title"`
	Comment         string     `gorm:"type:text;not null"                                json:"comment"`
	IsVerified      bool       `gorm:"not null;default:false"                            json:"is_verified"`
	Helpful         int        `gorm:"not null;default:0"                                json:"helpful"`
	Images          []string   `gorm:"serializer:json"                                   json:"images"`
	Status          string     `gorm:"not null;default:pending;size:20;index"            json:"status"`
	ModeratedBy     *uuid.UUID `gorm:"type:uuid"                                         json:"moderated_by,omitempty"`
	ModeratedAt     *time.Time `                                                         json:"moderated_at,omitempty"`
	ModerationNotes string     `gorm:"type:text"                                         json:"moderation_notes,omitempty"`
	CreatedAt       time.Time  `                                                         json:"created_at"`
	UpdatedAt       time.Time  `                                                         json:"updated_at"`

	User *User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user,omitempty"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

func (Review) TableName() string {
	return "reviews"
}

func (r *Review) MarkAsHelpful() {
	r.Helpful++
}

func (r *Review) Approve(by uuid.UUID, notes string) {
	r.moderate(ReviewStatusApproved, by, notes)
}

func (r *Review) Reject(by uuid.UUID, notes string) {
	r.moderate(ReviewStatusRejected, by, notes)
}

func (r *Review) moderate(status string, by uuid.UUID, notes string) {
	now := time.Now().UTC()
	r.Status = status
	r.ModeratedBy = &by
	r.ModeratedAt = &now
	r.ModerationNotes = notes
}
