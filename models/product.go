package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product statuses
const (
	ProductStatusPending  = "pending"
	ProductStatusApproved = "approved"
	ProductStatusRejected = "rejected"
)

// Product is a rental listing submitted by an owner
type Product struct {
	ID          string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	OwnerID     string         `gorm:"type:varchar(36);not null;index" json:"owner_id"`
	Owner       *User          `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Title       string         `gorm:"not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	PricePerDay float64        `gorm:"not null;check:price_per_day >= 0" json:"price_per_day"`
	Status      string         `gorm:"not null;default:'pending'" json:"status"`
	ImageKeys   []string       `gorm:"serializer:json;type:text" json:"-"` // S3 keys of uploaded images
	Images      []string       `gorm:"-" json:"images"`                    // computed, presigned URLs
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// BeforeCreate assigns a UUID when none was provided
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// ListingSummary is the minimal display form attached to messages
type ListingSummary struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Images []string `json:"images"`
}
