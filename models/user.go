package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a marketplace account (renter, owner or admin)
type User struct {
	ID        string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	Auth0ID   string         `gorm:"uniqueIndex;not null" json:"-"` // Auth0 user ID (from 'sub' claim)
	Name      string         `gorm:"not null" json:"name"`
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	Avatar    string         `json:"avatar"`
	Role      string         `gorm:"not null;default:'user'" json:"role"`
	IsActive  bool           `gorm:"not null;default:true" json:"is_active"`
	IsBlocked bool           `gorm:"not null;default:false" json:"is_blocked"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns a UUID when none was provided
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// CanInteract reports whether the account may use authenticated features
func (u *User) CanInteract() bool {
	return u.IsActive && !u.IsBlocked
}

// Profile returns the small display form embedded in messages
func (u *User) Profile() *UserProfile {
	return &UserProfile{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Avatar: u.Avatar,
	}
}

// UserProfile is the public display form of a user
type UserProfile struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
}
