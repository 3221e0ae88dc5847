package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserTableName(t *testing.T) {
	user := User{}
	assert.Equal(t, "users", user.TableName(), "Table name should be 'users'")
}

func TestUserBeforeCreateAssignsID(t *testing.T) {
	user := User{Email: "asha@example.com"}
	assert.NoError(t, user.BeforeCreate(nil))
	assert.Len(t, user.ID, 36, "ID should be a UUID")

	preset := User{ID: "fixed-id"}
	assert.NoError(t, preset.BeforeCreate(nil))
	assert.Equal(t, "fixed-id", preset.ID, "Existing ID should be kept")
}

func TestUserCanInteract(t *testing.T) {
	tests := []struct {
		name      string
		isActive  bool
		isBlocked bool
		want      bool
	}{
		{"active account", true, false, true},
		{"blocked account", true, true, false},
		{"inactive account", false, false, false},
		{"inactive and blocked", false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := User{IsActive: tt.isActive, IsBlocked: tt.isBlocked}
			assert.Equal(t, tt.want, user.CanInteract())
		})
	}
}

func TestUserProfile(t *testing.T) {
	user := User{ID: "u1", Name: "Asha", Email: "asha@example.com", Avatar: "https://cdn/a.png", Role: RoleAdmin}
	profile := user.Profile()

	assert.Equal(t, &UserProfile{ID: "u1", Name: "Asha", Email: "asha@example.com", Avatar: "https://cdn/a.png"}, profile)
}
