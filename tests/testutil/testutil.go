// Package testutil holds helpers shared by the integration and acceptance
// suites.
package testutil

import (
	"os"
	"testing"

	"github.com/rentyatra/rentyatra-api/app"
	"github.com/rentyatra/rentyatra-api/config"
	"github.com/rentyatra/rentyatra-api/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// RequireTestEnvironment ensures that tests are running in the test environment.
// This prevents accidental execution of tests against production or development databases.
// It will fail the test immediately if GO_ENV is not set to "test".
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	env := os.Getenv("GO_ENV")
	if env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: Tests must run with GO_ENV=test to prevent data loss. Current GO_ENV=%q. Set GO_ENV=test before running tests.", env)
	}
}

// MustSetTestEnvironment sets GO_ENV to test for the duration of t
func MustSetTestEnvironment(t *testing.T) {
	t.Helper()

	t.Setenv("GO_ENV", "test")
	RequireTestEnvironment(t)
}

// NewTestConfig returns a configuration suitable for an in-process server.
// AWS is left unset so product images go to the in-memory store.
func NewTestConfig() *config.Config {
	return &config.Config{
		DatabaseURL:        "sqlite::memory:",
		Port:               "0",
		GoEnv:              "test",
		Auth0Domain:        "test.auth0.com",
		Auth0Audience:      "https://api.test.com",
		LogLevel:           "disabled",
		CORSAllowedOrigins: []string{"*"},
		WSSendBuffer:       64,
		WSMaxMessageBytes:  8192,
		MaxPageSize:        100,
	}
}

// NewTestDB opens a migrated in-memory SQLite database that lives as long as t
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Discard,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, app.Migrate(db))
	return db
}

// CreateUser inserts an active account whose Auth0 subject is "auth0|"+name
func CreateUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()

	user := &models.User{
		Auth0ID:  "auth0|" + name,
		Name:     name,
		Email:    name + "@example.com",
		Role:     models.RoleUser,
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateProduct inserts an approved listing owned by owner
func CreateProduct(t *testing.T, db *gorm.DB, owner *models.User, title string) *models.Product {
	t.Helper()

	product := &models.Product{
		OwnerID:     owner.ID,
		Title:       title,
		PricePerDay: 25,
		Status:      models.ProductStatusApproved,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}
