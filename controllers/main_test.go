package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rentyatra/rentyatra-api/middleware"
	"github.com/rentyatra/rentyatra-api/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(&models.User{}, &models.Product{}, &models.Message{}); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// mockAuthMiddleware simulates the Auth0 JWT middleware for testing.
// The subject is read from the X-Test-Subject header so one router can serve
// several users.
func mockAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if subject := c.GetHeader("X-Test-Subject"); subject != "" {
			c.Set(middleware.UserIDKey, subject)
		}
		c.Next()
	}
}

func createTestUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	user := &models.User{Auth0ID: "auth0|" + name, Name: name, Email: name + "@example.com"}
	require.NoError(t, db.Create(user).Error)
	return user
}

// performRequest sends a JSON request as the given user and decodes the envelope
func performRequest(t *testing.T, router *gin.Engine, method, path string, as *models.User, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req, _ := http.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if as != nil {
		req.Header.Set("X-Test-Subject", as.Auth0ID)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), "body: %s", w.Body.String())
	return w.Code, response
}

func errorCode(response map[string]interface{}) string {
	errData, ok := response["error"].(map[string]interface{})
	if !ok {
		return ""
	}
	code, _ := errData["code"].(string)
	return code
}

// recordingNotifier captures pushed events
type recordingNotifier struct {
	mu            sync.Mutex
	created       int
	notifications []int64
	receipts      []string
}

func (r *recordingNotifier) MessageCreated(*models.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created++
}

func (r *recordingNotifier) MessageNotification(_ *models.Message, unread int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, unread)
}

func (r *recordingNotifier) MessageRead(msg *models.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.receipts = append(r.receipts, msg.ID)
}
