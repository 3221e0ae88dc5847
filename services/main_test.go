package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rentyatra/rentyatra-api/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err, "Failed to connect to test database")

	// Every connection to :memory: is a new database, keep a single one
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Product{}, &models.Message{}))
	return db
}

func createUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()

	user := &models.User{
		Auth0ID: "auth0|" + name,
		Name:    name,
		Email:   name + "@example.com",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createProduct(t *testing.T, db *gorm.DB, owner *models.User, title string) *models.Product {
	t.Helper()

	product := &models.Product{OwnerID: owner.ID, Title: title, PricePerDay: 250}
	require.NoError(t, db.Create(product).Error)
	return product
}

// seedMessage inserts a message with a fixed creation time
func seedMessage(t *testing.T, db *gorm.DB, from, to *models.User, content string, at time.Time) *models.Message {
	t.Helper()

	msg := &models.Message{SenderID: from.ID, ReceiverID: to.ID, Content: content, CreatedAt: at}
	require.NoError(t, db.Create(msg).Error)
	return msg
}

func newTestStore(db *gorm.DB) *MessageStore {
	return NewMessageStore(db, NewIdentityDirectory(db), NewListingDirectory(db, nil))
}

// recordingNotifier captures pushed events for assertions
type recordingNotifier struct {
	mu            sync.Mutex
	created       []*models.Message
	notifications []notification
	receipts      []*models.Message
}

type notification struct {
	msg    *models.Message
	unread int64
}

func (r *recordingNotifier) MessageCreated(msg *models.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, msg)
}

func (r *recordingNotifier) MessageNotification(msg *models.Message, unread int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, notification{msg: msg, unread: unread})
}

func (r *recordingNotifier) MessageRead(msg *models.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.receipts = append(r.receipts, msg)
}

var ctx = context.Background()
