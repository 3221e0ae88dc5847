package services

import (
	"testing"
	"time"

	"github.com/rentyatra/rentyatra-api/metrics"
	"github.com/rentyatra/rentyatra-api/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestMessenger(t *testing.T) (*Messenger, *recordingNotifier, *gorm.DB) {
	t.Helper()

	db := setupTestDB(t)
	users := NewIdentityDirectory(db)
	store := NewMessageStore(db, users, NewListingDirectory(db, nil))
	notifier := &recordingNotifier{}
	return NewMessenger(store, users, notifier, zerolog.Nop(), 100), notifier, db
}

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name      string
		page      int
		limit     int
		total     int64
		wantPages int
	}{
		{"empty", 1, 20, 0, 0},
		{"exact", 1, 10, 20, 2},
		{"remainder", 2, 10, 21, 3},
		{"zero limit", 1, 0, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination(tt.page, tt.limit, tt.total)
			assert.Equal(t, tt.wantPages, p.TotalPages)
			assert.Equal(t, tt.total, p.Total)
		})
	}
}

func TestMessenger_Send(t *testing.T) {
	messenger, notifier, db := newTestMessenger(t)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	_, err := messenger.Send(ctx, alice.ID, SendInput{ReceiverID: bob.ID, Content: "first"}, metrics.TransportHTTP)
	require.NoError(t, err)
	msg, err := messenger.Send(ctx, alice.ID, SendInput{ReceiverID: bob.ID, Content: "second"}, metrics.TransportSocket)
	require.NoError(t, err)

	require.Len(t, notifier.created, 2)
	assert.Equal(t, msg.ID, notifier.created[1].ID)

	require.Len(t, notifier.notifications, 2)
	assert.Equal(t, int64(1), notifier.notifications[0].unread)
	assert.Equal(t, int64(2), notifier.notifications[1].unread)
	assert.Equal(t, bob.ID, notifier.notifications[1].msg.ReceiverID)

	t.Run("failed send pushes nothing", func(t *testing.T) {
		_, err := messenger.Send(ctx, alice.ID, SendInput{ReceiverID: bob.ID, Content: " "}, metrics.TransportHTTP)
		require.Error(t, err)
		assert.Len(t, notifier.created, 2)
		assert.Len(t, notifier.notifications, 2)
	})
}

func TestMessenger_Conversations(t *testing.T) {
	messenger, _, db := newTestMessenger(t)
	alice := createUser(t, db, "alice")

	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		peer := createUser(t, db, "peer"+string(rune('a'+i)))
		seedMessage(t, db, peer, alice, "hi", base.Add(time.Duration(i)*time.Minute))
	}

	t.Run("other users cannot list the inbox", func(t *testing.T) {
		_, err := messenger.Conversations(ctx, "someone-else", alice.ID, 1, 20)
		assert.True(t, IsKind(err, KindForbidden))
	})

	t.Run("windows the summaries", func(t *testing.T) {
		result, err := messenger.Conversations(ctx, alice.ID, alice.ID, 2, 2)
		require.NoError(t, err)
		require.Len(t, result.Conversations, 1)
		assert.Equal(t, "peera", result.Conversations[0].OtherUser.Name)
		assert.Equal(t, Pagination{Page: 2, Limit: 2, Total: 3, TotalPages: 2}, result.Pagination)
	})

	t.Run("defaults and caps", func(t *testing.T) {
		result, err := messenger.Conversations(ctx, alice.ID, alice.ID, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Pagination.Page)
		assert.Equal(t, DefaultConversationsLimit, result.Pagination.Limit)

		result, err = messenger.Conversations(ctx, alice.ID, alice.ID, 1, 1000)
		require.NoError(t, err)
		assert.Equal(t, 100, result.Pagination.Limit)
	})

	t.Run("page past the end is empty", func(t *testing.T) {
		result, err := messenger.Conversations(ctx, alice.ID, alice.ID, 5, 2)
		require.NoError(t, err)
		assert.Empty(t, result.Conversations)
		assert.Equal(t, int64(3), result.Pagination.Total)
	})
}

func TestMessenger_OpenConversation(t *testing.T) {
	messenger, notifier, db := newTestMessenger(t)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	carol := createUser(t, db, "carol")

	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	seedMessage(t, db, alice, bob, "one", base)
	seedMessage(t, db, bob, alice, "two", base.Add(time.Minute))
	seedMessage(t, db, alice, bob, "three", base.Add(2*time.Minute))

	t.Run("outsiders are rejected", func(t *testing.T) {
		_, err := messenger.OpenConversation(ctx, carol.ID, alice.ID, bob.ID, 1, 50)
		assert.True(t, IsKind(err, KindForbidden))
		assert.Empty(t, notifier.receipts)
	})

	t.Run("unknown counterpart", func(t *testing.T) {
		_, err := messenger.OpenConversation(ctx, alice.ID, alice.ID, "ghost", 1, 50)
		assert.True(t, IsKind(err, KindNotFound))
	})

	t.Run("marks read and returns oldest first", func(t *testing.T) {
		view, err := messenger.OpenConversation(ctx, bob.ID, alice.ID, bob.ID, 1, 50)
		require.NoError(t, err)

		assert.Equal(t, models.ConversationID(alice.ID, bob.ID), view.ConversationID)
		assert.Equal(t, "alice", view.OtherUser.Name)
		require.Len(t, view.Messages, 3)
		assert.Equal(t, "one", view.Messages[0].Content)
		assert.Equal(t, "three", view.Messages[2].Content)
		assert.True(t, view.Messages[0].IsRead)
		assert.False(t, view.Messages[1].IsRead, "bob's own message is not marked")

		require.Len(t, notifier.receipts, 2, "one receipt per message that changed state")
		for _, r := range notifier.receipts {
			assert.Equal(t, alice.ID, r.SenderID)
			assert.NotNil(t, r.ReadAt)
		}

		unread, err := messenger.UnreadCount(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), unread)
	})

	t.Run("reopening sends no receipts", func(t *testing.T) {
		_, err := messenger.OpenConversation(ctx, bob.ID, bob.ID, alice.ID, 1, 50)
		require.NoError(t, err)
		assert.Len(t, notifier.receipts, 2)
	})

	t.Run("pages are oldest first within the page", func(t *testing.T) {
		view, err := messenger.OpenConversation(ctx, alice.ID, alice.ID, bob.ID, 1, 2)
		require.NoError(t, err)
		require.Len(t, view.Messages, 2)
		assert.Equal(t, "two", view.Messages[0].Content)
		assert.Equal(t, "three", view.Messages[1].Content)
		assert.Equal(t, 2, view.Pagination.TotalPages)
	})
}

func TestMessenger_MarkRead(t *testing.T) {
	messenger, notifier, db := newTestMessenger(t)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	msg := seedMessage(t, db, alice, bob, "hello", time.Now())

	_, err := messenger.MarkRead(ctx, alice.ID, msg.ID)
	assert.True(t, IsKind(err, KindForbidden))
	assert.Empty(t, notifier.receipts)

	read, err := messenger.MarkRead(ctx, bob.ID, msg.ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)
	require.Len(t, notifier.receipts, 1)
	assert.Equal(t, msg.ID, notifier.receipts[0].ID)

	_, err = messenger.MarkRead(ctx, bob.ID, msg.ID)
	require.NoError(t, err)
	assert.Len(t, notifier.receipts, 1, "already read messages emit no receipt")
}
