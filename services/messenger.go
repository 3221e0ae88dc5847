package services

import (
	"context"

	"github.com/rentyatra/rentyatra-api/metrics"
	"github.com/rentyatra/rentyatra-api/models"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// Page size defaults for the inbox and conversation views
const (
	DefaultConversationsLimit = 20
	DefaultMessagesLimit      = 50
)

// Pagination describes a windowed list
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// NewPagination computes the page count for total items
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

// ConversationPage is one page of a user's inbox
type ConversationPage struct {
	Conversations []models.ConversationSummary `json:"conversations"`
	Pagination    Pagination                   `json:"pagination"`
}

// ConversationView is one page of a conversation, oldest message first
type ConversationView struct {
	Messages       []models.Message    `json:"messages"`
	OtherUser      *models.UserProfile `json:"other_user"`
	ConversationID string              `json:"conversation_id"`
	Pagination     Pagination          `json:"pagination"`
}

// Messenger is the single entry point for messaging operations. HTTP handlers
// and the WebSocket gateway both go through it so the two paths cannot diverge.
type Messenger struct {
	store       *MessageStore
	users       IdentityDirectory
	notifier    Notifier
	log         zerolog.Logger
	maxPageSize int
}

// NewMessenger wires the store, the user directory and the notifier
func NewMessenger(store *MessageStore, users IdentityDirectory, notifier Notifier, log zerolog.Logger, maxPageSize int) *Messenger {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &Messenger{
		store:       store,
		users:       users,
		notifier:    notifier,
		log:         log.With().Str("component", "messenger").Logger(),
		maxPageSize: maxPageSize,
	}
}

// Send persists a message and then pushes it to the conversation room and to
// the receiver. Push failures never undo the write.
func (m *Messenger) Send(ctx context.Context, senderID string, in SendInput, transport string) (*models.Message, error) {
	msg, err := m.store.Send(ctx, senderID, in)
	if err != nil {
		return nil, err
	}
	metrics.RecordMessageSent(transport)

	m.notifier.MessageCreated(msg)

	unread, err := m.store.UnreadCount(ctx, msg.ReceiverID)
	if err != nil {
		m.log.Warn().Err(err).Str("message_id", msg.ID).Msg("skipping notification, unread count unavailable")
		return msg, nil
	}
	m.notifier.MessageNotification(msg, unread)

	return msg, nil
}

// Conversations returns a page of userID's inbox. Only the user may list it.
func (m *Messenger) Conversations(ctx context.Context, callerID, userID string, page, limit int) (*ConversationPage, error) {
	if callerID != userID {
		return nil, NewForbiddenError("FORBIDDEN", "You can only view your own conversations")
	}

	page, limit = m.normalize(page, limit, DefaultConversationsLimit)

	summaries, err := m.store.ConversationsFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	window := lo.Slice(summaries, (page-1)*limit, page*limit)
	return &ConversationPage{
		Conversations: window,
		Pagination:    NewPagination(page, limit, int64(len(summaries))),
	}, nil
}

// OpenConversation marks the caller's unread messages between a and b as
// read, sends a receipt for each of them, and returns the requested page.
func (m *Messenger) OpenConversation(ctx context.Context, callerID, a, b string, page, limit int) (*ConversationView, error) {
	if callerID != a && callerID != b {
		return nil, NewForbiddenError("FORBIDDEN", "You are not a participant of this conversation")
	}

	otherID := a
	if callerID == a {
		otherID = b
	}
	other, err := m.users.FindByID(ctx, otherID)
	if err != nil {
		return nil, err
	}

	conversationID := models.ConversationID(a, b)
	read, err := m.store.MarkConversationRead(ctx, conversationID, callerID)
	if err != nil {
		return nil, err
	}
	metrics.RecordMessagesRead(len(read))
	for i := range read {
		m.notifier.MessageRead(&read[i])
	}

	page, limit = m.normalize(page, limit, DefaultMessagesLimit)
	messages, total, err := m.store.Conversation(ctx, a, b, page, limit)
	if err != nil {
		return nil, err
	}

	return &ConversationView{
		Messages:       lo.Reverse(messages),
		OtherUser:      other.Profile(),
		ConversationID: conversationID,
		Pagination:     NewPagination(page, limit, total),
	}, nil
}

// MarkRead marks one message as read for its receiver. A receipt is pushed
// only when the message actually changed state.
func (m *Messenger) MarkRead(ctx context.Context, callerID, messageID string) (*models.Message, error) {
	msg, transitioned, err := m.store.MarkOneRead(ctx, messageID, callerID)
	if err != nil {
		return nil, err
	}
	if transitioned {
		metrics.RecordMessagesRead(1)
		m.notifier.MessageRead(msg)
	}
	return msg, nil
}

// UnreadCount returns the caller's unread total
func (m *Messenger) UnreadCount(ctx context.Context, callerID string) (int64, error) {
	return m.store.UnreadCount(ctx, callerID)
}

// Search looks through the caller's own messages
func (m *Messenger) Search(ctx context.Context, callerID, query string) ([]models.SearchResult, error) {
	return m.store.Search(ctx, callerID, query)
}

func (m *Messenger) normalize(page, limit, defaultLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if m.maxPageSize > 0 && limit > m.maxPageSize {
		limit = m.maxPageSize
	}
	return page, limit
}
