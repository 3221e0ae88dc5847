package gateway

import (
	"encoding/json"
	"time"

	"github.com/rentyatra/rentyatra-api/models"
)

// Events accepted from clients
const (
	EventJoinUser         = "join_user"
	EventJoinConversation = "join_conversation"
	EventSendMessage      = "send_message"
	EventMarkMessageRead  = "mark_message_read"
	EventTypingStart      = "typing_start"
	EventTypingStop       = "typing_stop"
)

// Events pushed to clients
const (
	EventNewMessage          = "new_message"
	EventMessageNotification = "message_notification"
	EventMessageRead         = "message_read"
	EventUserTyping          = "user_typing"
	EventMessageError        = "message_error"
)

// Frame is the envelope of every WebSocket message in both directions
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outboundFrame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

func encodeFrame(event string, payload interface{}) ([]byte, error) {
	return json.Marshal(outboundFrame{Event: event, Data: payload})
}

// UserRoom names the personal room of a user
func UserRoom(userID string) string {
	return "user_" + userID
}

// ConversationRoom names the room of a conversation
func ConversationRoom(conversationID string) string {
	return "conversation_" + conversationID
}

type JoinUserPayload struct {
	UserID string `json:"user_id"`
}

type JoinConversationPayload struct {
	ConversationID string `json:"conversation_id"`
}

// SendMessagePayload mirrors the HTTP send body. SenderID is optional and,
// when present, must match the connection's user.
type SendMessagePayload struct {
	SenderID   string             `json:"sender_id,omitempty"`
	ReceiverID string             `json:"receiver_id"`
	Content    string             `json:"content"`
	ProductID  string             `json:"product_id,omitempty"`
	Type       models.MessageType `json:"type,omitempty"`
}

type MarkReadPayload struct {
	MessageID string `json:"message_id"`
	UserID    string `json:"user_id,omitempty"`
}

type TypingPayload struct {
	ConversationID string `json:"conversation_id"`
}

// NotificationPayload is pushed to the receiver's personal room
type NotificationPayload struct {
	Message     *models.Message `json:"message"`
	UnreadCount int64           `json:"unread_count"`
}

// ReadReceiptPayload is pushed to the original sender
type ReadReceiptPayload struct {
	MessageID      string    `json:"message_id"`
	ReadAt         time.Time `json:"read_at"`
	ConversationID string    `json:"conversation_id"`
}

type UserTypingPayload struct {
	UserID         string `json:"user_id"`
	ConversationID string `json:"conversation_id"`
	IsTyping       bool   `json:"is_typing"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
