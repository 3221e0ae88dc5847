package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MessageType tags the payload carried by a message
type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeFile  MessageType = "file"
)

// Valid reports whether t is a known message type
func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeFile:
		return true
	}
	return false
}

// Message is a direct message between two users, optionally about a listing
type Message struct {
	ID             string      `gorm:"type:varchar(36);primaryKey" json:"id"`
	ConversationID string      `gorm:"type:varchar(80);not null;index:idx_messages_conversation_created,priority:1" json:"conversation_id"`
	SenderID       string      `gorm:"type:varchar(36);not null;index" json:"sender_id"`
	ReceiverID     string      `gorm:"type:varchar(36);not null;index:idx_messages_receiver_read,priority:1" json:"receiver_id"`
	Content        string      `gorm:"type:text;not null" json:"content"`
	Type           MessageType `gorm:"type:varchar(16);not null;default:'text'" json:"type"`
	ProductID      *string     `gorm:"type:varchar(36);index" json:"product_id,omitempty"`
	IsRead         bool        `gorm:"not null;default:false;index:idx_messages_receiver_read,priority:2" json:"is_read"`
	ReadAt         *time.Time  `json:"read_at,omitempty"`
	CreatedAt      time.Time   `gorm:"index:idx_messages_conversation_created,priority:2" json:"created_at"`

	// Display forms resolved through the directories, never persisted
	Sender   *UserProfile    `gorm:"-" json:"sender,omitempty"`
	Receiver *UserProfile    `gorm:"-" json:"receiver,omitempty"`
	Product  *ListingSummary `gorm:"-" json:"product,omitempty"`
}

// TableName specifies the table name for the Message model
func (Message) TableName() string {
	return "messages"
}

// BeforeCreate assigns the id and always re-derives the conversation id from
// the participants so callers cannot file a message under a foreign conversation.
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Type == "" {
		m.Type = MessageTypeText
	}
	m.ConversationID = ConversationID(m.SenderID, m.ReceiverID)
	return nil
}

// CounterpartOf returns the participant that is not userID
func (m *Message) CounterpartOf(userID string) string {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}
