package services

import "github.com/rentyatra/rentyatra-api/models"

// Notifier pushes messaging events to connected clients. Implementations are
// best-effort and must not block on slow receivers.
type Notifier interface {
	// MessageCreated fans a new message out to its conversation room
	MessageCreated(msg *models.Message)
	// MessageNotification alerts the receiver's personal room
	MessageNotification(msg *models.Message, unreadCount int64)
	// MessageRead sends a read receipt to the original sender
	MessageRead(msg *models.Message)
}

// NoopNotifier discards every event
type NoopNotifier struct{}

func (NoopNotifier) MessageCreated(*models.Message)             {}
func (NoopNotifier) MessageNotification(*models.Message, int64) {}
func (NoopNotifier) MessageRead(*models.Message)                {}
