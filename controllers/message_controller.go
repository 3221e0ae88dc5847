package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rentyatra/rentyatra-api/metrics"
	"github.com/rentyatra/rentyatra-api/models"
	"github.com/rentyatra/rentyatra-api/services"
)

// SendMessageRequest represents the request body for sending a message
type SendMessageRequest struct {
	ReceiverID string             `json:"receiver_id" binding:"required"`
	Content    string             `json:"content" binding:"required"`
	ProductID  string             `json:"product_id"`
	Type       models.MessageType `json:"type"`
}

// PageQuery holds the optional page and limit query parameters
type PageQuery struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1"`
}

// SearchQuery holds the search query parameter
type SearchQuery struct {
	Query string `form:"query"`
}

// MessageController serves the messaging API
type MessageController struct {
	messenger *services.Messenger
}

// NewMessageController creates a message controller
func NewMessageController(messenger *services.Messenger) *MessageController {
	return &MessageController{messenger: messenger}
}

// ListConversations handles GET /api/v1/messages/conversations/:userId
func (mc *MessageController) ListConversations(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var q PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondValidationError(c, err)
		return
	}

	result, err := mc.messenger.Conversations(c.Request.Context(), user.ID, c.Param("userId"), q.Page, q.Limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, result)
}

// GetConversation handles GET /api/v1/messages/conversation/:userIdA/:userIdB.
// Opening a conversation marks the caller's unread messages in it as read.
func (mc *MessageController) GetConversation(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var q PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondValidationError(c, err)
		return
	}

	view, err := mc.messenger.OpenConversation(c.Request.Context(), user.ID, c.Param("userIdA"), c.Param("userIdB"), q.Page, q.Limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, view)
}

// SendMessage handles POST /api/v1/messages/send
func (mc *MessageController) SendMessage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	msg, err := mc.messenger.Send(c.Request.Context(), user.ID, services.SendInput{
		ReceiverID: req.ReceiverID,
		Content:    req.Content,
		ProductID:  req.ProductID,
		Type:       req.Type,
	}, metrics.TransportHTTP)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, msg)
}

// MarkAsRead handles PATCH /api/v1/messages/:messageId/read
func (mc *MessageController) MarkAsRead(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	msg, err := mc.messenger.MarkRead(c.Request.Context(), user.ID, c.Param("messageId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, msg)
}

// UnreadCount handles GET /api/v1/messages/unread-count
func (mc *MessageController) UnreadCount(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	count, err := mc.messenger.UnreadCount(c.Request.Context(), user.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"unread_count": count})
}

// Search handles GET /api/v1/messages/search?query=
func (mc *MessageController) Search(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var q SearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondValidationError(c, err)
		return
	}

	results, err := mc.messenger.Search(c.Request.Context(), user.ID, q.Query)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, results)
}
