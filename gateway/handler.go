package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rentyatra/rentyatra-api/metrics"
	"github.com/rentyatra/rentyatra-api/models"
	"github.com/rentyatra/rentyatra-api/services"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// Authenticator verifies the credentials of an upgrade request and returns
// the Auth0 subject they belong to
type Authenticator func(r *http.Request) (string, error)

var errEmptyPayload = errors.New("missing event data")

// Handler upgrades authenticated requests and routes inbound events to the
// messenger
type Handler struct {
	hub          *Hub
	messenger    *services.Messenger
	users        services.IdentityDirectory
	authenticate Authenticator
	opts         Options
	upgrader     websocket.Upgrader
	log          zerolog.Logger
}

// NewHandler creates the WebSocket endpoint handler
func NewHandler(hub *Hub, messenger *services.Messenger, users services.IdentityDirectory, authenticate Authenticator, opts Options, log zerolog.Logger) *Handler {
	h := &Handler{
		hub:          hub,
		messenger:    messenger,
		users:        users,
		authenticate: authenticate,
		opts:         opts,
		log:          log.With().Str("component", "gateway").Logger(),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.opts.AllowedOrigins) == 0 || lo.Contains(h.opts.AllowedOrigins, "*") {
		return true
	}
	return lo.Contains(h.opts.AllowedOrigins, origin)
}

// ServeWS handles GET /ws
func (h *Handler) ServeWS(c *gin.Context) {
	subject, err := h.authenticate(c.Request)
	if err != nil {
		h.log.Debug().Err(err).Msg("rejecting websocket connection")
		abortWithError(c, http.StatusUnauthorized, "INVALID_TOKEN", "Failed to validate JWT.")
		return
	}

	user, err := h.users.FindByAuth0ID(c.Request.Context(), subject)
	if err != nil {
		if services.IsKind(err, services.KindNotFound) {
			abortWithError(c, http.StatusNotFound, "USER_NOT_FOUND", "User profile not found")
			return
		}
		h.log.Error().Err(err).Msg("failed to resolve websocket user")
		abortWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to resolve user")
		return
	}
	if !user.CanInteract() {
		abortWithError(c, http.StatusForbidden, "ACCOUNT_BLOCKED", "Your account is blocked or inactive")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := newClient(h.hub, conn, user, h.opts, h.log)
	if err := h.hub.register(client); err != nil {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		conn.Close()
		return
	}
	client.log.Debug().Msg("websocket client connected")

	go client.writePump()
	go client.readPump(h.dispatch)
}

func (h *Handler) dispatch(ctx context.Context, c *Client, frame Frame) {
	switch frame.Event {
	case EventJoinUser:
		var p JoinUserPayload
		if !h.decode(c, frame, &p) {
			return
		}
		if p.UserID != c.UserID() {
			h.reject(c, "FORBIDDEN", "You can only join your own room")
			return
		}
		h.hub.Join(c, UserRoom(p.UserID))

	case EventJoinConversation:
		var p JoinConversationPayload
		if !h.decode(c, frame, &p) {
			return
		}
		if !models.HasParticipant(p.ConversationID, c.UserID()) {
			h.reject(c, "FORBIDDEN", "You are not a participant of this conversation")
			return
		}
		h.hub.Join(c, ConversationRoom(p.ConversationID))

	case EventSendMessage:
		var p SendMessagePayload
		if !h.decode(c, frame, &p) {
			return
		}
		if p.SenderID != "" && p.SenderID != c.UserID() {
			h.reject(c, "FORBIDDEN", "Sender does not match the authenticated user")
			return
		}
		_, err := h.messenger.Send(ctx, c.UserID(), services.SendInput{
			ReceiverID: p.ReceiverID,
			Content:    p.Content,
			ProductID:  p.ProductID,
			Type:       p.Type,
		}, metrics.TransportSocket)
		if err != nil {
			h.fail(c, err)
		}

	case EventMarkMessageRead:
		var p MarkReadPayload
		if !h.decode(c, frame, &p) {
			return
		}
		if p.UserID != "" && p.UserID != c.UserID() {
			h.reject(c, "FORBIDDEN", "User does not match the authenticated user")
			return
		}
		if _, err := h.messenger.MarkRead(ctx, c.UserID(), p.MessageID); err != nil {
			h.fail(c, err)
		}

	case EventTypingStart, EventTypingStop:
		var p TypingPayload
		if !h.decode(c, frame, &p) {
			return
		}
		if !models.HasParticipant(p.ConversationID, c.UserID()) {
			h.reject(c, "FORBIDDEN", "You are not a participant of this conversation")
			return
		}
		h.hub.Emit(ConversationRoom(p.ConversationID), EventUserTyping, UserTypingPayload{
			UserID:         c.UserID(),
			ConversationID: p.ConversationID,
			IsTyping:       frame.Event == EventTypingStart,
		}, c)

	default:
		h.reject(c, "UNKNOWN_EVENT", "Unknown event: "+frame.Event)
	}
}

func (h *Handler) decode(c *Client, frame Frame, v interface{}) bool {
	err := errEmptyPayload
	if len(frame.Data) > 0 {
		err = json.Unmarshal(frame.Data, v)
	}
	if err != nil {
		c.log.Debug().Err(err).Str("event", frame.Event).Msg("invalid event payload")
		h.reject(c, "VALIDATION_ERROR", "Invalid payload for "+frame.Event)
		return false
	}
	return true
}

func (h *Handler) reject(c *Client, code, message string) {
	h.hub.sendTo(c, EventMessageError, ErrorPayload{Code: code, Message: message})
}

// fail reports a service error to the originating connection only
func (h *Handler) fail(c *Client, err error) {
	svcErr := services.AsError(err)
	if svcErr.Kind == services.KindInternal {
		c.log.Error().Err(err).Msg("websocket operation failed")
	}
	h.reject(c, svcErr.Code, svcErr.Message)
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}
