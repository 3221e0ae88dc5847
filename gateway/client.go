package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rentyatra/rentyatra-api/models"
	"github.com/rs/zerolog"
)

// Options tunes per-connection behavior
type Options struct {
	WriteTimeout    time.Duration
	PongTimeout     time.Duration
	SendBuffer      int
	MaxMessageBytes int64
	AllowedOrigins  []string
}

// DefaultOptions returns the settings used when nothing is configured
func DefaultOptions() Options {
	return Options{
		WriteTimeout:    10 * time.Second,
		PongTimeout:     60 * time.Second,
		SendBuffer:      64,
		MaxMessageBytes: 8192,
		AllowedOrigins:  []string{"*"},
	}
}

// pings go out a little before the peer would be considered dead
func (o Options) pingPeriod() time.Duration {
	return o.PongTimeout * 9 / 10
}

// Client is one authenticated WebSocket connection
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	user *models.User
	opts Options
	log  zerolog.Logger

	send chan []byte
	// guarded by hub.mu
	rooms map[string]struct{}
}

func newClient(hub *Hub, conn *websocket.Conn, user *models.User, opts Options, log zerolog.Logger) *Client {
	return &Client{
		hub:   hub,
		conn:  conn,
		user:  user,
		opts:  opts,
		log:   log.With().Str("user_id", user.ID).Logger(),
		send:  make(chan []byte, opts.SendBuffer),
		rooms: make(map[string]struct{}),
	}
}

// UserID returns the id of the authenticated user behind the connection
func (c *Client) UserID() string {
	if c.user == nil {
		return ""
	}
	return c.user.ID
}

func (c *Client) readPump(dispatch func(context.Context, *Client, Frame)) {
	ctx, cancel := context.WithCancel(c.log.WithContext(context.Background()))
	defer func() {
		cancel()
		c.hub.unregister(c)
		c.conn.Close()
		c.log.Debug().Msg("websocket client disconnected")
	}()

	c.conn.SetReadLimit(c.opts.MaxMessageBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.opts.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.opts.PongTimeout))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn().Err(err).Msg("websocket read error")
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil || frame.Event == "" {
			c.hub.sendTo(c, EventMessageError, ErrorPayload{Code: "INVALID_FRAME", Message: "Frames must be JSON objects with an event"})
			continue
		}
		dispatch(ctx, c, frame)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.opts.pingPeriod())
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			if !ok {
				// Hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.log.Debug().Err(err).Msg("websocket write failed")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
