// Package metrics provides Prometheus metrics for the messaging core.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Transports a message can arrive through
const (
	TransportHTTP   = "http"
	TransportSocket = "socket"
)

var (
	// MessagesSent counts persisted messages by entry point.
	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentyatra_messages_sent_total",
			Help: "Total number of messages persisted",
		},
		[]string{"transport"},
	)

	// MessagesRead counts read-state transitions.
	MessagesRead = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rentyatra_messages_read_total",
			Help: "Total number of messages transitioned to read",
		},
	)

	// GatewayConnections tracks currently open WebSocket connections.
	GatewayConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rentyatra_gateway_connections",
			Help: "Number of open WebSocket connections",
		},
	)

	// GatewayEvents counts emitted events by name.
	GatewayEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentyatra_gateway_events_total",
			Help: "Total number of events queued for delivery",
		},
		[]string{"event"},
	)

	// GatewayDropped counts events dropped because a connection buffer was full.
	GatewayDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentyatra_gateway_dropped_total",
			Help: "Total number of events dropped on slow connections",
		},
		[]string{"event"},
	)

	// HTTPRequestDuration tracks handler latency by route and status.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rentyatra_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// RecordMessageSent increments the sent counter for a transport.
func RecordMessageSent(transport string) {
	MessagesSent.WithLabelValues(transport).Inc()
}

// RecordMessagesRead adds n read transitions.
func RecordMessagesRead(n int) {
	if n > 0 {
		MessagesRead.Add(float64(n))
	}
}

// Middleware observes request latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the default registry for scraping.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
