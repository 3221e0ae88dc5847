// Package routes assembles the gin engine.
package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rentyatra/rentyatra-api/controllers"
	"github.com/rentyatra/rentyatra-api/logger"
	"github.com/rentyatra/rentyatra-api/metrics"
	"github.com/rentyatra/rentyatra-api/middleware"
	"github.com/rentyatra/rentyatra-api/services"
	"github.com/rs/zerolog"
)

// ServiceName is reported to the tracer
const ServiceName = "rentyatra-api"

// Dependencies holds everything the router wires into handlers
type Dependencies struct {
	Log            zerolog.Logger
	AllowedOrigins []string

	// Authenticate validates the bearer token and sets middleware.UserIDKey
	Authenticate gin.HandlerFunc
	Directory    services.IdentityDirectory

	Health   *controllers.HealthController
	Users    *controllers.UserController
	Messages *controllers.MessageController
	Products *controllers.ProductController

	// Socket upgrades GET /ws. The handshake authenticates on its own.
	Socket gin.HandlerFunc
}

// NewRouter builds the engine with middleware and every route registered
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		logger.RequestLogger(deps.Log),
		middleware.Tracing(ServiceName),
		metrics.Middleware(),
		cors.New(corsConfig(deps.AllowedOrigins)),
	)

	router.GET("/metrics", metrics.Handler())
	if deps.Socket != nil {
		router.GET("/ws", deps.Socket)
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", deps.Health.Health)
		v1.GET("/database/status", deps.Health.DatabaseStatus)
	}

	authed := v1.Group("", deps.Authenticate)
	authed.POST("/users", deps.Users.CreateUser)

	// Everything below needs a registered, unblocked account
	registered := authed.Group("", middleware.RequireUser(deps.Directory))
	{
		registered.GET("/users/me", deps.Users.GetMyProfile)
		registered.PUT("/users/me", deps.Users.UpdateMyProfile)
		registered.GET("/users/:id", deps.Users.GetUser)

		registered.POST("/products", deps.Products.CreateProduct)
		registered.GET("/products/:id", deps.Products.GetProduct)

		messages := registered.Group("/messages")
		messages.GET("/conversations/:userId", deps.Messages.ListConversations)
		messages.GET("/conversation/:userIdA/:userIdB", deps.Messages.GetConversation)
		messages.POST("/send", deps.Messages.SendMessage)
		messages.PATCH("/:messageId/read", deps.Messages.MarkAsRead)
		messages.GET("/unread-count", deps.Messages.UnreadCount)
		messages.GET("/search", deps.Messages.Search)
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
