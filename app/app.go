// Package app wires configuration, storage, the messaging core and the
// WebSocket gateway into a runnable server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rentyatra/rentyatra-api/config"
	"github.com/rentyatra/rentyatra-api/controllers"
	"github.com/rentyatra/rentyatra-api/gateway"
	"github.com/rentyatra/rentyatra-api/middleware"
	"github.com/rentyatra/rentyatra-api/models"
	"github.com/rentyatra/rentyatra-api/routes"
	"github.com/rentyatra/rentyatra-api/services"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// Options overrides collaborators that are normally built from config.
// Zero values mean "build from config".
type Options struct {
	HTTPAuth   gin.HandlerFunc
	SocketAuth gateway.Authenticator
	Storage    services.S3Interface
	UserInfo   services.UserInfoProvider
}

// App is a fully wired server
type App struct {
	Router    *gin.Engine
	Hub       *gateway.Hub
	Messenger *services.Messenger

	cfg *config.Config
	log zerolog.Logger
}

// Migrate creates or updates the tables the API needs
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Product{}, &models.Message{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// New builds the application around an open database
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger, db *gorm.DB, opts Options) (*App, error) {
	if opts.HTTPAuth == nil || opts.SocketAuth == nil {
		jwtValidator, err := middleware.NewTokenValidator(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to set up token validation: %w", err)
		}
		if opts.HTTPAuth == nil {
			opts.HTTPAuth = middleware.EnsureValidToken(jwtValidator, log)
		}
		if opts.SocketAuth == nil {
			opts.SocketAuth = middleware.SocketAuthenticator(jwtValidator)
		}
	}

	if opts.Storage == nil {
		if cfg.S3Enabled() {
			s3Service, err := services.NewS3Service(ctx, cfg, log)
			if err != nil {
				return nil, err
			}
			opts.Storage = s3Service
		} else {
			log.Warn().Msg("AWS credentials not configured, product images are kept in memory")
			opts.Storage = services.NewMockS3Service()
		}
	}

	if opts.UserInfo == nil {
		opts.UserInfo = services.NewAuth0Service(cfg.Auth0Domain)
	}

	images := services.NewImageService(opts.Storage)
	users := services.NewIdentityDirectory(db)
	listings := services.NewListingDirectory(db, images)
	store := services.NewMessageStore(db, users, listings)

	hub := gateway.NewHub(log)
	messenger := services.NewMessenger(store, users, hub, log, cfg.MaxPageSize)

	socket := gateway.NewHandler(hub, messenger, users, opts.SocketAuth, gatewayOptions(cfg), log)

	router := routes.NewRouter(routes.Dependencies{
		Log:            log,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Authenticate:   opts.HTTPAuth,
		Directory:      users,
		Health:         controllers.NewHealthController(db, hub),
		Users:          controllers.NewUserController(db, users, opts.UserInfo),
		Messages:       controllers.NewMessageController(messenger),
		Products:       controllers.NewProductController(db, images),
		Socket:         socket.ServeWS,
	})

	return &App{
		Router:    router,
		Hub:       hub,
		Messenger: messenger,
		cfg:       cfg,
		log:       log,
	}, nil
}

func gatewayOptions(cfg *config.Config) gateway.Options {
	opts := gateway.DefaultOptions()
	if cfg.WSWriteTimeout > 0 {
		opts.WriteTimeout = cfg.WSWriteTimeout
	}
	if cfg.WSPongTimeout > 0 {
		opts.PongTimeout = cfg.WSPongTimeout
	}
	if cfg.WSSendBuffer > 0 {
		opts.SendBuffer = cfg.WSSendBuffer
	}
	if cfg.WSMaxMessageBytes > 0 {
		opts.MaxMessageBytes = cfg.WSMaxMessageBytes
	}
	if len(cfg.CORSAllowedOrigins) > 0 {
		opts.AllowedOrigins = cfg.CORSAllowedOrigins
	}
	return opts
}

// Serve listens on addr until ctx is cancelled, then closes every socket and
// drains in-flight requests
func (a *App) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", addr).Msg("Server is running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info().Msg("Shutting down")
	// Hijacked websocket connections are not tracked by Shutdown
	a.Hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
