package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rentyatra/rentyatra-api/app"
	"github.com/rentyatra/rentyatra-api/config"
	"github.com/rentyatra/rentyatra-api/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "rentyatra-api",
		Short:        "RentYatra marketplace API",
		Long:         "RentYatra API serves the rental marketplace REST endpoints and the real-time messaging gateway.",
		SilenceUsage: true,
	}

	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	return root
}

func serveCmd() *cobra.Command {
	var (
		port        string
		skipMigrate bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and WebSocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, db, err := bootstrap()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}

			if !skipMigrate {
				if err := app.Migrate(db); err != nil {
					return err
				}
				log.Info().Msg("Database migration completed successfully")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			server, err := app.New(ctx, cfg, log, db, app.Options{})
			if err != nil {
				return err
			}
			return server.Serve(ctx, ":"+cfg.Port)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "port to listen on (overrides PORT)")
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not run migrations before serving")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, db, err := bootstrap()
			if err != nil {
				return err
			}
			if err := app.Migrate(db); err != nil {
				return err
			}
			log.Info().Msg("Database migration completed successfully")
			return nil
		},
	}
}

func bootstrap() (*config.Config, zerolog.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.New(cfg.LogLevel, cfg.IsDevelopment())
	log.Info().Str("env", cfg.GoEnv).Msg("Starting RentYatra API server...")

	db, err := config.ConnectDatabase(cfg.DatabaseURL, log)
	if err != nil {
		return nil, log, nil, err
	}
	return cfg, log, db, nil
}
