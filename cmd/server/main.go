package main

import (
	"context"
	"database/sql"
	"fmt"

	"duel-tracker/internal/config"
	"duel-tracker/internal/constants"
	fxmodules "duel-tracker/internal/fx"
	"duel-tracker/internal/middleware"
	"duel-tracker/internal/server"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fxmodules.Module,
		fx.Invoke(runServer),
	).Run()
}

func runServer(
	lc fx.Lifecycle,
	srv *server.Server,
	cfg *config.Config,
	db *sql.DB,
	logger zerolog.Logger,
) {
	app := fiber.New(fiber.Config{
		AppName: "duel-tracker API",
	})

	app.Use(middleware.RequestID(logger))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, X-Request-ID",
	}))

	srv.RegisterRoutes(app)

	addr := fmt.Sprintf(":%s", cfg.ServerPort)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info().Str("addr", addr).Msg("server starting")
				if err := app.Listen(addr); err != nil {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down server")

			if err := app.ShutdownWithTimeout(constants.ShutdownTimeout); err != nil {
				logger.Error().Err(err).Msg("server shutdown failed")
				return err
			}

			if err := db.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing database connection")
			}

			logger.Info().Msg("server stopped gracefully")
			return nil
		},
	})
}
