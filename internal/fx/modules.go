package fx

import (
	"duel-tracker/internal/config"
	"duel-tracker/internal/database"
	"duel-tracker/internal/logger"
	"duel-tracker/internal/repository"
	"duel-tracker/internal/server"
	"duel-tracker/internal/service"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewMatchRepository),
	fx.Provide(repository.NewDeckTemplateRepository),
	// svc
	fx.Provide(service.NewMatchService),
	fx.Provide(service.NewStatsService),
	// server
	fx.Provide(server.New),
)
