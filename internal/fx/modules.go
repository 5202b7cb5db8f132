package fx

import (
	"runner-progression/internal/config"
	"runner-progression/internal/database"
	"runner-progression/internal/logger"
	"runner-progression/internal/notify"
	"runner-progression/internal/repository"
	"runner-progression/internal/server"
	"runner-progression/internal/service"

	"go.uber.org/fx"
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Provide(database.New),
	fx.Provide(notify.NewBus),
	// repos
	fx.Provide(repository.NewLedgerRepository),
	fx.Provide(repository.NewGrantRepository),
	fx.Provide(repository.NewCollectionRepository),
	fx.Provide(repository.NewDeckRepository),
	fx.Provide(repository.NewRankRepository),
	fx.Provide(repository.NewSeasonRepository),
	// svc
	fx.Provide(service.NewPlayerGuard),
	fx.Provide(service.NewLedgerService),
	fx.Provide(service.NewCollectionService),
	fx.Provide(service.NewUpgradeService),
	fx.Provide(service.NewDeckService),
	fx.Provide(service.NewRankService),
	fx.Provide(service.NewSeasonService),
	// server
	fx.Provide(server.NewProgressionServer),
)
