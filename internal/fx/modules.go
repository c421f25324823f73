package fx

import (
	"database/sql"

	"bf6-tracker/internal/api"
	"bf6-tracker/internal/config"
	"bf6-tracker/internal/database"
	"bf6-tracker/internal/db"
	"bf6-tracker/internal/logger"
	"bf6-tracker/internal/metrics"
	"bf6-tracker/internal/repository"
	"bf6-tracker/internal/server"
	"bf6-tracker/internal/service"
	"bf6-tracker/internal/stealth"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideQueries(sqlDB *sql.DB) *db.Queries {
	return db.New(sqlDB)
}

// ProvideFetcher picks the transport for upstream calls. The browser client
// is always constructed but only launches Chrome on first use.
func ProvideFetcher(cfg *config.Config, browser *stealth.Client, logger zerolog.Logger) api.Fetcher {
	if cfg.FetchMode == config.FetchModeDirect {
		logger.Info().Msg("using direct HTTP fetcher")
		return api.NewDirectFetcher(logger)
	}
	logger.Info().Msg("using headless browser fetcher")
	return browser
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Provide(metrics.New),
	fx.Provide(database.New),
	fx.Provide(ProvideQueries),
	// repos
	fx.Provide(repository.NewPlayerRepository),
	fx.Provide(repository.NewTotalsRepository),
	fx.Provide(repository.NewStatHistoryRepository),
	// upstream
	fx.Provide(stealth.New),
	fx.Provide(ProvideFetcher),
	fx.Provide(api.NewTrackerClient),
	// svc
	fx.Provide(service.NewOverviewService),
	fx.Provide(service.NewStatHistoryService),
	// server
	fx.Provide(server.NewTrackerServer),
)
