package main

import (
	"context"
	"database/sql"
	"os"

	"bf6-tracker/internal/api"
	"bf6-tracker/internal/config"
	"bf6-tracker/internal/constants"
	"bf6-tracker/internal/database"
	"bf6-tracker/internal/db"
	"bf6-tracker/internal/repository"
	"bf6-tracker/internal/service"
	"bf6-tracker/internal/stealth"

	"github.com/rs/zerolog"
)

// app is the server's dependency graph built by hand for a single command.
type app struct {
	db       *sql.DB
	browser  *stealth.Client
	players  *repository.PlayerRepository
	overview *service.OverviewService
	history  *service.StatHistoryService
	logger   zerolog.Logger
}

func newApp() (*app, error) {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	cfg, err := config.Load(logger)
	if err != nil {
		return nil, err
	}
	if direct {
		cfg.FetchMode = config.FetchModeDirect
	}

	sqlDB, err := database.Open(cfg.DBPath, logger)
	if err != nil {
		return nil, err
	}

	browser := stealth.New(cfg, nil, logger)
	var fetcher api.Fetcher = browser
	if cfg.FetchMode == config.FetchModeDirect {
		fetcher = api.NewDirectFetcher(logger)
	}

	q := db.New(sqlDB)
	tracker := api.NewTrackerClient(cfg, fetcher, nil, logger)
	players := repository.NewPlayerRepository(sqlDB, q, logger)
	totals := repository.NewTotalsRepository(sqlDB, q, logger)
	history := repository.NewStatHistoryRepository(sqlDB, q, logger)

	return &app{
		db:       sqlDB,
		browser:  browser,
		players:  players,
		overview: service.NewOverviewService(cfg, tracker, players, totals, nil, logger),
		history:  service.NewStatHistoryService(tracker, players, history, totals, logger),
		logger:   logger,
	}, nil
}

func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), constants.BrowserCloseTimeout)
	defer cancel()
	if err := a.browser.Close(ctx); err != nil {
		a.logger.Warn().Err(err).Msg("error closing browser")
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("error closing database connection")
	}
}
