package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"bf6-tracker/internal/config"
	"bf6-tracker/internal/constants"
	fxmodules "bf6-tracker/internal/fx"
	"bf6-tracker/internal/metrics"
	"bf6-tracker/internal/middleware"
	"bf6-tracker/internal/server"
	"bf6-tracker/internal/stealth"

	"github.com/rs/cors"
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
	trackerServer *server.TrackerServer,
	browser *stealth.Client,
	m *metrics.Metrics,
	cfg *config.Config,
	db *sql.DB,
	logger zerolog.Logger,
) {
	mux := http.NewServeMux()

	path, handler := trackerServer.Handler()

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
	})

	requestIDMiddleware := middleware.RequestID(logger)
	instrument := middleware.Instrument(m, server.ServicePath, "/healthz", "/admin/")

	mux.Handle(path, requestIDMiddleware(c.Handler(handler)))

	var health http.Handler = server.HealthHandler(db, nil)
	if cfg.FetchMode == config.FetchModeBrowser {
		health = server.HealthHandler(db, browser)
		mux.Handle("/admin/browser/reset", requestIDMiddleware(server.BrowserResetHandler(browser)))
	}
	mux.Handle("/healthz", health)
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: instrument(mux),
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info().Str("addr", srv.Addr).Str("fetch_mode", cfg.FetchMode).Msg("server starting")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("server shutdown failed")
				return err
			}

			browserCtx, browserCancel := context.WithTimeout(context.Background(), constants.BrowserCloseTimeout)
			defer browserCancel()
			if err := browser.Close(browserCtx); err != nil {
				logger.Warn().Err(err).Msg("error closing browser")
			}

			if err := db.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing database connection")
			}

			logger.Info().Msg("server stopped gracefully")
			return nil
		},
	})
}
