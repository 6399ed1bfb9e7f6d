package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"timeline.metlink.nz/internal/app"
	"timeline.metlink.nz/internal/catalog"
	"timeline.metlink.nz/internal/config"
	"timeline.metlink.nz/internal/logging"
	"timeline.metlink.nz/internal/metlink"
	"timeline.metlink.nz/internal/restapi"
	"timeline.metlink.nz/internal/timeline"
)

func main() {
	var cfg app.Config
	var apiKeysFlag string

	flag.IntVar(&cfg.Port, "port", 4000, "API server port")
	flag.StringVar(&cfg.Env, "env", "development", "Environment (development|staging|production)")
	flag.StringVar(&apiKeysFlag, "api-keys", "test", "Comma Separated API Keys (test, etc)")
	flag.Parse()

	if apiKeysFlag != "" {
		cfg.ApiKeys = strings.Split(apiKeysFlag, ",")
		for i := range cfg.ApiKeys {
			cfg.ApiKeys[i] = strings.TrimSpace(cfg.ApiKeys[i])
		}
	}

	logger := logging.NewStructuredLogger(os.Stdout, slog.LevelInfo)
	slog.SetDefault(logger)

	tlCfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	client := metlink.NewClient(tlCfg.BaseURL, tlCfg.APIKey, tlCfg.RequestTimeout, logger)
	cat := catalog.New(client, tlCfg.CatalogTTL, logger)
	predictions := timeline.NewPredictionFetcher(client, tlCfg.Concurrency, logger)
	tripUpdates := timeline.NewTripUpdateFetcher(client, logger)
	builder := timeline.NewBuilder(cat, predictions, tripUpdates, logger)

	ctx := logging.WithLogger(context.Background(), logger)
	if !client.ValidateKey(ctx) {
		logger.Warn("Metlink API key validation failed, upstream calls may be rejected")
	}

	coordinators := make(map[int]*timeline.Coordinator, len(tlCfg.Directions))
	for _, direction := range tlCfg.Directions {
		target := timeline.Target{
			RouteID:        tlCfg.RouteID,
			RouteShortName: tlCfg.RouteShortName,
			DirectionID:    direction,
		}
		coord := timeline.NewCoordinator(builder, target, tlCfg.DirectionLabel(direction),
			tlCfg.ScanInterval, tlCfg.ScanInterval, logger)
		coord.Start(ctx)
		coordinators[direction] = coord
	}

	application := &app.Application{
		Config:       cfg,
		Timeline:     tlCfg,
		Logger:       logger,
		Client:       client,
		Coordinators: coordinators,
	}
	api := restapi.NewRestAPI(application)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	shutdownError := make(chan error)
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit
		logger.Info("shutting down", "signal", s.String())

		application.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		shutdownError <- srv.Shutdown(shutdownCtx)
	}()

	logger.Info("starting server",
		"addr", srv.Addr,
		"env", cfg.Env,
		"route_id", tlCfg.RouteID,
		"directions", tlCfg.Directions)

	err = srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		logger.Error(err.Error())
		os.Exit(1)
	}
	if err := <-shutdownError; err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	logger.Info("server stopped")
}
