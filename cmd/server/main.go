// backend-go/cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/inventory-tracker/backend-go/internal/api"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/bootstrap"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/cache"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/config"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/forecast"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/metrics"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/reconcile"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/service"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/summarizer"
	"github.com/andresuchdata/inventory-tracker/backend-go/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.Configure(cfg.Server.Mode, cfg.LogLevel)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	store, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to open item store")
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			logger.Log.Warn().Err(err).Msg("Failed to close item store")
		}
	}()

	seeded, err := store.Items.SeedIfEmpty(ctx, domain.ReferenceItems())
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to seed item store")
	}
	if seeded {
		logger.Log.Info().Int("items", len(domain.ReferenceItems())).Msg("Seeded empty item store")
	}

	m := metrics.New()

	dashboardCache, err := cache.NewDashboardCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Dashboard cache unavailable, continuing without it")
		dashboardCache = cache.NewNoopDashboardCache()
	}
	forecastCache, err := cache.NewForecastCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Forecast cache unavailable, continuing without it")
		forecastCache = cache.NewNoopForecastCache()
	}

	historyStart, err := bootstrap.ParseHistoryStart(cfg.Forecast.HistoryStart)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Invalid forecast configuration")
	}
	history := forecast.NewSyntheticHistory(historyStart, cfg.Forecast.HistoryMonths, cfg.Forecast.Seed)

	// Initialize services
	inventoryService := service.NewInventoryService(store.Items, reconcile.NewEngine(store.Items, m), dashboardCache, forecastCache)
	forecastService := service.NewForecastService(
		store.Items,
		history,
		forecast.NewEngine(cfg.Forecast.Horizon),
		summarizer.New(cfg.Summarizer, m),
		forecastCache,
		m,
	)

	// Initialize HTTP server
	router := api.NewRouter(&api.Services{
		InventoryService: inventoryService,
		ForecastService:  forecastService,
		Metrics:          m,
		Health:           store.Health,
	}, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Str("store", cfg.Store.Driver).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
