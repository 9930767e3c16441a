package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fleet-pricer/internal/api"
	"fleet-pricer/internal/api/handlers"
	"fleet-pricer/internal/policy"
	"fleet-pricer/internal/repository"
	"fleet-pricer/internal/service"
	"fleet-pricer/pkg/auth"
	"fleet-pricer/pkg/cache"
	"fleet-pricer/pkg/config"
	"fleet-pricer/pkg/logger"
	"fleet-pricer/pkg/postgres"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// @title Fleet Pricer API
// @version 1.0
// @description Demand forecasting and dynamic pricing recommendations for rental fleets

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting fleet-pricer service")

	// Pricing policy: fall back to the neutral defaults when no file exists.
	pol, err := policy.Load(cfg.Pricing.PolicyPath)
	if err != nil {
		appLogger.Warn("Pricing policy not loaded, using defaults",
			zap.String("path", cfg.Pricing.PolicyPath), zap.Error(err))
		pol = policy.Default()
	}

	// Initialize database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Competitor snapshot cache: redis when configured, in-process otherwise.
	var cacheStore cache.Store
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			appLogger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		cacheStore = cache.NewRedisStore(client, "fleet-pricer:")
		appLogger.Info("Using redis signal cache", zap.String("addr", cfg.Redis.Addr))
	} else {
		cacheStore = cache.NewMemoryStore()
	}

	// Initialize repositories
	feedRepo := repository.NewRentalFeedRepository(db, appLogger)
	obsRepo := repository.NewObservationRepository(db, appLogger)
	sourceRepo := repository.NewSignalSourceRepository(db, appLogger)
	forecastRepo := repository.NewForecastRepository(db, appLogger)
	metricRepo := repository.NewMetricRepository(db, appLogger)
	configRepo := repository.NewConfigRepository(db, appLogger)
	recRepo := repository.NewRecommendationRepository(db, appLogger)

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey)

	// Initialize services
	calendarProvider := service.NewSnapshotCalendarProvider(sourceRepo)
	signalService := service.NewSignalService(
		service.NewSnapshotCompetitorProvider(sourceRepo),
		service.NewSnapshotWeatherProvider(sourceRepo),
		calendarProvider,
		cacheStore,
		cfg.Pricing.CompetitorTTL,
		cfg.Pricing.ProviderTimeout,
		appLogger,
	)
	featureService := service.NewFeatureService(
		feedRepo, obsRepo, sourceRepo, calendarProvider,
		pol, cfg.Pricing.FeatureStaleness, appLogger,
	)
	forecastService := service.NewForecastService(
		obsRepo, forecastRepo, metricRepo,
		pol, cfg.Pricing.TrainWorkers, appLogger,
	)
	pricingService := service.NewPricingService(
		featureService, forecastService, signalService,
		obsRepo, forecastRepo, metricRepo, configRepo, recRepo,
		pol, appLogger,
	)

	// Initialize handlers
	pricingHandler := handlers.NewPricingHandler(pricingService, appLogger)
	modelHandler := handlers.NewModelHandler(pricingService, appLogger)

	// Setup router
	app := api.SetupRouter(pricingHandler, modelHandler, jwtManager, appLogger)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
