package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang-stock-scorer/internal/config"
	delivery "golang-stock-scorer/internal/delivery/http"
	_ "golang-stock-scorer/internal/docs"
	"golang-stock-scorer/internal/repository"
	"golang-stock-scorer/internal/service"
	"golang-stock-scorer/pkg/logger"
	"golang-stock-scorer/pkg/postgres"
	"golang-stock-scorer/pkg/redis"
	"golang-stock-scorer/pkg/telegram"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	swagger "github.com/swaggo/echo-swagger"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the stock scorer service",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Stock Scorer Service", logger.Field("name", cfg.App.Name))

	// Initialize database
	postgresCfg := postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		TimeZone:        cfg.Database.TimeZone,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	}
	db, err := postgres.NewDB(postgresCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		defer sqlDB.Close()
	}

	// Initialize Redis; the detail payload cache is optional.
	redisCfg := redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	}
	redisClient, err := redis.NewClient(redisCfg)
	if err != nil {
		appLogger.Warn("Redis unavailable, continuing without the detail cache", logger.ErrorField(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	// Initialize Telegram notifier when enabled.
	var notifier telegram.Notifier
	if cfg.Telegram.Enabled {
		notifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			appLogger.Warn("Failed to initialize Telegram notifier", logger.ErrorField(err))
			notifier = nil
		}
	}

	// Initialize repositories
	stockRepo := repository.NewStockRepository(db.DB)
	runRepo := repository.NewRefreshRunRepository(db.DB)
	listingRepo := repository.NewListingRepository(cfg, appLogger)
	var screenerRepo repository.ScreenerRepository
	if redisClient != nil {
		screenerRepo = repository.NewScreenerRepository(cfg, appLogger, redisClient.Client)
	} else {
		screenerRepo = repository.NewScreenerRepository(cfg, appLogger, nil)
	}

	// Initialize services
	refreshJob := service.NewRefreshJob(listingRepo, screenerRepo, stockRepo, runRepo, appLogger)
	coordinator := service.NewRefreshCoordinator(refreshJob, appLogger, notifier)
	stockSvc := service.NewStockService(stockRepo, coordinator, appLogger)

	scheduler := service.NewScheduler(coordinator, appLogger, cfg.Refresh.CronSchedule)
	if err := scheduler.Start(); err != nil {
		appLogger.Fatal("Failed to start refresh scheduler", logger.ErrorField(err))
	}
	defer scheduler.Stop()

	// Initialize Echo server
	e := echo.New()
	e.HideBanner = true

	// Initialize handlers and routes
	apiV1 := e.Group("/api/v1")

	stockHandler := delivery.NewStockHandler(stockSvc, appLogger)
	stockHandler.RegisterRoutes(apiV1.Group("/stocks"))

	refreshHandler := delivery.NewRefreshHandler(coordinator, runRepo, appLogger)
	refreshHandler.RegisterRoutes(apiV1.Group("/refresh"))

	e.GET("/swagger/*", swagger.WrapHandler)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.API.Port)
		appLogger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop() // trigger shutdown
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	appLogger.Info("Shutting down server...")

	// Gracefully shutdown the server
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	appLogger.Info("Server exiting")
}

// @title Stock Scorer API
// @version 1.0
// @description Fundamentals scoring service for listed equities.
// @BasePath /api/v1
func main() {
	rootCmd := &cobra.Command{Use: "stock-scorer"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing stock-scorer CLI: %s\n", err)
		os.Exit(1)
	}
}
