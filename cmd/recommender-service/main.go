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

	"golang-stock-recommender/internal/recommender/config"
	delivery "golang-stock-recommender/internal/recommender/delivery/http"
	_ "golang-stock-recommender/internal/recommender/docs"
	"golang-stock-recommender/internal/recommender/repository"
	"golang-stock-recommender/internal/recommender/service"
	"golang-stock-recommender/pkg/common"
	"golang-stock-recommender/pkg/logger"
	"golang-stock-recommender/pkg/postgres"
	"golang-stock-recommender/pkg/redis"
	"golang-stock-recommender/pkg/telegram"
	"golang-stock-recommender/pkg/utils"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	swagger "github.com/swaggo/echo-swagger"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the recommender service",
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

	appLogger.Info("Starting Recommender Service", logger.Field("name", cfg.App.Name))

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

	// Initialize Redis
	redisCfg := redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	}
	redisClient, err := redis.NewClient(redisCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize Redis", logger.ErrorField(err))
	}
	defer redisClient.Close()

	// Initialize repositories
	ledgerRepo := repository.NewFollowLedgerRepository(db.DB)
	sectorRepo := repository.NewSectorGraphRepository(db.DB)
	userRepo := repository.NewUserRepository(db.DB)
	companyRepo := repository.NewCompanyRepository(db.DB)
	notificationRepo := repository.NewNotificationRepository(db.DB)
	runRepo := repository.NewTrainingRunRepository(db.DB)

	var modelRepo repository.ModelRepository
	switch cfg.Recommender.ModelStore {
	case "redis":
		modelRepo = repository.NewRedisModelRepository(redisClient.Client, service.Params(cfg.Recommender), cfg.Recommender.ModelCacheTTL)
	case "memory":
		appLogger.Warn("Using in-memory model store; the model is not shared between processes")
		modelRepo = repository.NewMemoryModelRepository(service.Params(cfg.Recommender))
	default:
		appLogger.Fatal("Invalid model store specified in config", logger.StringField("model_store", cfg.Recommender.ModelStore))
	}

	notifier := telegram.NewNopNotifier()
	if cfg.Notification.Telegram {
		notifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			appLogger.Fatal("Failed to initialize Telegram notifier", logger.ErrorField(err))
		}
	}

	var retrainQueue service.RetrainQueue
	if cfg.Recommender.AsyncRetrain {
		if err := redisClient.EnsureGroup(ctx, common.RedisStreamRecommenderRetrain, common.RedisStreamGroup); err != nil {
			appLogger.Fatal("Failed to create consumer group", logger.ErrorField(err))
		}
		retrainQueue = service.NewRetrainQueue(redisClient.Client, cfg.Recommender.RetrainDedupeTTL)
	}

	// Initialize services
	gate := service.NewReadinessGate(userRepo, cfg.Recommender.ReadinessThreshold, cfg.Recommender.RetrainThreshold)
	affinitySvc := service.NewAffinityService(db.DB, gate, sectorRepo, ledgerRepo, appLogger)
	ledgerSvc := service.NewLedgerService(db.DB, gate, userRepo, ledgerRepo, companyRepo, sectorRepo, appLogger)
	softRec := service.NewSoftRecommender(affinitySvc, ledgerRepo)
	hardRec := service.NewHardRecommender(cfg.Recommender, gate, ledgerRepo, companyRepo, modelRepo, runRepo, appLogger)
	recommendationSvc := service.NewRecommendationService(cfg.Recommender, gate, softRec, hardRec, retrainQueue, appLogger)
	companySvc := service.NewCompanyService(cfg.Notification.SentimentShiftThreshold, companyRepo, ledgerRepo, notificationRepo, notifier, appLogger)
	notificationSvc := service.NewNotificationService(gate, notificationRepo)
	modelSvc := service.NewModelService(hardRec, runRepo, appLogger)

	// Fit once when no model has been published yet
	snapshot, err := modelRepo.Load(ctx)
	if err != nil {
		appLogger.Error("Failed to load model", logger.ErrorField(err))
	} else if snapshot.Version == 0 {
		utils.GoSafe(func() {
			if _, err := hardRec.BatchFit(ctx); err != nil {
				appLogger.Error("Initial batch fit failed", logger.ErrorField(err))
			}
		})
	}

	// Initialize Echo server
	e := echo.New()
	e.HideBanner = true
	e.Use(delivery.RequestID())

	// Initialize handlers and routes
	apiV1 := e.Group("/api/v1")
	userHandler := delivery.NewUserHandler(recommendationSvc, ledgerSvc, notificationSvc, cfg.Recommender.DefaultK, appLogger)
	userHandler.RegisterRoutes(apiV1.Group("/users"))

	companyHandler := delivery.NewCompanyHandler(companySvc, appLogger)
	companyHandler.RegisterRoutes(apiV1.Group("/companies"))

	modelHandler := delivery.NewModelHandler(modelSvc, appLogger)
	modelHandler.RegisterRoutes(apiV1.Group("/model"))

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	appLogger.Info("Server exiting")
}

// @title Stock Recommender API
// @version 1.0
// @description Follows, sector interests and company recommendations.
// @BasePath /api/v1
func main() {
	rootCmd := &cobra.Command{Use: "recommender-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config-recommender.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing recommender-service CLI: %s\n", err)
		os.Exit(1)
	}
}
