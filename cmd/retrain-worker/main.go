package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang-stock-recommender/internal/recommender/repository"
	recommender "golang-stock-recommender/internal/recommender/service"
	"golang-stock-recommender/internal/retrainer/config"
	"golang-stock-recommender/internal/retrainer/delivery/consumer"
	"golang-stock-recommender/internal/retrainer/service"
	"golang-stock-recommender/pkg/common"
	"golang-stock-recommender/pkg/logger"
	"golang-stock-recommender/pkg/postgres"
	"golang-stock-recommender/pkg/redis"
	"golang-stock-recommender/pkg/telegram"
	"golang-stock-recommender/pkg/utils"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the retrain worker",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
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

	consumerName := fmt.Sprintf("%s-%s", common.RedisStreamConsumer, uuid.NewString())
	appLogger = appLogger.With(logger.StringField("consumer", consumerName))
	appLogger.Info("Starting Retrain Worker", logger.Field("name", cfg.App.Name))

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

	// MKSTREAM creates the stream if it doesn't exist
	if err := redisClient.EnsureGroup(ctx, common.RedisStreamRecommenderRetrain, common.RedisStreamGroup); err != nil {
		appLogger.Fatal("Failed to create consumer group", logger.ErrorField(err))
	}

	if cfg.Recommender.ModelStore != "redis" {
		appLogger.Fatal("Retrain worker requires the redis model store", logger.StringField("model_store", cfg.Recommender.ModelStore))
	}

	telegramNotifier := telegram.NewNopNotifier()
	if cfg.Telegram.BotToken != "" {
		telegramNotifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			appLogger.Fatal("Failed to initialize Telegram notifier", logger.ErrorField(err))
		}
	}

	// Initialize repositories
	ledgerRepo := repository.NewFollowLedgerRepository(db.DB)
	userRepo := repository.NewUserRepository(db.DB)
	companyRepo := repository.NewCompanyRepository(db.DB)
	runRepo := repository.NewTrainingRunRepository(db.DB)
	modelRepo := repository.NewRedisModelRepository(redisClient.Client, recommender.Params(cfg.Recommender), cfg.Recommender.ModelCacheTTL)

	gate := recommender.NewReadinessGate(userRepo, cfg.Recommender.ReadinessThreshold, cfg.Recommender.RetrainThreshold)
	hardRec := recommender.NewHardRecommender(cfg.Recommender, gate, ledgerRepo, companyRepo, modelRepo, runRepo, appLogger)

	retrainSvc := service.NewRetrainService(cfg.Worker, appLogger, redisClient.Client, hardRec, telegramNotifier, consumerName)

	refitScheduler := service.NewBatchRefitScheduler(hardRec, appLogger)
	if cfg.Worker.BatchRefitCron != "" {
		if err := refitScheduler.Start(ctx, cfg.Worker.BatchRefitCron); err != nil {
			appLogger.Fatal("Failed to start batch refit scheduler", logger.ErrorField(err))
		}
		defer refitScheduler.Stop()
	}
	if cfg.Worker.BatchRefitOnStart {
		utils.GoSafe(func() { refitScheduler.Run(ctx) })
	}

	// Initialize and start the Redis consumer
	redisConsumer := consumer.NewRedisConsumer(cfg, retrainSvc, appLogger)
	redisConsumer.Start(ctx)

	appLogger.Info("Retrain worker started. Waiting for tasks...")

	<-ctx.Done()

	appLogger.Info("Shutting down retrain worker...")
	redisConsumer.Stop()
	appLogger.Info("Retrain worker exiting")
}

func main() {
	rootCmd := &cobra.Command{Use: "retrain-worker"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config-retrainer.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing retrain-worker CLI: %s\n", err)
		os.Exit(1)
	}
}
