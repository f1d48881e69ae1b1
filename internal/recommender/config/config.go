package config

import (
	"time"

	"golang-stock-recommender/pkg/config"
)

// Recommender holds the tuning of the two-tier recommendation engine.
type Recommender struct {
	// ReadinessThreshold is k: new users start at -k and become hard-ready at 0.
	ReadinessThreshold int `mapstructure:"readiness_threshold"`
	// RetrainThreshold is how far past zero the counter must climb before a retrain.
	RetrainThreshold int `mapstructure:"retrain_threshold"`

	Factors        int     `mapstructure:"factors"`
	Regularization float64 `mapstructure:"regularization"`
	Iterations     int     `mapstructure:"iterations"`
	Alpha          float64 `mapstructure:"alpha"`
	Seed           uint64  `mapstructure:"seed"`

	TrainTimeout    time.Duration `mapstructure:"train_timeout"`
	BatchFitTimeout time.Duration `mapstructure:"batch_fit_timeout"`
	SaveAttempts    int           `mapstructure:"save_attempts"`
	AsyncRetrain    bool          `mapstructure:"async_retrain"`
	ModelStore      string        `mapstructure:"model_store"`
	ModelCacheTTL   time.Duration `mapstructure:"model_cache_ttl"`
	DefaultK        int           `mapstructure:"default_k"`
	MaxK            int           `mapstructure:"max_k"`

	// RetrainDedupeTTL bounds how long a queued retrain suppresses new ones
	// for the same user.
	RetrainDedupeTTL time.Duration `mapstructure:"retrain_dedupe_ttl"`
}

// Notification holds settings for follower notifications.
type Notification struct {
	SentimentShiftThreshold float64 `mapstructure:"sentiment_shift_threshold"`
	Telegram                bool    `mapstructure:"telegram"`
}

// Telegram holds configuration for the Telegram notifier.
type Telegram struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// Config holds the full configuration for the recommender service.
type Config struct {
	App          config.App      `mapstructure:"app"`
	Logger       config.Logger   `mapstructure:"logger"`
	Database     config.Database `mapstructure:"database"`
	Redis        config.Redis    `mapstructure:"redis"`
	API          config.API      `mapstructure:"api"`
	Recommender  Recommender     `mapstructure:"recommender"`
	Notification Notification    `mapstructure:"notification"`
	Telegram     Telegram        `mapstructure:"telegram"`
}

// Defaults are the values observed in production; files and env override them.
var Defaults = map[string]interface{}{
	"recommender.readiness_threshold":        5,
	"recommender.retrain_threshold":          5,
	"recommender.factors":                    10,
	"recommender.regularization":             0.1,
	"recommender.iterations":                 50,
	"recommender.alpha":                      1.0,
	"recommender.seed":                       42,
	"recommender.train_timeout":              "30s",
	"recommender.batch_fit_timeout":          "10m",
	"recommender.save_attempts":              3,
	"recommender.retrain_dedupe_ttl":         "10m",
	"recommender.model_store":                "redis",
	"recommender.model_cache_ttl":            "10m",
	"recommender.default_k":                  10,
	"recommender.max_k":                      50,
	"notification.sentiment_shift_threshold": 0.25,
}

// Load loads the recommender configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg, Defaults); err != nil {
		return nil, err
	}
	return &cfg, nil
}
