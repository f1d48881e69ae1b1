package config

import (
	"time"

	recommenderconfig "golang-stock-recommender/internal/recommender/config"
	"golang-stock-recommender/pkg/config"
)

// Worker holds retrain worker configuration.
type Worker struct {
	RedisStreamRetrainTimeout         time.Duration `mapstructure:"redis_stream_retrain_timeout"`
	RedisStreamRetrainBlock           time.Duration `mapstructure:"redis_stream_retrain_block"`
	RedisStreamRetrainRetryInterval   time.Duration `mapstructure:"redis_stream_retrain_retry_interval"`
	RedisStreamRetrainMaxIdleDuration time.Duration `mapstructure:"redis_stream_retrain_max_idle_duration"`
	RedisStreamRetrainMaxRetry        int           `mapstructure:"redis_stream_retrain_max_retry"`

	// RetrainsPerSecond bounds how fast queued retrains hit the model store.
	RetrainsPerSecond float64 `mapstructure:"retrains_per_second"`
	RetrainBurst      int     `mapstructure:"retrain_burst"`

	BatchRefitCron    string `mapstructure:"batch_refit_cron"`
	BatchRefitOnStart bool   `mapstructure:"batch_refit_on_start"`
}

// Config holds the full configuration for the retrain worker.
type Config struct {
	App         config.App                    `mapstructure:"app"`
	Logger      config.Logger                 `mapstructure:"logger"`
	Database    config.Database               `mapstructure:"database"`
	Redis       config.Redis                  `mapstructure:"redis"`
	Recommender recommenderconfig.Recommender `mapstructure:"recommender"`
	Worker      Worker                        `mapstructure:"worker"`
	Telegram    recommenderconfig.Telegram    `mapstructure:"telegram"`
}

var workerDefaults = map[string]interface{}{
	"worker.redis_stream_retrain_timeout":           "2m",
	"worker.redis_stream_retrain_block":             "2s",
	"worker.redis_stream_retrain_retry_interval":    "30s",
	"worker.redis_stream_retrain_max_idle_duration": "5m",
	"worker.redis_stream_retrain_max_retry":         3,
	"worker.retrains_per_second":                    2.0,
	"worker.retrain_burst":                          1,
	"worker.batch_refit_cron":                       "0 3 * * *",
	"worker.batch_refit_on_start":                   true,
}

// Load loads the worker configuration from the given path.
func Load(path string) (*Config, error) {
	defaults := make(map[string]interface{}, len(recommenderconfig.Defaults)+len(workerDefaults))
	for k, v := range recommenderconfig.Defaults {
		defaults[k] = v
	}
	for k, v := range workerDefaults {
		defaults[k] = v
	}

	var cfg Config
	if err := config.Load(path, &cfg, defaults); err != nil {
		return nil, err
	}
	return &cfg, nil
}
