package config

import (
	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
type Config struct {
	PostgresURL       string `mapstructure:"POSTGRES_URL"`
	RedisAddr         string `mapstructure:"REDIS_ADDR"`
	ServerPort        string `mapstructure:"SERVER_PORT"`
	ChromePath        string `mapstructure:"CHROME_PATH"`
	Headless          bool   `mapstructure:"HEADLESS"`
	AuditWorkers      int    `mapstructure:"AUDIT_WORKERS"`
	AuditTimeout      int    `mapstructure:"AUDIT_TIMEOUT"`
	PageWaitMS        int    `mapstructure:"PAGE_WAIT_MS"`
	EnrichConcurrency int    `mapstructure:"ENRICH_CONCURRENCY"`
	MaxRetries        int    `mapstructure:"MAX_RETRIES"`
	DeduplicationDays int    `mapstructure:"DEDUPLICATION_DAYS"`
}

// Load reads configuration from file or environment variables.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	// Attempt to read the .env file, but don't fail if it's not present
	// This allows configuration purely through environment variables in production
	_ = viper.ReadInConfig()

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("HEADLESS", true)
	viper.SetDefault("AUDIT_WORKERS", 4)
	viper.SetDefault("AUDIT_TIMEOUT", 45) // in seconds
	viper.SetDefault("PAGE_WAIT_MS", 1500)
	// 1 keeps at most one in-flight re-decode per page context; raise it
	// (or set 0 for unbounded) to trade page pressure for latency.
	viper.SetDefault("ENRICH_CONCURRENCY", 1)
	viper.SetDefault("MAX_RETRIES", 2)
	viper.SetDefault("DEDUPLICATION_DAYS", 2)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
