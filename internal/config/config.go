package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Env         string
	DatabaseURL string
	LogLevel    string

	SessionSecret string
	SessionExpiry time.Duration

	Upstream UpstreamConfig

	BatchExportDelay time.Duration
	BulkConcurrency  int
}

type UpstreamConfig struct {
	BaseURL         string
	Timeout         time.Duration
	RefreshInterval time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		SessionSecret: getEnvOrPanic("SESSION_SECRET"),
		SessionExpiry: getDuration("SESSION_EXPIRY", 12*time.Hour),

		Upstream: UpstreamConfig{
			BaseURL:         getEnv("UPSTREAM_API_URL", "http://localhost:5001/api"),
			Timeout:         getDuration("UPSTREAM_TIMEOUT", 120*time.Second),
			RefreshInterval: getDuration("TOKEN_REFRESH_INTERVAL", 50*time.Minute),
		},

		BatchExportDelay: getDuration("BATCH_EXPORT_DELAY", 500*time.Millisecond),
		BulkConcurrency:  getInt("BULK_CONCURRENCY", 4),
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvOrPanic(key string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		panic("required environment variable not set: " + key)
	}
	return value
}

// getDuration falls back when the value is missing, unparsable or not positive.
func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
