// Package config loads process configuration from environment variables,
// with an optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Port    int
	DevMode bool

	DatabaseURL string
	RedisURL    string // empty => in-memory cache only

	SchedulerTimezone        string
	SchedulerDailyRun        string // "HH:MM"
	SchedulerIntervalMinutes int

	LLMAPIKey string // empty => lexicon-only sentiment
	LLMModel  string

	MinContentLength       int
	MaxArticleAgeDays      int
	DelayBetweenRequestsMs int
	MaxRetries             int
	QualityThreshold       float64

	UniverseSize int

	S3Bucket  string
	AWSRegion string

	LogLevel string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:    getEnvAsInt("GO_PORT", 8001),
		DevMode: getEnvAsBool("DEV_MODE", false),

		DatabaseURL: getEnv("DATABASE_URL", "./data/fear_greed.db"),
		RedisURL:    getEnv("REDIS_URL", ""),

		SchedulerTimezone:        getEnv("SCHEDULER_TIMEZONE", "Africa/Casablanca"),
		SchedulerDailyRun:        getEnv("SCHEDULER_DAILY_RUN", "07:30"),
		SchedulerIntervalMinutes: getEnvAsInt("SCHEDULER_INTERVAL_MINUTES", 10),

		LLMAPIKey: getEnv("LLM_API_KEY", ""),
		LLMModel:  getEnv("LLM_MODEL", "gpt-4o-mini"),

		MinContentLength:       getEnvAsInt("MIN_CONTENT_LENGTH", 300),
		MaxArticleAgeDays:      getEnvAsInt("MAX_ARTICLE_AGE_DAYS", 7),
		DelayBetweenRequestsMs: getEnvAsInt("DELAY_BETWEEN_REQUESTS", 1500),
		MaxRetries:             getEnvAsInt("MAX_RETRIES", 3),
		QualityThreshold:       getEnvAsFloat("QUALITY_THRESHOLD", 0.30),

		UniverseSize: getEnvAsInt("UNIVERSE_SIZE", 76),

		S3Bucket:  getEnv("S3_BUCKET", ""),
		AWSRegion: getEnv("AWS_REGION", "eu-west-3"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required configuration is present.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			return v
		}
	}
	return defaultValue
}
