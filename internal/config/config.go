package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration, loaded from environment
// variables with defaults.
type Config struct {
	Port     string
	MongoURI string
	RedisURL string

	// Orchestrator settings
	MaxConcurrentJobs int
	PollInterval      time.Duration
	DefaultMaxRetries int

	// Scheduled sweep cron expressions (standard 5-field cron)
	RollupSweepCron    string
	IntegritySweepCron string

	// Path to the YAML tunables file. Empty means built-in defaults.
	TunablesPath string
}

// Load loads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "3001"),
		MongoURI: getEnv("MONGODB_URI", "mongodb://localhost:27017/lifeos"),
		RedisURL: getEnv("REDIS_URL", ""),

		MaxConcurrentJobs: getIntEnv("MAX_CONCURRENT_JOBS", 8),
		PollInterval:      getDurationEnv("POLL_INTERVAL", 500*time.Millisecond),
		DefaultMaxRetries: getIntEnv("DEFAULT_MAX_RETRIES", 3),

		// First of the month at 02:00 / every night at 03:30
		RollupSweepCron:    getEnv("ROLLUP_SWEEP_CRON", "0 2 1 * *"),
		IntegritySweepCron: getEnv("INTEGRITY_SWEEP_CRON", "30 3 * * *"),

		TunablesPath: getEnv("TUNABLES_PATH", ""),
	}
}

// getEnv gets an environment variable with a fallback default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable with a fallback default
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getDurationEnv gets a duration environment variable with a fallback default
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
