package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the channel bridge service
type Config struct {
	// Server
	Port        string
	Environment string

	// Database
	DatabaseURL string

	// GCP
	GCPProjectID string

	// Redis (match materialization locks)
	RedisAddr string

	// External Collaborators
	PlacementServiceURL string

	// Adapter Dispatch
	AdapterTimeout time.Duration

	// Webhook Base URL (for registering webhooks with platforms)
	WebhookBaseURL string

	// Drift Detection
	DriftPriceThreshold    float64 // absolute price difference
	DriftQuantityThreshold int     // absolute quantity difference
	DriftPercentThreshold  float64 // percentage difference

	// Token encryption fallback when GCP Secret Manager is unavailable
	TokenEncryptionKey string
}

// Load loads configuration from environment variables
func Load() *Config {
	databaseURL := getEnv("DATABASE_URL", "")
	if databaseURL == "" {
		dbHost := getEnv("DB_HOST", "localhost")
		dbPort := getEnv("DB_PORT", "5432")
		dbUser := getEnv("DB_USER", "postgres")
		dbPassword := getEnv("DB_PASSWORD", "postgres")
		dbName := getEnv("DB_NAME", "channel_bridge")
		dbSSLMode := getEnv("DB_SSLMODE", "disable")

		databaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
			dbUser, dbPassword, dbHost, dbPort, dbName, dbSSLMode)
	}

	config := &Config{
		Port:        getEnv("PORT", "8097"),
		Environment: getEnv("ENVIRONMENT", "development"),
		DatabaseURL: databaseURL,

		GCPProjectID: getEnv("GCP_PROJECT_ID", ""),
		RedisAddr:    getEnv("REDIS_ADDR", ""),

		PlacementServiceURL: getEnv("PLACEMENT_SERVICE_URL", ""),

		AdapterTimeout: getEnvAsDuration("ADAPTER_TIMEOUT", 30*time.Second),
		WebhookBaseURL: getEnv("WEBHOOK_BASE_URL", ""),

		DriftPriceThreshold:    getEnvAsFloat("DRIFT_PRICE_THRESHOLD", 0.01),
		DriftQuantityThreshold: getEnvAsInt("DRIFT_QUANTITY_THRESHOLD", 5),
		DriftPercentThreshold:  getEnvAsFloat("DRIFT_PERCENT_THRESHOLD", 10.0),

		TokenEncryptionKey: getEnv("TOKEN_ENCRYPTION_KEY", ""),
	}

	if config.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	if config.GCPProjectID == "" && config.TokenEncryptionKey == "" {
		log.Println("Warning: neither GCP_PROJECT_ID nor TOKEN_ENCRYPTION_KEY set, credential storage is disabled until one is configured")
	}

	return config
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

// getEnvAsFloat gets an environment variable as a float with a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return floatValue
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}
