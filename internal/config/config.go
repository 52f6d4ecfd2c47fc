package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Port string

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// Maintenance endpoints (scheduler trigger) shared key
	MaintenanceAPIKey string

	// Background scheduler
	SchedulerInterval time.Duration

	// Email (Postmark-compatible). Email sending is disabled when the
	// server token is empty.
	EmailServerToken string
	EmailFrom        string
	EmailBaseURL     string

	// Base URL used to build notification action links
	AppBaseURL string
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Port:              getEnv("PORT", "8080"),
		JWTSecret:         getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),
		MaintenanceAPIKey: getEnv("MAINTENANCE_API_KEY", ""),
		EmailServerToken:  getEnv("EMAIL_SERVER_TOKEN", ""),
		EmailFrom:         getEnv("EMAIL_FROM", "noreply@famledger.local"),
		EmailBaseURL:      getEnv("EMAIL_BASE_URL", "https://api.postmarkapp.com"),
		AppBaseURL:        getEnv("APP_BASE_URL", "http://localhost:8080"),
	}

	expStr := getEnv("JWT_EXPIRES_IN", "24h")
	expDur, err := time.ParseDuration(expStr)
	if err != nil {
		log.Printf("Warning: invalid JWT_EXPIRES_IN value '%s', falling back to 24h\n", expStr)
		expDur = 24 * time.Hour
	}
	config.JWTExpirationDur = expDur

	intervalStr := getEnv("SCHEDULER_INTERVAL", "1h")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		log.Printf("Warning: invalid SCHEDULER_INTERVAL value '%s', falling back to 1h\n", intervalStr)
		interval = time.Hour
	}
	config.SchedulerInterval = interval

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
