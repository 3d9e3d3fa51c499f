package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port string

	// Database configuration
	DBType            string // mysql, postgres, sqlite, sqlserver
	DBHost            string
	DBPort            string
	DBDatabase        string
	DBUser            string
	DBPassword        string
	DBConnectionLimit int

	// Day-bucketing zone. All local calendar dates (migraine days, summary
	// periods, correlation windows) are computed in this single zone.
	DayZone     string
	DayLocation *time.Location

	// Authorizer configuration
	AuthzURL      string
	AuthzClientID string

	// LLM analysis collaborator
	LLMURL     string
	LLMAPIKey  string
	LLMTimeout time.Duration

	// Upload limit in bytes for the CSV endpoint
	MaxUploadBytes int64
}

// Load loads configuration from the environment, reading an optional .env
// file first.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnv("PORT", "3000"),
		DBType:            getEnv("DB_TYPE", "mysql"),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "3306"),
		DBDatabase:        getEnv("DB_DATABASE", ""),
		DBUser:            getEnv("DB_USER", ""),
		DBPassword:        getEnv("DB_PASSWORD", ""),
		DBConnectionLimit: getEnvAsInt("DB_CONNECTION_LIMIT", 20),
		DayZone:           getEnv("DAY_ZONE", "UTC"),
		AuthzURL:          getEnv("AUTHZ_URL", ""),
		AuthzClientID:     getEnv("AUTHZ_CLIENT_ID", ""),
		LLMURL:            getEnv("LLM_URL", ""),
		LLMAPIKey:         getEnv("LLM_API_KEY", ""),
		LLMTimeout:        time.Duration(getEnvAsInt("LLM_TIMEOUT_SECONDS", 30)) * time.Second,
		MaxUploadBytes:    int64(getEnvAsInt("MAX_UPLOAD_BYTES", 20*1024*1024)),
	}

	// Validate required fields
	if cfg.DBDatabase == "" {
		return nil, fmt.Errorf("DB_DATABASE is required")
	}
	if cfg.DBType != "sqlite" && cfg.DBUser == "" {
		return nil, fmt.Errorf("DB_USER is required")
	}
	if cfg.AuthzURL == "" {
		return nil, fmt.Errorf("AUTHZ_URL is required")
	}
	if cfg.AuthzClientID == "" {
		return nil, fmt.Errorf("AUTHZ_CLIENT_ID is required")
	}

	loc, err := time.LoadLocation(cfg.DayZone)
	if err != nil {
		return nil, fmt.Errorf("invalid DAY_ZONE %q: %w", cfg.DayZone, err)
	}
	cfg.DayLocation = loc

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
