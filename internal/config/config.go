package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	ServerPort   string
	DatabaseType string // sqlite, postgres, mysql
	DatabasePath string // sqlite file path
	DatabaseURL  string // postgres/mysql connection string

	MigrationsPath string

	// Signing secret for parent and child-device bearer tokens
	TokenSecret   string
	TokenDuration time.Duration

	// Content generation oracle (chat-completions style endpoint)
	OracleBaseURL string
	OracleAPIKey  string
	OracleModel   string
	OracleTimeout time.Duration

	// Illustration render service
	RenderBaseURL string
	RenderAPIKey  string
	RenderModel   string
	RenderTimeout time.Duration

	// Cycle parameters
	CycleLengthDays int

	// Notification email (SES)
	AWSRegion    string
	SESFromEmail string
	SESFromName  string
	// Caregiver address lifecycle notifications go to; empty disables them
	NotifyEmail string
	AppBaseURL  string

	Debug bool
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		ServerPort:     getEnv("PORT", "8080"),
		DatabaseType:   getEnv("DB_TYPE", "sqlite"),
		DatabasePath:   getEnv("DB_PATH", "./storyweek.db"),
		DatabaseURL:    getEnv("DB_URL", ""),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),

		TokenSecret:   getEnv("TOKEN_SECRET", ""),
		TokenDuration: getEnvDuration("TOKEN_DURATION", 24*time.Hour),

		OracleBaseURL: getEnv("ORACLE_BASE_URL", "https://api.openai.com"),
		OracleAPIKey:  getEnv("ORACLE_API_KEY", ""),
		OracleModel:   getEnv("ORACLE_MODEL", "gpt-4o-mini"),
		OracleTimeout: getEnvDuration("ORACLE_TIMEOUT", 60*time.Second),

		RenderBaseURL: getEnv("RENDER_BASE_URL", ""),
		RenderAPIKey:  getEnv("RENDER_API_KEY", ""),
		RenderModel:   getEnv("RENDER_MODEL", "dall-e-3"),
		RenderTimeout: getEnvDuration("RENDER_TIMEOUT", 120*time.Second),

		CycleLengthDays: getEnvInt("CYCLE_LENGTH_DAYS", 7),

		AWSRegion:    getEnv("AWS_REGION", "eu-west-1"),
		SESFromEmail: getEnv("SES_FROM_EMAIL", ""),
		SESFromName:  getEnv("SES_FROM_NAME", "StoryWeek"),
		NotifyEmail:  getEnv("NOTIFY_EMAIL", ""),
		AppBaseURL:   getEnv("APP_BASE_URL", "http://localhost:8080"),

		Debug: getEnv("DEBUG", "") != "",
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
