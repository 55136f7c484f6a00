package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer    string        // Issuer claim for signed tokens (default: deskapi)
	JWTSecret string        // Shared HS256 secret; empty disables signed tokens
	JWTTTL    time.Duration // Signed token lifetime (default: 24h)

	TokenTTL      time.Duration // Opaque session token lifetime (default: 7 days)
	SweepSchedule string        // Cron expression for the expiry sweep (default: daily 02:00)

	DatabaseFile        string        // Path to SQLite database file (default: ./deskapi.db)
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		Issuer:    getEnvOrDefault("API_ISSUER", "deskapi"),
		JWTSecret: os.Getenv("API_JWT_SECRET"),
		JWTTTL:    getEnvDurationOrDefault("API_JWT_TTL", 24*time.Hour),

		// Seconds for compatibility with existing deployment configs.
		TokenTTL:      time.Duration(getEnvIntOrDefault("API_TOKEN_TTL_SECONDS", 604800)) * time.Second,
		SweepSchedule: getEnvOrDefault("SWEEP_SCHEDULE", "0 2 * * *"),

		DatabaseFile:        getEnvOrDefault("API_DATABASE_FILE", "deskapi.db"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("API_PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
