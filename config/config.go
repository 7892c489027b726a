// Package config has the configuration file for the app
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	Port           string
	Address        string
	Env            string
	LogLevel       string
	LogFile        string
	MaxRequestBody int64  // Maximum request body size in bytes
	JWTSecret      string // HS256 signing secret for auth tokens
	DBDriver       string // "postgres" or "sqlite"
	DatabaseDSN    string
	RetentionDays  int // Days persisted reconciliation records are kept
}

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnvWithDefault("PORT", "8000"),
		Address:        getEnvWithDefault("ADDRESS", "127.0.0.1"),
		Env:            getEnvWithDefault("ENV", "dev"),
		LogLevel:       getEnvWithDefault("LOG_LEVEL", "info"),
		LogFile:        getEnvWithDefault("LOG_FILE", "app.log"),
		MaxRequestBody: getInt64EnvWithDefault("MAX_REQUEST_BODY", 33554432), // 32MB: three spreadsheet uploads
		JWTSecret:      os.Getenv("JWT_SECRET"),
		DBDriver:       getEnvWithDefault("DB_DRIVER", "postgres"),
		DatabaseDSN:    os.Getenv("DATABASE_DSN"),
		RetentionDays:  getIntEnvWithDefault("RETENTION_DAYS", 90),
	}

	if cfg.DatabaseDSN == "" {
		cfg.DatabaseDSN = postgresDSNFromEnv()
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// postgresDSNFromEnv assembles a DSN from the PG* variables the original
// deployment used.
func postgresDSNFromEnv() string {
	host := getEnvWithDefault("PGHOST", "localhost")
	port := getEnvWithDefault("PGPORT", "5432")
	user := getEnvWithDefault("PGUSER", "postgres")
	password := os.Getenv("PGPASSWORD")
	dbname := getEnvWithDefault("PGDATABASE", "deadstock")

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)
}

// validateConfig validates all configuration values
func validateConfig(cfg *Config) error {
	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	if err := validateAddress(cfg.Address); err != nil {
		return fmt.Errorf("invalid ADDRESS: %w", err)
	}

	if err := validateEnv(cfg.Env); err != nil {
		return fmt.Errorf("invalid ENV: %w", err)
	}

	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if cfg.MaxRequestBody <= 0 {
		return fmt.Errorf("invalid MAX_REQUEST_BODY: must be positive, got: %d", cfg.MaxRequestBody)
	}

	if cfg.JWTSecret == "" {
		if cfg.Env != "dev" && cfg.Env != "test" {
			return fmt.Errorf("invalid JWT_SECRET: cannot be empty outside dev")
		}
		cfg.JWTSecret = "dev_secret"
	}

	if cfg.DBDriver != "postgres" && cfg.DBDriver != "sqlite" {
		return fmt.Errorf("invalid DB_DRIVER: must be postgres or sqlite, got: %s", cfg.DBDriver)
	}

	if cfg.RetentionDays <= 0 || cfg.RetentionDays > 3650 {
		return fmt.Errorf("invalid RETENTION_DAYS: must be between 1 and 3650, got: %d", cfg.RetentionDays)
	}

	return nil
}

// validatePort validates the PORT environment variable
func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}

	return nil
}

// validateAddress validates the ADDRESS environment variable
func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("ADDRESS cannot be empty")
	}

	if address == "127.0.0.1" || address == "::1" || address == "localhost" {
		return nil
	}

	if ip := net.ParseIP(address); ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}

	return nil
}

// validateEnv validates the ENV environment variable
func validateEnv(env string) error {
	validEnvs := []string{"dev", "staging", "prod", "test"}
	env = strings.ToLower(env)

	for _, validEnv := range validEnvs {
		if env == validEnv {
			return nil
		}
	}

	return fmt.Errorf("ENV must be one of: %v, got: %s", validEnvs, env)
}

// validateLogLevel validates the LOG_LEVEL environment variable
func validateLogLevel(logLevel string) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	logLevel = strings.ToLower(logLevel)

	for _, level := range validLevels {
		if logLevel == level {
			return nil
		}
	}

	return fmt.Errorf("LOG_LEVEL must be one of: %v, got: %s", validLevels, logLevel)
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnvWithDefault gets an environment variable as int with a default value
func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getInt64EnvWithDefault gets an environment variable as int64 with a default value
func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
