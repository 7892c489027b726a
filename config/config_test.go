package config

import (
	"strings"
	"testing"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "ADDRESS", "ENV", "LOG_LEVEL", "LOG_FILE", "MAX_REQUEST_BODY",
		"JWT_SECRET", "DB_DRIVER", "DATABASE_DSN", "RETENTION_DAYS",
		"PGHOST", "PGPORT", "PGUSER", "PGPASSWORD", "PGDATABASE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("Expected default port 8000, got %s", cfg.Port)
	}
	if cfg.Address != "127.0.0.1" {
		t.Errorf("Expected default address 127.0.0.1, got %s", cfg.Address)
	}
	if cfg.Env != "dev" {
		t.Errorf("Expected default env dev, got %s", cfg.Env)
	}
	if cfg.DBDriver != "postgres" {
		t.Errorf("Expected default driver postgres, got %s", cfg.DBDriver)
	}
	if cfg.RetentionDays != 90 {
		t.Errorf("Expected default retention 90, got %d", cfg.RetentionDays)
	}
	if cfg.MaxRequestBody != 33554432 {
		t.Errorf("Expected default max body 33554432, got %d", cfg.MaxRequestBody)
	}
	if cfg.JWTSecret != "dev_secret" {
		t.Errorf("Expected dev fallback secret, got %s", cfg.JWTSecret)
	}
}

func TestLoadValidConfig(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("PORT", "8002")
	t.Setenv("ENV", "prod")
	t.Setenv("JWT_SECRET", "super-secret")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_DSN", "file:deadstock.db")
	t.Setenv("RETENTION_DAYS", "30")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != "8002" {
		t.Errorf("Expected port 8002, got %s", cfg.Port)
	}
	if cfg.DBDriver != "sqlite" {
		t.Errorf("Expected driver sqlite, got %s", cfg.DBDriver)
	}
	if cfg.DatabaseDSN != "file:deadstock.db" {
		t.Errorf("Expected explicit DSN, got %s", cfg.DatabaseDSN)
	}
	if cfg.RetentionDays != 30 {
		t.Errorf("Expected retention 30, got %d", cfg.RetentionDays)
	}
}

func TestLoadPostgresDSNFromEnv(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("PGHOST", "db.internal")
	t.Setenv("PGUSER", "pharmacy")
	t.Setenv("PGPASSWORD", "pw")
	t.Setenv("PGDATABASE", "stock")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	for _, part := range []string{"host=db.internal", "user=pharmacy", "password=pw", "dbname=stock"} {
		if !strings.Contains(cfg.DatabaseDSN, part) {
			t.Errorf("Expected DSN to contain %q, got %s", part, cfg.DatabaseDSN)
		}
	}
}

func TestLoadInvalidPort(t *testing.T) {
	tests := []string{"abc", "0", "70000", "80"}
	for _, port := range tests {
		clearConfigEnv(t)
		t.Setenv("PORT", port)

		if _, err := Load(); err == nil {
			t.Errorf("Expected error for PORT=%s", port)
		}
	}
}

func TestLoadInvalidEnv(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("ENV", "production-ish")

	if _, err := Load(); err == nil {
		t.Error("Expected error for invalid ENV")
	}
}

func TestLoadInvalidDriver(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("DB_DRIVER", "mysql")

	if _, err := Load(); err == nil {
		t.Error("Expected error for unsupported DB_DRIVER")
	}
}

func TestLoadMissingSecretInProd(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("ENV", "prod")

	if _, err := Load(); err == nil {
		t.Error("Expected error for empty JWT_SECRET in prod")
	}
}

func TestLoadInvalidRetention(t *testing.T) {
	for _, days := range []string{"0", "-1", "4000"} {
		clearConfigEnv(t)
		t.Setenv("RETENTION_DAYS", days)

		if _, err := Load(); err == nil {
			t.Errorf("Expected error for RETENTION_DAYS=%s", days)
		}
	}
}
