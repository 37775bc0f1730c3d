package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

type Config struct {
	ListenAddr     string
	DatabaseURL    string
	UploadDir      string
	ChunkSize      int
	Workers        int
	PollInterval   time.Duration
	WebhookTimeout time.Duration
	LogFile        string
	LogLevel       slog.Level
}

func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:  getEnv("CATALOG_LISTEN_ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		UploadDir:   getEnv("CATALOG_UPLOAD_DIR", "uploads"),
		LogFile:     getEnv("CATALOG_LOG_FILE", "catalog-ingest.log"),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL must not be empty")
	}

	var err error
	cfg.ChunkSize, err = getEnvInt("CATALOG_CHUNK_SIZE", 1000)
	if err != nil {
		return nil, fmt.Errorf("CATALOG_CHUNK_SIZE: %w", err)
	}
	if cfg.ChunkSize < 1 {
		return nil, errors.New("CATALOG_CHUNK_SIZE must be > 0")
	}

	cfg.Workers, err = getEnvInt("CATALOG_WORKERS", 4)
	if err != nil {
		return nil, fmt.Errorf("CATALOG_WORKERS: %w", err)
	}
	if cfg.Workers < 1 {
		return nil, errors.New("CATALOG_WORKERS must be > 0")
	}

	cfg.PollInterval, err = getEnvDuration("CATALOG_POLL_INTERVAL", 500*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("CATALOG_POLL_INTERVAL: %w", err)
	}

	cfg.WebhookTimeout, err = getEnvDuration("CATALOG_WEBHOOK_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CATALOG_WEBHOOK_TIMEOUT: %w", err)
	}

	cfg.LogLevel, err = parseLevel(getEnv("CATALOG_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("CATALOG_LOG_LEVEL: %w", err)
	}

	return cfg, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid level %q", s)
	}
	return level, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", v)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", v)
	}
	return d, nil
}
