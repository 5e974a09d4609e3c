/*
Package config loads runtime configuration for the earnings server.

SOURCES (later wins):
  1. Built-in defaults
  2. Optional config file earnings.yaml in the working directory or
     $XDG_CONFIG_HOME/shift-earnings
  3. Optional .env file (loaded into the process environment)
  4. Environment variables
  5. Command-line flags, applied by cmd/server

KEYS:
  port                    PORT                    8080
  db_path                 DB_PATH                 earnings.db
  log_level               LOG_LEVEL               info
  pending_ttl             PENDING_TTL             30m
  pending_sweep_interval  PENDING_SWEEP_INTERVAL  1m
  cors_origins            CORS_ORIGINS            *  (comma-separated)
*/
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the server settings.
type Config struct {
	Port                 string
	DBPath               string
	LogLevel             slog.Level
	PendingTTL           time.Duration
	PendingSweepInterval time.Duration
	CORSOrigins          []string
}

// Load reads configuration from defaults, config file, .env and environment.
func Load() (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("earnings")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if configHome, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(configHome, "shift-earnings"))
	}

	v.SetDefault("port", "8080")
	v.SetDefault("db_path", "earnings.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("pending_ttl", 30*time.Minute)
	v.SetDefault("pending_sweep_interval", time.Minute)
	v.SetDefault("cors_origins", "*")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	level, err := parseLevel(v.GetString("log_level"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:                 v.GetString("port"),
		DBPath:               v.GetString("db_path"),
		LogLevel:             level,
		PendingTTL:           v.GetDuration("pending_ttl"),
		PendingSweepInterval: v.GetDuration("pending_sweep_interval"),
		CORSOrigins:          splitList(v.GetString("cors_origins")),
	}
	if cfg.PendingTTL <= 0 {
		return nil, fmt.Errorf("pending_ttl must be positive, got %v", cfg.PendingTTL)
	}
	if cfg.PendingSweepInterval <= 0 {
		return nil, fmt.Errorf("pending_sweep_interval must be positive, got %v", cfg.PendingSweepInterval)
	}
	return cfg, nil
}

// NewLogger returns a text slog logger at the configured level.
func (c *Config) NewLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: c.LogLevel}))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", s, err)
	}
	return level, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
