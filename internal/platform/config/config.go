// Package config loads application configuration from environment variables.
// All variables use the LEARN_ prefix.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Data     DataConfig
	Progress ProgressConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Users    UsersConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int
	Host string
}

// DataConfig locates the curriculum document and per-user progress files.
type DataConfig struct {
	Dir            string
	CurriculumPath string
}

// ProgressConfig selects the progress store backend.
type ProgressConfig struct {
	Backend    string // "file", "postgres" or "sqlite"
	SQLitePath string
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// CacheConfig holds Redis connection settings. An empty URL disables the cache.
type CacheConfig struct {
	URL      string
	StatsTTL time.Duration
}

// UsersConfig holds the fixed user roster. File takes precedence over Spec.
type UsersConfig struct {
	Spec string // "id:Name,id:Name"
	File string // YAML roster
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level     string
	Format    string
	AddSource bool
}

// Load reads configuration from environment variables with LEARN_ prefix.
func Load() (*Config, error) {
	dataDir := envStr("LEARN_DATA_DIR", ".")

	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("LEARN_SERVER_PORT", 8080),
			Host: envStr("LEARN_SERVER_HOST", "0.0.0.0"),
		},
		Data: DataConfig{
			Dir:            dataDir,
			CurriculumPath: envStr("LEARN_CURRICULUM_PATH", filepath.Join(dataDir, "topics.json")),
		},
		Progress: ProgressConfig{
			Backend:    strings.ToLower(envStr("LEARN_PROGRESS_BACKEND", "file")),
			SQLitePath: envStr("LEARN_PROGRESS_SQLITE_PATH", filepath.Join(dataDir, "progress.db")),
		},
		Database: DatabaseConfig{
			URL:      envStr("LEARN_DATABASE_URL", ""),
			MaxConns: envInt("LEARN_DATABASE_MAX_CONNS", 10),
			MinConns: envInt("LEARN_DATABASE_MIN_CONNS", 1),
		},
		Cache: CacheConfig{
			URL:      envStr("LEARN_CACHE_URL", ""),
			StatsTTL: time.Duration(envInt("LEARN_CACHE_STATS_TTL", 60)) * time.Second,
		},
		Users: UsersConfig{
			Spec: envStr("LEARN_USERS", "babu:Babu,adhi:Adhi,gokul:Gokul"),
			File: envStr("LEARN_USERS_FILE", ""),
		},
		Log: LogConfig{
			Level:     envStr("LEARN_LOG_LEVEL", "info"),
			Format:    envStr("LEARN_LOG_FORMAT", "json"),
			AddSource: envBool("LEARN_LOG_ADD_SOURCE", false),
		},
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("LEARN_SERVER_PORT out of range: %d", cfg.Server.Port)
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	switch c.Progress.Backend {
	case "file":
		if c.Data.Dir == "" {
			return fmt.Errorf("LEARN_DATA_DIR is required for the file progress backend")
		}
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("LEARN_DATABASE_URL is required for the postgres progress backend")
		}
	case "sqlite":
		if c.Progress.SQLitePath == "" {
			return fmt.Errorf("LEARN_PROGRESS_SQLITE_PATH is required for the sqlite progress backend")
		}
	default:
		return fmt.Errorf("LEARN_PROGRESS_BACKEND must be 'file', 'postgres' or 'sqlite', got %q", c.Progress.Backend)
	}

	if c.Data.CurriculumPath == "" {
		return fmt.Errorf("LEARN_CURRICULUM_PATH is required")
	}

	if c.Users.File == "" && strings.TrimSpace(c.Users.Spec) == "" {
		return fmt.Errorf("either LEARN_USERS or LEARN_USERS_FILE must be set")
	}

	return nil
}

// HasCache returns true if a Redis cache is configured.
func (c *Config) HasCache() bool {
	return c.Cache.URL != ""
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}
