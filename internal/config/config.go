package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/vjranagit/gridmapper/pkg/storage"
)

// Config holds the application configuration
type Config struct {
	Server ServerConfig `json:"server"`
	Cache  CacheConfig  `json:"cache"`
	Import ImportConfig `json:"import"`
	Grid   GridConfig   `json:"grid"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	ListenAddr string        `json:"listen_addr"`
	Timeout    time.Duration `json:"timeout"`
}

// CacheConfig holds import cache configuration
type CacheConfig struct {
	Enabled          bool          `json:"enabled"`
	Path             string        `json:"path"`
	RetentionDays    int           `json:"retention_days"`
	CompressionLevel int           `json:"compression_level"`
	Capacity         int           `json:"capacity"`
	TTL              time.Duration `json:"ttl"`
}

// ImportConfig holds defaults for command-line imports
type ImportConfig struct {
	RowHeaders    bool `json:"row_headers"`
	ColumnHeaders bool `json:"column_headers"`
}

// GridConfig holds workspace configuration
type GridConfig struct {
	DiagnosticsKeep int `json:"diagnostics_keep"`
}

// Load reads a .env file when present and returns the configuration
func Load() *Config {
	_ = godotenv.Load() // ignore missing file
	return DefaultConfig()
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: getEnv("LISTEN_ADDR", ":8080"),
			Timeout:    getEnvDuration("SERVER_TIMEOUT", 30*time.Second),
		},
		Cache: CacheConfig{
			Enabled:          getEnvBool("CACHE_ENABLED", true),
			Path:             getEnv("CACHE_PATH", "./data"),
			RetentionDays:    getEnvInt("CACHE_RETENTION_DAYS", 30),
			CompressionLevel: getEnvInt("COMPRESSION_LEVEL", 3),
			Capacity:         getEnvInt("CACHE_CAPACITY", 32),
			TTL:              getEnvDuration("CACHE_TTL", 10*time.Minute),
		},
		Import: ImportConfig{
			RowHeaders:    getEnvBool("ROW_HEADERS", false),
			ColumnHeaders: getEnvBool("COLUMN_HEADERS", false),
		},
		Grid: GridConfig{
			DiagnosticsKeep: getEnvInt("DIAGNOSTICS_KEEP", 256),
		},
	}
}

// ToStorageConfig converts to storage.Config
func (c *Config) ToStorageConfig() *storage.Config {
	return &storage.Config{
		Path:             c.Cache.Path,
		RetentionDays:    c.Cache.RetentionDays,
		CompressionLevel: c.Cache.CompressionLevel,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server listen address is required")
	}

	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server timeout must be positive")
	}

	if c.Cache.Enabled && c.Cache.Path == "" {
		return fmt.Errorf("cache path is required")
	}

	if c.Cache.RetentionDays < 0 {
		return fmt.Errorf("retention days cannot be negative")
	}

	if c.Cache.CompressionLevel < 1 || c.Cache.CompressionLevel > 4 {
		return fmt.Errorf("compression level must be between 1 and 4")
	}

	if c.Cache.Capacity < 0 {
		return fmt.Errorf("cache capacity cannot be negative")
	}

	if c.Grid.DiagnosticsKeep < 1 {
		return fmt.Errorf("diagnostics keep must be at least 1")
	}

	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intVal int
		if _, err := fmt.Sscanf(value, "%d", &intVal); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
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
