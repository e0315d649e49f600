package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Env        string
	DBPath     string
	SocketPath string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Env:        getEnv("ENV", "development"),
		DBPath:     getEnv("CMDB_DB_PATH", "data/cmdb.db"),
		SocketPath: getEnv("CMDB_SOCKET_PATH", "data/cmdb.sock"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("CMDB_DB_PATH is required")
	}
	if c.SocketPath == "" {
		return fmt.Errorf("CMDB_SOCKET_PATH is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
