package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	APIBaseURL  string
	StateDir    string
	HTTPTimeout time.Duration
	// Redis Configuration - empty means the local SQLite store is used
	RedisURL string
}

func Load() Config {
	return Config{
		APIBaseURL:  getenv("LEXATLAS_API_URL", "http://localhost:8080"),
		StateDir:    getenv("LEXATLAS_STATE_DIR", defaultStateDir()),
		HTTPTimeout: time.Duration(getenvInt("LEXATLAS_HTTP_TIMEOUT_SECONDS", 15)) * time.Second,
		RedisURL:    getenv("LEXATLAS_REDIS_URL", ""),
	}
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".lexatlas"
	}
	return filepath.Join(home, ".lexatlas")
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
