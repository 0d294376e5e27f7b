// Package config provides configuration for the concierge service.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the service configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Database
	DatabaseURL string

	// Model settings
	AnthropicAPIKey string
	AnthropicModel  string
	MaxEngineSteps  int

	// Food data provider
	ProviderBaseURL string
	ProviderTimeout time.Duration

	// Default delivery location when the client sends none
	DefaultLatitude  float64
	DefaultLongitude float64

	// Conversation memory
	MemoryWindow int

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		HTTPPort:         getEnvInt("HTTP_PORT", 8080),
		DatabaseURL:      getEnv("DATABASE_URL", "file:concierge.db?cache=shared&mode=rwc"),
		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:   getEnv("ANTHROPIC_MODEL", "claude-3-7-sonnet-20250219"),
		MaxEngineSteps:   getEnvInt("MAX_ENGINE_STEPS", 10),
		ProviderBaseURL:  getEnv("PROVIDER_BASE_URL", "https://www.swiggy.com/dapi"),
		ProviderTimeout:  time.Duration(getEnvInt("PROVIDER_TIMEOUT_MS", 15000)) * time.Millisecond,
		DefaultLatitude:  getEnvFloat("DEFAULT_LATITUDE", 12.9716),
		DefaultLongitude: getEnvFloat("DEFAULT_LONGITUDE", 77.5946),
		MemoryWindow:     getEnvInt("MEMORY_WINDOW", 10),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if floatVal, err := strconv.ParseFloat(val, 64); err == nil {
			return floatVal
		}
	}
	return defaultVal
}
