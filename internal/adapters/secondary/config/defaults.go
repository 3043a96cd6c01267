package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fredcamaral/slidecraft/internal/domain/entities"
)

// GetDefaultConfig returns the default configuration with environment overrides
func GetDefaultConfig() *entities.Config {
	return &entities.Config{
		Server: entities.ServerConfig{
			Host:            getEnvOrDefault("SLIDECRAFT_HOST", "localhost"),
			Port:            getEnvIntOrDefault("SLIDECRAFT_PORT", 8080),
			ReadTimeout:     30,
			WriteTimeout:    120,
			ShutdownTimeout: 5,
			Environment:     getEnvOrDefault("SLIDECRAFT_ENV", "development"),
			CORSOrigins: getEnvSliceOrDefault("SLIDECRAFT_CORS_ORIGINS", []string{
				"http://localhost:3000",
				"http://127.0.0.1:3000",
				"http://localhost:5173",
				"http://127.0.0.1:5173",
			}),
		},
		Gateway: entities.GatewayConfig{
			BaseURL:       getEnvOrDefault("SLIDECRAFT_BACKEND_URL", "http://localhost:8000"),
			TimeoutSec:    90,
			MaxAttempts:   3,
			BackoffMs:     500,
			DefaultModel:  getEnvOrDefault("SLIDECRAFT_MODEL", ""),
			MaxUploadSize: 20 << 20,
		},
		Export: entities.ExportConfig{
			OutputDir:      "exports",
			Capturer:       entities.CapturerRaster,
			Scale:          2,
			SlideTimeoutMs: 15000,
			StaggerMs:      100,
		},
		Preferences: entities.PreferencesConfig{
			Path: filepath.Join(configDir(), "preferences.toml"),
		},
		Browser: entities.BrowserConfig{
			AutoOpen: false,
			Browser:  "default",
		},
		Logging: entities.LoggingConfig{
			Level:      getEnvOrDefault("SLIDECRAFT_LOG_LEVEL", "info"),
			Verbose:    getEnvBoolOrDefault("SLIDECRAFT_LOG_VERBOSE", false),
			JSONFormat: getEnvBoolOrDefault("SLIDECRAFT_LOG_JSON", false),
		},
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvSliceOrDefault splits a comma separated variable
func getEnvSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}
