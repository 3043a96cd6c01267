package entities

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Server      ServerConfig      `toml:"server"`
	Gateway     GatewayConfig     `toml:"gateway"`
	Export      ExportConfig      `toml:"export"`
	Preferences PreferencesConfig `toml:"preferences"`
	Browser     BrowserConfig     `toml:"browser"`
	Logging     LoggingConfig     `toml:"logging"`
}

// Validate validates the entire configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Gateway.Validate(); err != nil {
		return fmt.Errorf("gateway config: %w", err)
	}

	if err := c.Export.Validate(); err != nil {
		return fmt.Errorf("export config: %w", err)
	}

	if err := c.Preferences.Validate(); err != nil {
		return fmt.Errorf("preferences config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string   `toml:"host"`
	Port            int      `toml:"port"`
	ReadTimeout     int      `toml:"read_timeout"`
	WriteTimeout    int      `toml:"write_timeout"`
	ShutdownTimeout int      `toml:"shutdown_timeout"`
	Environment     string   `toml:"environment"`
	CORSOrigins     []string `toml:"cors_origins"`
}

// Validate validates server configuration
func (s ServerConfig) Validate() error {
	if s.Port < 0 || s.Port > 65535 {
		return errors.New("port must be between 0 and 65535")
	}

	if s.Host != "" && s.Host != "localhost" {
		if ip := net.ParseIP(s.Host); ip == nil {
			return fmt.Errorf("invalid host: %s", s.Host)
		}
	}

	if s.ReadTimeout < 0 || s.WriteTimeout < 0 || s.ShutdownTimeout < 0 {
		return errors.New("timeouts must be non-negative")
	}

	for _, origin := range s.CORSOrigins {
		if origin == "" {
			return errors.New("CORS origin cannot be empty")
		}
		if origin == "*" {
			continue
		}
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("invalid CORS origin format: %s (must start with http:// or https://)", origin)
		}
	}

	return nil
}

// GetReadTimeout returns the read timeout as a duration
func (s ServerConfig) GetReadTimeout() time.Duration {
	if s.ReadTimeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.ReadTimeout) * time.Second
}

// GetWriteTimeout returns the write timeout as a duration. Exports stream
// whole decks, so the default is generous.
func (s ServerConfig) GetWriteTimeout() time.Duration {
	if s.WriteTimeout <= 0 {
		return 120 * time.Second
	}
	return time.Duration(s.WriteTimeout) * time.Second
}

// GetShutdownTimeout returns the shutdown timeout as a duration
func (s ServerConfig) GetShutdownTimeout() time.Duration {
	if s.ShutdownTimeout <= 0 {
		return 5 * time.Second
	}
	return time.Duration(s.ShutdownTimeout) * time.Second
}

// GetCORSOrigins returns CORS origins with defaults if empty
func (s ServerConfig) GetCORSOrigins() []string {
	if len(s.CORSOrigins) == 0 {
		return []string{
			"http://localhost:3000",
			"http://127.0.0.1:3000",
			"http://localhost:5173",
			"http://127.0.0.1:5173",
		}
	}
	return s.CORSOrigins
}

// IsDevelopment returns true if the server is running in development mode
func (s ServerConfig) IsDevelopment() bool {
	return s.Environment == "development" || s.Environment == ""
}

// GatewayConfig configures the client for the remote generation backend.
type GatewayConfig struct {
	BaseURL       string `toml:"base_url"`
	TimeoutSec    int    `toml:"timeout"`
	MaxAttempts   int    `toml:"max_attempts"`
	BackoffMs     int    `toml:"backoff_ms"`
	DefaultModel  string `toml:"default_model"`
	MaxUploadSize int64  `toml:"max_upload_size"`
}

// Validate validates gateway configuration
func (g GatewayConfig) Validate() error {
	if g.BaseURL != "" {
		u, err := url.Parse(g.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("base URL must start with http:// or https://: %s", g.BaseURL)
		}
	}

	if g.MaxAttempts < 0 {
		return errors.New("max attempts must be non-negative")
	}

	if g.BackoffMs < 0 || g.TimeoutSec < 0 {
		return errors.New("backoff and timeout must be non-negative")
	}

	if g.MaxUploadSize < 0 {
		return errors.New("max upload size must be non-negative")
	}

	return nil
}

// GetTimeout returns the per-request timeout
func (g GatewayConfig) GetTimeout() time.Duration {
	if g.TimeoutSec <= 0 {
		return 90 * time.Second
	}
	return time.Duration(g.TimeoutSec) * time.Second
}

// GetMaxAttempts returns the attempt ceiling including the first try
func (g GatewayConfig) GetMaxAttempts() int {
	if g.MaxAttempts <= 0 {
		return 3
	}
	return g.MaxAttempts
}

// GetBackoff returns the linear backoff step
func (g GatewayConfig) GetBackoff() time.Duration {
	if g.BackoffMs <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(g.BackoffMs) * time.Millisecond
}

// GetMaxUploadSize returns the document size limit in bytes (20 MiB default)
func (g GatewayConfig) GetMaxUploadSize() int64 {
	if g.MaxUploadSize <= 0 {
		return 20 << 20
	}
	return g.MaxUploadSize
}

// ExportConfig controls the rasterisation and export pipeline.
type ExportConfig struct {
	OutputDir      string  `toml:"output_dir"`
	Capturer       string  `toml:"capturer"` // raster or browser
	Scale          float64 `toml:"scale"`
	SlideTimeoutMs int     `toml:"slide_timeout_ms"`
	StaggerMs      int     `toml:"stagger_ms"`
	ChromePath     string  `toml:"chrome_path"`
}

// Capturer names accepted by ExportConfig.Capturer.
const (
	CapturerRaster  = "raster"
	CapturerBrowser = "browser"
)

// Validate validates export configuration
func (e ExportConfig) Validate() error {
	switch e.Capturer {
	case "", CapturerRaster, CapturerBrowser:
	default:
		return fmt.Errorf("invalid capturer: %s (must be raster or browser)", e.Capturer)
	}

	if e.Scale < 0 || e.Scale > 4 {
		return errors.New("scale must be between 0 and 4")
	}

	if e.SlideTimeoutMs < 0 || e.StaggerMs < 0 {
		return errors.New("timeouts must be non-negative")
	}

	return nil
}

// GetScale returns the capture scale factor
func (e ExportConfig) GetScale() float64 {
	if e.Scale <= 0 {
		return 2
	}
	return e.Scale
}

// GetSlideTimeout returns the per-slide capture timeout
func (e ExportConfig) GetSlideTimeout() time.Duration {
	if e.SlideTimeoutMs <= 0 {
		return 15 * time.Second
	}
	return time.Duration(e.SlideTimeoutMs) * time.Millisecond
}

// GetStagger returns the delay between consecutive image artifact writes
func (e ExportConfig) GetStagger() time.Duration {
	if e.StaggerMs <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(e.StaggerMs) * time.Millisecond
}

// GetOutputDir returns the export directory
func (e ExportConfig) GetOutputDir() string {
	if e.OutputDir == "" {
		return "exports"
	}
	return e.OutputDir
}

// PreferencesConfig locates the durable preference file.
type PreferencesConfig struct {
	Path string `toml:"path"`
}

// Validate validates preferences configuration
func (p PreferencesConfig) Validate() error {
	if p.Path != "" && !filepath.IsAbs(p.Path) {
		return errors.New("preferences path must be absolute")
	}
	return nil
}

// BrowserConfig contains browser launch configuration
type BrowserConfig struct {
	AutoOpen bool   `toml:"auto_open"`
	Browser  string `toml:"browser"`
}

// LogLevel represents logging level
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `toml:"level"`       // debug, info, warn, error
	Verbose    bool   `toml:"verbose"`     // Enable verbose logging
	JSONFormat bool   `toml:"json_format"` // Output logs in JSON format
}

// Validate validates logging configuration
func (l LoggingConfig) Validate() error {
	switch LogLevel(l.Level) {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	case "":
		// Empty is okay, will use default
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", l.Level)
	}
	return nil
}

// GetLevel returns the log level with default
func (l LoggingConfig) GetLevel() LogLevel {
	if l.Level == "" {
		return LogLevelInfo
	}
	return LogLevel(l.Level)
}
