package config

import (
	"os"
	"strconv"

	"github.com/fredcamaral/slidecraft/internal/domain/entities"
	"github.com/fredcamaral/slidecraft/internal/domain/ports"
)

// ConfigMerger layers defaults, files, environment and flags.
type ConfigMerger struct{}

// NewConfigMerger creates a new configuration merger
func NewConfigMerger() *ConfigMerger {
	return &ConfigMerger{}
}

// Merge merges multiple configurations with later configs taking precedence.
// With no arguments it returns the defaults.
func (m *ConfigMerger) Merge(configs ...*entities.Config) *entities.Config {
	if len(configs) == 0 {
		return GetDefaultConfig()
	}

	result := deepCopy(configs[0])
	for i := 1; i < len(configs); i++ {
		if configs[i] != nil {
			m.mergeInto(result, configs[i])
		}
	}

	return result
}

// ApplyFlags applies CLI flag overrides to a configuration
func (m *ConfigMerger) ApplyFlags(config *entities.Config, flags map[string]interface{}) *entities.Config {
	result := deepCopy(config)

	if port, ok := flags["port"].(int); ok && port > 0 {
		result.Server.Port = port
	}
	if host, ok := flags["host"].(string); ok && host != "" {
		result.Server.Host = host
	}
	if open, ok := flags["open"].(bool); ok {
		result.Browser.AutoOpen = open
	}
	if backend, ok := flags["backend-url"].(string); ok && backend != "" {
		result.Gateway.BaseURL = backend
	}
	if model, ok := flags["model"].(string); ok && model != "" {
		result.Gateway.DefaultModel = model
	}
	if capturer, ok := flags["capturer"].(string); ok && capturer != "" {
		result.Export.Capturer = capturer
	}
	if output, ok := flags["output-dir"].(string); ok && output != "" {
		result.Export.OutputDir = output
	}
	if verbose, ok := flags["verbose"].(bool); ok && verbose {
		result.Logging.Verbose = true
		result.Logging.Level = string(entities.LogLevelDebug)
	}

	return result
}

// ApplyEnvVars applies environment variable overrides to a configuration
func (m *ConfigMerger) ApplyEnvVars(config *entities.Config) *entities.Config {
	result := deepCopy(config)

	if host := os.Getenv("SLIDECRAFT_HOST"); host != "" {
		result.Server.Host = host
	}
	if portStr := os.Getenv("SLIDECRAFT_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			result.Server.Port = port
		}
	}
	if backend := os.Getenv("SLIDECRAFT_BACKEND_URL"); backend != "" {
		result.Gateway.BaseURL = backend
	}
	if model := os.Getenv("SLIDECRAFT_MODEL"); model != "" {
		result.Gateway.DefaultModel = model
	}
	if attemptsStr := os.Getenv("SLIDECRAFT_MAX_ATTEMPTS"); attemptsStr != "" {
		if attempts, err := strconv.Atoi(attemptsStr); err == nil && attempts > 0 {
			result.Gateway.MaxAttempts = attempts
		}
	}
	if capturer := os.Getenv("SLIDECRAFT_CAPTURER"); capturer != "" {
		result.Export.Capturer = capturer
	}
	if chrome := os.Getenv("SLIDECRAFT_CHROME_PATH"); chrome != "" {
		result.Export.ChromePath = chrome
	}
	if prefs := os.Getenv("SLIDECRAFT_PREFERENCES"); prefs != "" {
		result.Preferences.Path = prefs
	}
	if level := os.Getenv("SLIDECRAFT_LOG_LEVEL"); level != "" {
		result.Logging.Level = level
	}
	if jsonStr := os.Getenv("SLIDECRAFT_LOG_JSON"); jsonStr != "" {
		if asJSON, err := strconv.ParseBool(jsonStr); err == nil {
			result.Logging.JSONFormat = asJSON
		}
	}

	return result
}

// mergeInto merges non-zero fields of source into target
func (m *ConfigMerger) mergeInto(target, source *entities.Config) {
	if source.Server.Port != 0 {
		target.Server.Port = source.Server.Port
	}
	if source.Server.Host != "" {
		target.Server.Host = source.Server.Host
	}
	if source.Server.ReadTimeout != 0 {
		target.Server.ReadTimeout = source.Server.ReadTimeout
	}
	if source.Server.WriteTimeout != 0 {
		target.Server.WriteTimeout = source.Server.WriteTimeout
	}
	if source.Server.ShutdownTimeout != 0 {
		target.Server.ShutdownTimeout = source.Server.ShutdownTimeout
	}
	if source.Server.Environment != "" {
		target.Server.Environment = source.Server.Environment
	}
	if len(source.Server.CORSOrigins) > 0 {
		target.Server.CORSOrigins = append([]string(nil), source.Server.CORSOrigins...)
	}

	if source.Gateway.BaseURL != "" {
		target.Gateway.BaseURL = source.Gateway.BaseURL
	}
	if source.Gateway.TimeoutSec != 0 {
		target.Gateway.TimeoutSec = source.Gateway.TimeoutSec
	}
	if source.Gateway.MaxAttempts != 0 {
		target.Gateway.MaxAttempts = source.Gateway.MaxAttempts
	}
	if source.Gateway.BackoffMs != 0 {
		target.Gateway.BackoffMs = source.Gateway.BackoffMs
	}
	if source.Gateway.DefaultModel != "" {
		target.Gateway.DefaultModel = source.Gateway.DefaultModel
	}
	if source.Gateway.MaxUploadSize != 0 {
		target.Gateway.MaxUploadSize = source.Gateway.MaxUploadSize
	}

	if source.Export.OutputDir != "" {
		target.Export.OutputDir = source.Export.OutputDir
	}
	if source.Export.Capturer != "" {
		target.Export.Capturer = source.Export.Capturer
	}
	if source.Export.Scale != 0 {
		target.Export.Scale = source.Export.Scale
	}
	if source.Export.SlideTimeoutMs != 0 {
		target.Export.SlideTimeoutMs = source.Export.SlideTimeoutMs
	}
	if source.Export.StaggerMs != 0 {
		target.Export.StaggerMs = source.Export.StaggerMs
	}
	if source.Export.ChromePath != "" {
		target.Export.ChromePath = source.Export.ChromePath
	}

	if source.Preferences.Path != "" {
		target.Preferences.Path = source.Preferences.Path
	}

	if source.Browser.Browser != "" {
		target.Browser.Browser = source.Browser.Browser
	}
	// TOML cannot distinguish false from unset, so booleans always merge
	target.Browser.AutoOpen = source.Browser.AutoOpen

	if source.Logging.Level != "" {
		target.Logging.Level = source.Logging.Level
	}
	target.Logging.Verbose = source.Logging.Verbose
	target.Logging.JSONFormat = source.Logging.JSONFormat
}

// deepCopy creates a deep copy of a configuration
func deepCopy(src *entities.Config) *entities.Config {
	if src == nil {
		return nil
	}

	dst := *src
	if src.Server.CORSOrigins != nil {
		dst.Server.CORSOrigins = append([]string(nil), src.Server.CORSOrigins...)
	}
	return &dst
}

var _ ports.ConfigLayers = (*ConfigMerger)(nil)
