package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/fredcamaral/slidecraft/internal/domain/entities"
	"github.com/fredcamaral/slidecraft/internal/domain/ports"
)

// LocalConfigName is the per-project config file looked up in the working directory.
const LocalConfigName = "slidecraft.toml"

// TOMLLoader reads the global and per-project TOML configuration files.
type TOMLLoader struct {
	globalPath string
	localName  string
}

// NewTOMLLoader creates a loader rooted at ~/.config/slidecraft
func NewTOMLLoader() *TOMLLoader {
	return NewTOMLLoaderWithPath(DefaultGlobalPath())
}

// NewTOMLLoaderWithPath creates a loader with an explicit global config path
func NewTOMLLoaderWithPath(globalPath string) *TOMLLoader {
	return &TOMLLoader{
		globalPath: globalPath,
		localName:  LocalConfigName,
	}
}

// DefaultGlobalPath returns ~/.config/slidecraft/config.toml
func DefaultGlobalPath() string {
	return filepath.Join(configDir(), "config.toml")
}

func configDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		homeDir = os.TempDir()
	}
	return filepath.Join(homeDir, ".config", "slidecraft")
}

// LoadGlobal loads the global configuration file, writing defaults on first run
func (l *TOMLLoader) LoadGlobal(ctx context.Context) (*entities.Config, error) {
	if _, err := os.Stat(l.globalPath); os.IsNotExist(err) {
		if err := l.CreateDefaults(ctx, l.globalPath); err != nil {
			return nil, fmt.Errorf("creating defaults: %w", err)
		}
	}

	return l.loadConfig(l.globalPath)
}

// LoadLocal loads a local configuration file from the specified directory.
// A missing file is not an error.
func (l *TOMLLoader) LoadLocal(ctx context.Context, dir string) (*entities.Config, error) {
	localPath := l.GetLocalPath(dir)

	if _, err := os.Stat(localPath); os.IsNotExist(err) {
		return nil, nil
	}

	return l.loadConfig(localPath)
}

// CreateDefaults creates a default configuration file at the specified path
func (l *TOMLLoader) CreateDefaults(ctx context.Context, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("creating directory %s: %w", filepath.Dir(path), err)
	}

	file, err := os.Create(path) // #nosec G304 - path is controlled (global config path)
	if err != nil {
		return fmt.Errorf("creating config file %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	encoder := toml.NewEncoder(file)
	encoder.Indent = "  "

	if err := encoder.Encode(GetDefaultConfig()); err != nil {
		return fmt.Errorf("encoding config to %s: %w", path, err)
	}

	return nil
}

// GetGlobalPath returns the path to the global configuration file
func (l *TOMLLoader) GetGlobalPath() string {
	return l.globalPath
}

// GetLocalPath returns the path to the local configuration file for a directory
func (l *TOMLLoader) GetLocalPath(dir string) string {
	return filepath.Join(dir, l.localName)
}

func (l *TOMLLoader) loadConfig(path string) (*entities.Config, error) {
	var config entities.Config
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("parsing TOML from %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config in %s: %w", path, err)
	}

	return &config, nil
}

var _ ports.ConfigFiles = (*TOMLLoader)(nil)
