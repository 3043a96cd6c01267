package ports

import (
	"context"

	"github.com/fredcamaral/slidecraft/internal/domain/entities"
)

// ConfigFiles reads and writes the slidecraft.toml layers. A layer that does
// not exist loads as nil.
type ConfigFiles interface {
	LoadGlobal(ctx context.Context) (*entities.Config, error)
	LoadLocal(ctx context.Context, dir string) (*entities.Config, error)
	CreateDefaults(ctx context.Context, path string) error
	GetGlobalPath() string
	GetLocalPath(dir string) string
}

// ConfigLayers folds configuration layers and applies overrides. Merge with
// no arguments returns the built-in defaults; later layers win.
type ConfigLayers interface {
	Merge(configs ...*entities.Config) *entities.Config
	ApplyEnvVars(config *entities.Config) *entities.Config
	ApplyFlags(config *entities.Config, flags map[string]interface{}) *entities.Config
}
