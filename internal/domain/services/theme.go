package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/fredcamaral/slidecraft/internal/domain/entities"
	"github.com/fredcamaral/slidecraft/internal/domain/ports"
)

// ActiveThemeKey is the preference key holding the selected theme id.
const ActiveThemeKey = "active_theme"

// ThemeService manages the active theme preference and the theme catalogue.
type ThemeService struct {
	prefs   ports.PreferenceStore
	gateway ports.Gateway
	logger  *slog.Logger
}

// NewThemeService creates a new theme service. gateway may be nil, in which
// case only the built-in themes are listed.
func NewThemeService(prefs ports.PreferenceStore, gateway ports.Gateway, logger *slog.Logger) *ThemeService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ThemeService{
		prefs:   prefs,
		gateway: gateway,
		logger:  logger,
	}
}

// Load returns the persisted theme id, or the default theme when nothing
// has been stored yet.
func (s *ThemeService) Load(ctx context.Context) (string, error) {
	id, ok, err := s.prefs.Get(ctx, ActiveThemeKey)
	if err != nil {
		return "", fmt.Errorf("loading theme preference: %w", err)
	}
	if !ok || strings.TrimSpace(id) == "" {
		return entities.DefaultThemeID, nil
	}
	return id, nil
}

// Save persists id as the active theme.
func (s *ThemeService) Save(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return entities.NewInputError("theme", fmt.Errorf("theme id is required"))
	}
	if err := s.prefs.Set(ctx, ActiveThemeKey, id); err != nil {
		return fmt.Errorf("saving theme preference: %w", err)
	}
	s.logger.Info("active theme changed", slog.String("theme", id))
	return nil
}

// Active resolves the active theme.
func (s *ThemeService) Active(ctx context.Context) (entities.Theme, error) {
	id, err := s.Load(ctx)
	if err != nil {
		return entities.Theme{}, err
	}
	theme, _ := entities.LookupTheme(id)
	return theme, nil
}

// ListThemes returns the built-in themes merged with any the backend
// offers. Built-ins win on id clashes. A backend failure is logged and the
// built-ins are returned alone.
func (s *ThemeService) ListThemes(ctx context.Context) []entities.Theme {
	themes := entities.BuiltinThemes()
	if s.gateway == nil {
		return themes
	}

	remote, err := s.gateway.Themes(ctx)
	if err != nil {
		s.logger.Warn("listing backend themes failed", slog.String("error", err.Error()))
		return themes
	}

	seen := make(map[string]bool, len(themes))
	for _, t := range themes {
		seen[t.ID] = true
	}
	for _, t := range remote {
		if t.ID == "" || seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		themes = append(themes, t)
	}

	sort.Slice(themes, func(i, j int) bool { return themes[i].ID < themes[j].ID })
	return themes
}

// CreateTheme validates a custom theme and registers it with the backend.
// The returned theme carries the id the backend assigned.
func (s *ThemeService) CreateTheme(ctx context.Context, theme entities.Theme) (entities.Theme, error) {
	theme.Name = strings.TrimSpace(theme.Name)
	if theme.FontFamily == "" {
		theme.FontFamily = "Inter, sans-serif"
	}
	if err := theme.Validate(); err != nil {
		return entities.Theme{}, err
	}
	if s.gateway == nil {
		return entities.Theme{}, errors.New("no backend configured for custom themes")
	}

	id, err := s.gateway.CreateTheme(ctx, theme)
	if err != nil {
		return entities.Theme{}, fmt.Errorf("creating theme %q: %w", theme.Name, err)
	}
	if id == "" {
		id = strings.ToLower(strings.Join(strings.Fields(theme.Name), "-"))
	}
	theme.ID = id

	s.logger.Info("custom theme created", slog.String("theme", id))
	return theme, nil
}
