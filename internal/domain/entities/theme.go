package entities

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// DefaultThemeID is used whenever no preference has been stored.
const DefaultThemeID = "modern"

// Theme describes the palette of a deck. The store treats a presentation's
// theme as an opaque id; rendering resolves it here.
type Theme struct {
	ID                 string   `json:"id" toml:"id"`
	Name               string   `json:"name" toml:"name"`
	PrimaryColor       string   `json:"primary_color" toml:"primary_color"`
	SecondaryColor     string   `json:"secondary_color" toml:"secondary_color"`
	AccentColor        string   `json:"accent_color" toml:"accent_color"`
	BackgroundColor    string   `json:"background_color" toml:"background_color"`
	TextColor          string   `json:"text_color" toml:"text_color"`
	FontFamily         string   `json:"font_family" toml:"font_family"`
	ImageStyleKeywords []string `json:"image_style_keywords,omitempty" toml:"image_style_keywords"`
}

const defaultFontFamily = "Inter, sans-serif"

var builtinThemes = map[string]Theme{
	"modern": {
		ID: "modern", Name: "Modern Blue",
		PrimaryColor: "#3b82f6", SecondaryColor: "#1e40af", AccentColor: "#60a5fa",
		BackgroundColor: "#ffffff", TextColor: "#1f2937", FontFamily: defaultFontFamily,
		ImageStyleKeywords: []string{"modern", "clean", "professional", "blue tones"},
	},
	"dark": {
		ID: "dark", Name: "Dark Professional",
		PrimaryColor: "#1f2937", SecondaryColor: "#374151", AccentColor: "#6b7280",
		BackgroundColor: "#111827", TextColor: "#f9fafb", FontFamily: defaultFontFamily,
		ImageStyleKeywords: []string{"dark", "sleek", "professional", "high contrast"},
	},
	"classic-dark": {
		ID: "classic-dark", Name: "Classic Dark",
		PrimaryColor: "#e5e7eb", SecondaryColor: "#9ca3af", AccentColor: "#f59e0b",
		BackgroundColor: "#000000", TextColor: "#f3f4f6", FontFamily: "Georgia, serif",
		ImageStyleKeywords: []string{"classic", "elegant", "dark background"},
	},
	"warm": {
		ID: "warm", Name: "Warm Sunset",
		PrimaryColor: "#f59e0b", SecondaryColor: "#d97706", AccentColor: "#fbbf24",
		BackgroundColor: "#fef3c7", TextColor: "#1f2937", FontFamily: defaultFontFamily,
		ImageStyleKeywords: []string{"warm", "sunset", "orange tones", "inviting"},
	},
	"corporate": {
		ID: "corporate", Name: "Corporate",
		PrimaryColor: "#1e40af", SecondaryColor: "#1e3a8a", AccentColor: "#3b82f6",
		BackgroundColor: "#f8fafc", TextColor: "#1e293b", FontFamily: defaultFontFamily,
		ImageStyleKeywords: []string{"corporate", "business", "formal", "navy"},
	},
	"creative": {
		ID: "creative", Name: "Creative Purple",
		PrimaryColor: "#8b5cf6", SecondaryColor: "#7c3aed", AccentColor: "#a78bfa",
		BackgroundColor: "#faf5ff", TextColor: "#1f2937", FontFamily: defaultFontFamily,
		ImageStyleKeywords: []string{"creative", "artistic", "vibrant", "purple"},
	},
}

// LookupTheme resolves a theme id. Unknown ids resolve to the default theme
// and ok is false.
func LookupTheme(id string) (Theme, bool) {
	if t, ok := builtinThemes[id]; ok {
		return t, true
	}
	return builtinThemes[DefaultThemeID], false
}

// IsKnownTheme reports whether id names a built-in theme.
func IsKnownTheme(id string) bool {
	_, ok := builtinThemes[id]
	return ok
}

// BuiltinThemes returns every built-in theme sorted by id.
func BuiltinThemes() []Theme {
	themes := make([]Theme, 0, len(builtinThemes))
	for _, t := range builtinThemes {
		themes = append(themes, t)
	}
	sort.Slice(themes, func(i, j int) bool { return themes[i].ID < themes[j].ID })
	return themes
}

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ErrInvalidTheme marks a custom theme the backend would reject.
var ErrInvalidTheme = errors.New("invalid theme")

// Validate checks a custom theme before it is sent to the backend. Every
// palette color must be #rgb or #rrggbb.
func (t Theme) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return NewInputError("name", fmt.Errorf("%w: name is required", ErrInvalidTheme))
	}
	colors := []struct{ field, value string }{
		{"primary_color", t.PrimaryColor},
		{"secondary_color", t.SecondaryColor},
		{"accent_color", t.AccentColor},
		{"background_color", t.BackgroundColor},
		{"text_color", t.TextColor},
	}
	for _, c := range colors {
		if !hexColor.MatchString(strings.TrimSpace(c.value)) {
			return NewInputError(c.field, fmt.Errorf("%w: %q is not a hex color", ErrInvalidTheme, c.value))
		}
	}
	return nil
}
