package entities

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLayout_Normalize(t *testing.T) {
	tests := []struct {
		name   string
		layout Layout
		want   Layout
	}{
		{name: "known layout", layout: LayoutTwoColumn, want: LayoutTwoColumn},
		{name: "stats grid", layout: LayoutStatsGrid, want: LayoutStatsGrid},
		{name: "empty falls back", layout: "", want: LayoutLeft},
		{name: "unknown falls back", layout: "diagonal", want: LayoutLeft},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.layout.Normalize())
		})
	}
}

func TestSlide_WithDefaults(t *testing.T) {
	t.Run("fills empty fields", func(t *testing.T) {
		s := Slide{Title: "Hello"}.WithDefaults()

		assert.Equal(t, DefaultBackgroundColor, s.BackgroundColor)
		assert.Equal(t, DefaultTextColor, s.TextColor)
		assert.Equal(t, LayoutLeft, s.Layout)
		assert.Equal(t, AlignLeft, s.TextAlign)
		assert.Equal(t, SlideTypeContent, s.Type)
	})

	t.Run("keeps explicit values", func(t *testing.T) {
		s := Slide{BackgroundColor: "#000000", TextColor: "#ffffff", Layout: LayoutCenter, TextAlign: AlignRight}.WithDefaults()

		assert.Equal(t, "#000000", s.BackgroundColor)
		assert.Equal(t, "#ffffff", s.TextColor)
		assert.Equal(t, LayoutCenter, s.Layout)
		assert.Equal(t, AlignRight, s.TextAlign)
	})
}

func TestSlide_Visual(t *testing.T) {
	tests := []struct {
		name  string
		slide Slide
		want  string
	}{
		{name: "none", slide: Slide{}, want: ""},
		{name: "image only", slide: Slide{ImageURL: "https://img/a.png"}, want: "https://img/a.png"},
		{name: "chart wins", slide: Slide{ImageURL: "https://img/a.png", ChartURL: "https://img/c.png"}, want: "https://img/c.png"},
		{name: "placeholder ignored", slide: Slide{ImageURL: "https://via.placeholder.com/800"}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.slide.Visual())
		})
	}
}

func TestSlide_Lines(t *testing.T) {
	s := Slide{Content: "first\n\n  second  \n\t\nthird"}
	assert.Equal(t, []string{"first", "second", "third"}, s.Lines())
	assert.Nil(t, Slide{}.Lines())
}

func TestSlide_DisplayTitle(t *testing.T) {
	assert.Equal(t, "Intro", Slide{Title: "Intro"}.DisplayTitle(0))
	assert.Equal(t, "Slide 3", Slide{Title: "  "}.DisplayTitle(2))
}

func TestParseHexColor(t *testing.T) {
	fallback := color.RGBA{1, 2, 3, 255}

	assert.Equal(t, color.RGBA{0x1f, 0x29, 0x37, 0xff}, ParseHexColor("#1f2937", fallback))
	assert.Equal(t, color.RGBA{0xff, 0xff, 0xff, 0xff}, ParseHexColor("fff", fallback))
	assert.Equal(t, fallback, ParseHexColor("#zzzzzz", fallback))
	assert.Equal(t, fallback, ParseHexColor("", fallback))
}

func TestHexToARGB(t *testing.T) {
	assert.Equal(t, "FF1F2937", HexToARGB("#1f2937", "#ffffff"))
	assert.Equal(t, "FFFFFFFF", HexToARGB("bogus", "#ffffff"))
	assert.Equal(t, "FF0A0B0C", HexToARGB("#0a0b0c", "#ffffff"))
}
