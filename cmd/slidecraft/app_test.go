package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fredcamaral/slidecraft/internal/adapters/secondary/export"
	"github.com/fredcamaral/slidecraft/internal/domain/entities"
	"github.com/fredcamaral/slidecraft/internal/domain/services"
)

func TestValidateServeConfig(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		config := &entities.Config{
			Server: entities.ServerConfig{Host: "localhost", Port: 3000},
		}
		require.NoError(t, validateServeConfig(config))
	})

	t.Run("invalid port - zero", func(t *testing.T) {
		config := &entities.Config{
			Server: entities.ServerConfig{Host: "localhost", Port: 0},
		}
		err := validateServeConfig(config)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid port number")
	})

	t.Run("invalid port - too high", func(t *testing.T) {
		config := &entities.Config{
			Server: entities.ServerConfig{Host: "localhost", Port: 70000},
		}
		err := validateServeConfig(config)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid port number")
	})

	t.Run("invalid host", func(t *testing.T) {
		config := &entities.Config{
			Server: entities.ServerConfig{Host: "local host", Port: 3000},
		}
		err := validateServeConfig(config)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid host")
	})
}

func TestLoadDeck(t *testing.T) {
	dir := t.TempDir()

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "deck.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`title: Quarterly Review
theme: dark
slides:
  - title: Revenue
    content: |
      Up 12%
      Margin steady
  - title: Outlook
    content: Cautious
    layout: title
`), 0600))

		data, err := loadDeck(path)
		require.NoError(t, err)
		assert.Equal(t, "Quarterly Review", data.Title)
		assert.Equal(t, "dark", data.Theme)
		require.Len(t, data.Slides, 2)
		assert.Equal(t, "Revenue", data.Slides[0].Title)
		assert.Equal(t, "Up 12%\nMargin steady\n", data.Slides[0].Content)
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "deck.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"title":"Launch","slides":[{"title":"Why","content":"Because"}]}`), 0600))

		data, err := loadDeck(path)
		require.NoError(t, err)
		assert.Equal(t, "Launch", data.Title)
		require.Len(t, data.Slides, 1)
		assert.Equal(t, "Because", data.Slides[0].Content)
	})

	t.Run("markdown", func(t *testing.T) {
		path := filepath.Join(dir, "talk.md")
		require.NoError(t, os.WriteFile(path, []byte("---\ntitle: Talk\n---\n# Hello\n\nWorld\n---\n# Bye\n"), 0600))

		data, err := loadDeck(path)
		require.NoError(t, err)
		assert.Equal(t, "Talk", data.Title)
		require.Len(t, data.Slides, 2)
		assert.Equal(t, "Hello", data.Slides[0].Title)
		assert.Equal(t, "World", data.Slides[0].Content)
	})

	t.Run("title defaults to file name", func(t *testing.T) {
		path := filepath.Join(dir, "roadmap.yml")
		require.NoError(t, os.WriteFile(path, []byte("slides:\n  - title: Q1\n"), 0600))

		data, err := loadDeck(path)
		require.NoError(t, err)
		assert.Equal(t, "roadmap", data.Title)
	})

	t.Run("invalid file", func(t *testing.T) {
		path := filepath.Join(dir, "broken.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"title":`), 0600))

		_, err := loadDeck(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing deck")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loadDeck(filepath.Join(dir, "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading deck")
	})
}

func TestNewLogger(t *testing.T) {
	t.Run("text at info", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(entities.LoggingConfig{}, &buf)

		logger.Debug("hidden")
		logger.Info("shown", slog.String("k", "v"))

		out := buf.String()
		assert.NotContains(t, out, "hidden")
		assert.Contains(t, out, "msg=shown")
		assert.Contains(t, out, "k=v")
	})

	t.Run("verbose forces debug", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(entities.LoggingConfig{Level: "error", Verbose: true}, &buf)

		logger.Debug("details")
		assert.Contains(t, buf.String(), "details")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(entities.LoggingConfig{Level: "warn", JSONFormat: true}, &buf)

		logger.Info("dropped")
		logger.Warn("kept")

		out := strings.TrimSpace(buf.String())
		assert.NotContains(t, out, "dropped")
		assert.Contains(t, out, `"msg":"kept"`)
		assert.Contains(t, out, `"level":"WARN"`)
	})
}

func TestCollectFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	cmd.Flags().IntP("port", "p", 0, "")
	cmd.Flags().String("host", "", "")
	cmd.Flags().Bool("open", false, "")
	cmd.Flags().String("model", "", "")
	cmd.Flags().String("unrelated", "", "")

	require.NoError(t, cmd.Flags().Parse([]string{"--port", "9090", "--open", "--unrelated", "x"}))

	flags := collectFlags(cmd)
	assert.Equal(t, map[string]interface{}{
		"port": 9090,
		"open": true,
	}, flags)
}

func testDeck() entities.PresentationData {
	return entities.PresentationData{
		Title: "Quarterly Review",
		Slides: []entities.Slide{
			{Title: "Revenue", Content: "Up 12%\nMargin steady"},
			{Title: "Outlook", Content: "Cautious"},
		},
	}
}

func TestExportDeck(t *testing.T) {
	logger := newLogger(entities.LoggingConfig{Level: "error"}, &bytes.Buffer{})
	settings := services.PipelineSettings{
		Capturer:     entities.CapturerRaster,
		Scale:        0.25,
		SlideTimeout: 10 * time.Second,
		Stagger:      time.Millisecond,
	}

	t.Run("pdf into directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "out")
		presentation := newStore(logger).Create(testDeck())
		cfg := settings
		cfg.SinkDir = dir

		result, err := exportDeck(context.Background(), &presentation, export.FormatPDF, "", cfg, logger)
		require.NoError(t, err)

		assert.Equal(t, 2, result.Exported)
		assert.False(t, result.Partial())
		require.Len(t, result.Files, 1)
		assert.Equal(t, "Quarterly_Review.pdf", filepath.Base(result.Files[0]))

		raw, err := os.ReadFile(filepath.Join(dir, "Quarterly_Review.pdf"))
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(raw, []byte("%PDF")))
	})

	t.Run("images with theme", func(t *testing.T) {
		presentation := newStore(logger).Create(testDeck())
		cfg := settings
		cfg.SinkDir = t.TempDir()

		result, err := exportDeck(context.Background(), &presentation, export.FormatImages, "dark", cfg, logger)
		require.NoError(t, err)
		assert.Len(t, result.Files, 2)
	})

	t.Run("unknown theme", func(t *testing.T) {
		presentation := newStore(logger).Create(testDeck())

		cfg := settings
		cfg.SinkDir = t.TempDir()

		_, err := exportDeck(context.Background(), &presentation, export.FormatPDF, "neon", cfg, logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown theme")
	})
}

func TestPrintExportResult(t *testing.T) {
	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	printExportResult(cmd, &export.ExportResult{
		Format:   export.FormatImages,
		Files:    []string{"out/a_slide_1.png", "out/a_slide_3.png"},
		Exported: 2,
		Failed:   []int{1},
		Duration: "1s",
	})

	out := buf.String()
	assert.Contains(t, out, "out/a_slide_1.png\n")
	assert.Contains(t, out, "exported 2 slide(s) as images in 1s")
	assert.Contains(t, out, "skipped slide(s): 2")
}

func TestWriteDeck(t *testing.T) {
	presentation := entities.Presentation{
		ID:     "p1",
		Title:  "Launch",
		Slides: []entities.Slide{{ID: "s1", Title: "Why", Content: "Because"}},
	}

	t.Run("stdout", func(t *testing.T) {
		cmd := &cobra.Command{}
		cmd.Flags().String("out", "", "")
		var buf bytes.Buffer
		cmd.SetOut(&buf)

		require.NoError(t, writeDeck(cmd, &presentation))
		assert.Contains(t, buf.String(), "title: Launch")
	})

	t.Run("file round trips through loadDeck", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "launch.yaml")
		cmd := &cobra.Command{}
		cmd.Flags().String("out", "", "")
		cmd.SetErr(&bytes.Buffer{})
		require.NoError(t, cmd.Flags().Set("out", path))

		require.NoError(t, writeDeck(cmd, &presentation))

		data, err := loadDeck(path)
		require.NoError(t, err)
		assert.Equal(t, "Launch", data.Title)
		require.Len(t, data.Slides, 1)
		assert.Equal(t, "Because", data.Slides[0].Content)
	})
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"serve"},
		{"export"},
		{"generate"},
		{"themes"},
		{"themes", "use"},
		{"config", "init"},
		{"config", "show"},
	} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, strings.Join(path, " "))
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestPrintSettings(t *testing.T) {
	settings := &services.Settings{
		Config: &entities.Config{
			Gateway: entities.GatewayConfig{BaseURL: "http://localhost:8000", MaxAttempts: 3},
		},
		Sources:  []string{"defaults", "/work/slidecraft.toml"},
		Pipeline: services.PipelineSettings{SinkDir: "/work/exports"},
	}

	var buf bytes.Buffer
	require.NoError(t, printSettings(&buf, settings))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "# layer: defaults\n# layer: /work/slidecraft.toml\n"))
	assert.Contains(t, out, "# export sink: /work/exports")
	assert.Contains(t, out, "[gateway]")
	assert.Contains(t, out, `base_url = "http://localhost:8000"`)
	assert.NotContains(t, out, "Sources")
}
