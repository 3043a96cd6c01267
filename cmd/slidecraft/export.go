package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fredcamaral/slidecraft/internal/adapters/secondary/export"
	"github.com/fredcamaral/slidecraft/internal/adapters/secondary/parser"
	"github.com/fredcamaral/slidecraft/internal/adapters/secondary/watcher"
	"github.com/fredcamaral/slidecraft/internal/domain/entities"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <deck.yaml|deck.json|deck.md>",
	Short: "Export a deck file to PDF, PNG images or PowerPoint",
	Long: `Export renders every slide of a deck file and writes the artifacts to
the output directory. Slides that fail to render are skipped and reported.

Example:
  slidecraft export deck.yaml
  slidecraft export deck.json --format pptx --output-dir out
  slidecraft export deck.yaml --format png --theme dark
  slidecraft export talk.md --watch`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("format", "f", "pdf", "Export format: pdf, png or pptx")
	exportCmd.Flags().StringP("output-dir", "o", "", "Directory for exported files (overrides config)")
	exportCmd.Flags().String("theme", "", "Theme for slides without their own colors")
	exportCmd.Flags().String("capturer", "", "Slide capturer: raster or browser (overrides config)")
	exportCmd.Flags().BoolP("watch", "w", false, "Export again whenever the deck file changes")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Logging, cmd.ErrOrStderr())

	formatName, _ := cmd.Flags().GetString("format")
	format, err := export.ParseFormat(strings.ToLower(formatName))
	if err != nil {
		return err
	}
	themeID, _ := cmd.Flags().GetString("theme")

	run := func() error {
		data, err := loadDeck(args[0])
		if err != nil {
			return err
		}
		presentation := newStore(logger).Create(data)

		result, err := exportDeck(cmd.Context(), &presentation, format, themeID, cfg.Pipeline, logger)
		if err != nil {
			return fmt.Errorf("exporting %s: %w", args[0], err)
		}
		printExportResult(cmd, result)
		return nil
	}

	if err := run(); err != nil {
		return err
	}
	if watch, _ := cmd.Flags().GetBool("watch"); !watch {
		return nil
	}

	poller := watcher.NewDeckPoller(500*time.Millisecond, time.Second, logger)
	defer poller.Stop()

	changes, err := poller.Watch(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	logger.Info("watching deck for changes", slog.String("path", args[0]))

	for change := range changes {
		if change.Removed {
			logger.Warn("deck file removed", slog.String("path", change.Path))
			continue
		}
		if err := run(); err != nil {
			logger.Error("re-export failed", slog.String("error", err.Error()))
		}
	}
	return nil
}

// loadDeck reads a deck description. JSON and markdown files are decoded by
// extension and everything else as YAML.
func loadDeck(path string) (entities.PresentationData, error) {
	var data entities.PresentationData

	raw, err := os.ReadFile(path) // #nosec G304 - path is the user's deck file
	if err != nil {
		return data, fmt.Errorf("reading deck: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(raw, &data)
	case ".md", ".markdown":
		data, err = parser.NewMarkdownDeck().Parse(raw)
	default:
		err = yaml.Unmarshal(raw, &data)
	}
	if err != nil {
		return data, fmt.Errorf("parsing deck %s: %w", path, err)
	}

	if strings.TrimSpace(data.Title) == "" {
		data.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return data, nil
}

func printExportResult(cmd *cobra.Command, result *export.ExportResult) {
	out := cmd.OutOrStdout()
	for _, file := range result.Files {
		_, _ = fmt.Fprintln(out, file)
	}
	_, _ = fmt.Fprintf(out, "exported %d slide(s) as %s in %s\n", result.Exported, result.Format, result.Duration)

	if result.Partial() {
		numbers := make([]string, len(result.Failed))
		for i, idx := range result.Failed {
			numbers[i] = fmt.Sprint(idx + 1)
		}
		_, _ = fmt.Fprintf(out, "skipped slide(s): %s\n", strings.Join(numbers, ", "))
	}
}
