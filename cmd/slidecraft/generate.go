package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fredcamaral/slidecraft/internal/adapters/secondary/export"
	"github.com/fredcamaral/slidecraft/internal/adapters/secondary/gateway"
	"github.com/fredcamaral/slidecraft/internal/adapters/secondary/preferences"
	"github.com/fredcamaral/slidecraft/internal/domain/entities"
	"github.com/fredcamaral/slidecraft/internal/domain/services"
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate <prompt>",
	Short: "Generate a deck from a prompt",
	Long: `Generate asks the backend for a presentation about the prompt and
writes it as YAML. With --fallback a local placeholder deck is produced
when the backend is unavailable.

Example:
  slidecraft generate "Solar energy for homeowners"
  slidecraft generate "Quarterly review" --out review.yaml --export pdf`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().String("model", "", "Generation model (overrides config)")
	generateCmd.Flags().Bool("fallback", false, "Create a placeholder deck when generation fails")
	generateCmd.Flags().String("out", "", "Write the deck to this file instead of stdout")
	generateCmd.Flags().String("export", "", "Also export the deck: pdf, png or pptx")
	generateCmd.Flags().StringP("output-dir", "o", "", "Directory for exported files (overrides config)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Logging, cmd.ErrOrStderr())
	ctx := cmd.Context()

	prompt := strings.Join(args, " ")
	client := gateway.New(cfg.Gateway, logger, nil)
	presentations := services.NewPresentationService(newStore(logger), client,
		services.PresentationServiceConfig{
			DefaultModel:  cfg.Gateway.DefaultModel,
			DefaultTheme:  entities.DefaultThemeID,
			Themes:        services.NewThemeService(preferences.NewFileStore(cfg.Preferences.Path), client, logger),
			MaxUploadSize: cfg.Gateway.GetMaxUploadSize(),
		}, logger)

	presentation, err := presentations.GenerateFromPrompt(ctx, prompt, cfg.Gateway.DefaultModel)
	if err != nil {
		fallback, _ := cmd.Flags().GetBool("fallback")
		if !fallback || entities.IsInputError(err) {
			return fmt.Errorf("generating presentation: %w", err)
		}
		logger.Warn("generation failed, using fallback deck", slog.String("error", err.Error()))
		if presentation, err = presentations.CreateFallback(ctx, prompt); err != nil {
			return err
		}
	}

	if err := writeDeck(cmd, &presentation); err != nil {
		return err
	}

	formatName, _ := cmd.Flags().GetString("export")
	if formatName == "" {
		return nil
	}
	format, err := export.ParseFormat(strings.ToLower(formatName))
	if err != nil {
		return err
	}
	result, err := exportDeck(ctx, &presentation, format, "", cfg.Pipeline, logger)
	if err != nil {
		return fmt.Errorf("exporting generated deck: %w", err)
	}
	printExportResult(cmd, result)
	return nil
}

// writeDeck encodes the deck as YAML to --out or stdout.
func writeDeck(cmd *cobra.Command, presentation *entities.Presentation) error {
	raw, err := yaml.Marshal(presentation)
	if err != nil {
		return fmt.Errorf("encoding deck: %w", err)
	}

	path, _ := cmd.Flags().GetString("out")
	if path == "" {
		_, err = cmd.OutOrStdout().Write(raw)
		return err
	}
	if err := os.WriteFile(path, raw, 0600); err != nil {
		return fmt.Errorf("writing deck: %w", err)
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "deck written to %s\n", path)
	return nil
}
