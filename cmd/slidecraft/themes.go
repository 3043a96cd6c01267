package main

import (
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fredcamaral/slidecraft/internal/adapters/secondary/gateway"
	"github.com/fredcamaral/slidecraft/internal/adapters/secondary/preferences"
	"github.com/fredcamaral/slidecraft/internal/domain/entities"
	"github.com/fredcamaral/slidecraft/internal/domain/services"
)

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List themes and the active one",
	Args:  cobra.NoArgs,
	RunE:  runThemesList,
}

var themesUseCmd = &cobra.Command{
	Use:   "use <theme-id>",
	Short: "Set the active theme",
	Args:  cobra.ExactArgs(1),
	RunE:  runThemesUse,
}

func init() {
	themesCmd.AddCommand(themesUseCmd)
	rootCmd.AddCommand(themesCmd)
}

func newThemeService(cmd *cobra.Command) (*services.ThemeService, *slog.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(cfg.Logging, cmd.ErrOrStderr())
	store := preferences.NewFileStore(cfg.Preferences.Path)
	return services.NewThemeService(store, gateway.New(cfg.Gateway, logger, nil), logger), logger, nil
}

func runThemesList(cmd *cobra.Command, args []string) error {
	themes, _, err := newThemeService(cmd)
	if err != nil {
		return err
	}

	active, err := themes.Load(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	for _, theme := range themes.ListThemes(cmd.Context()) {
		marker := " "
		if theme.ID == active {
			marker = "*"
		}
		_, _ = fmt.Fprintf(w, "%s %s\t%s\n", marker, theme.ID, theme.Name)
	}
	return w.Flush()
}

func runThemesUse(cmd *cobra.Command, args []string) error {
	themes, logger, err := newThemeService(cmd)
	if err != nil {
		return err
	}

	id := args[0]
	if _, ok := entities.LookupTheme(id); !ok {
		logger.Warn("theme is not built in; it must be offered by the backend", slog.String("theme", id))
	}
	if err := themes.Save(cmd.Context(), id); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "active theme: %s\n", id)
	return nil
}
