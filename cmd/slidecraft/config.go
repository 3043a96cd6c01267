package main

import (
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/fredcamaral/slidecraft/internal/domain/services"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or initialise configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default global configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := settingsService(cmd).InitGlobal(cmd.Context())
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "configuration written to %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration and where it came from",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return printSettings(cmd.OutOrStdout(), settings)
	},
}

func init() {
	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}

// printSettings writes the layer list as TOML comments followed by the
// effective configuration.
func printSettings(w io.Writer, settings *services.Settings) error {
	for _, source := range settings.Sources {
		if _, err := fmt.Fprintf(w, "# layer: %s\n", source); err != nil {
			return err
		}
	}
	_, _ = fmt.Fprintf(w, "# export sink: %s\n\n", settings.Pipeline.SinkDir)

	encoder := toml.NewEncoder(w)
	encoder.Indent = "  "
	return encoder.Encode(settings.Config)
}
