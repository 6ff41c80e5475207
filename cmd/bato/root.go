package cmd

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/PratikshaDPai/bato-downloader/pkg/config"
)

var settingsPath string

var rootCmd = &cobra.Command{
	Use:   "bato",
	Short: "A batch manga downloader for bato.to",
	Long:  "Download whole series from bato.to, package chapters as CBZ or EPUB, and retry whatever failed",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Optional .env for ad-hoc overrides of the settings file location.
		godotenv.Load()
		if settingsPath == "" {
			settingsPath = os.Getenv("BATO_SETTINGS")
		}
		if settingsPath == "" {
			homeDir, _ := os.UserHomeDir()
			settingsPath = filepath.Join(homeDir, ".config", "bato", "settings.json")
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "", "Path to settings file (default ~/.config/bato/settings.json)")

	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(retryCmd)
	rootCmd.AddCommand(statusCmd)
}

// loadSettings reads the settings file and applies flag overrides common to
// the download commands.
func loadSettings(cmd *cobra.Command) (*config.Settings, error) {
	settings, err := config.Load(settingsPath)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("output") {
		settings.OutputDir, _ = cmd.Flags().GetString("output")
	}
	if cmd.Flags().Changed("format") {
		settings.Format, _ = cmd.Flags().GetString("format")
	}
	if cmd.Flags().Changed("series-workers") {
		settings.MaxConcurrentSeries, _ = cmd.Flags().GetInt("series-workers")
	}
	if cmd.Flags().Changed("image-workers") {
		settings.MaxConcurrentImages, _ = cmd.Flags().GetInt("image-workers")
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
