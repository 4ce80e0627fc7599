package cmd

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/Taichi-iskw/yt-comments/internal/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration settings",
	Long:  `Manage configuration settings for ytcrawl.`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init [API_KEY]",
	Short: "Initialize configuration file",
	Long:  `Create a new configuration file holding the YouTube Data API key and crawl defaults.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var apiKey string
		if len(args) > 0 {
			apiKey = args[0]
		}

		if err := config.InitConfig(apiKey); err != nil {
			return err
		}

		configPath, err := config.GetConfigPath()
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created configuration file: %s\n", configPath)
		if apiKey == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "Please edit the api_key in this file or set YOUTUBE_API_KEY.")
		}

		return nil
	},
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after the file, .env and environment are merged.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := cfgFile
		if configPath == "" {
			var err error
			if configPath, err = config.GetConfigPath(); err != nil {
				return err
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Configuration file: %s\n\n", configPath)

		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		fmt.Fprint(cmd.OutOrStdout(), formatConfig(cfg))
		return nil
	},
}

// formatConfig renders cfg with secrets masked
func formatConfig(cfg *config.Config) string {
	databaseURL := "(not set, JSONL only)"
	if cfg.DatabaseURL != "" {
		databaseURL = cfg.DatabaseURL
		if u, err := url.Parse(cfg.DatabaseURL); err == nil {
			databaseURL = u.Redacted()
		}
	}
	return fmt.Sprintf("API_KEY: %s\nOUTPUT_DIR: %s\nREQUESTS_PER_SECOND: %v\nREQUEST_TIMEOUT: %s\nDATABASE_URL: %s\n",
		maskSecret(cfg.APIKey),
		cfg.OutputDir,
		cfg.RequestsPerSecond,
		cfg.RequestTimeout,
		databaseURL,
	)
}

// maskSecret keeps the last four characters of s
func maskSecret(s string) string {
	switch {
	case s == "":
		return "(not set)"
	case len(s) <= 4:
		return "****"
	default:
		return "****" + s[len(s)-4:]
	}
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
