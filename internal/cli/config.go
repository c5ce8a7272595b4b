package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/nmorrow/covmap/internal/model"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage covmap configuration",
	Long: `Manage covmap configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (COVMAP_*)
3. Config file (~/.covmap/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after merging defaults, the config file, environment variables, and flags.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if configFile := viper.ConfigFileUsed(); configFile != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", configFile)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
		}

		// Never echo credentials.
		cfg.Oracle.APIKey = redact(cfg.Oracle.APIKey)
		cfg.Embedding.APIKey = redact(cfg.Embedding.APIKey)
		cfg.Database.DSN = redact(cfg.Database.DSN)

		yamlData, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}
		fmt.Println(string(yamlData))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration file",
	Long:  `Create a default configuration file at ~/.covmap/config.yaml with all available options.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("error finding home directory: %w", err)
		}

		configDir := filepath.Join(home, ".covmap")
		configPath := filepath.Join(configDir, "config.yaml")

		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config file already exists: %s\nUse 'covmap config show' to view it, or delete it first to recreate", configPath)
		}
		if err := os.MkdirAll(configDir, 0o755); err != nil {
			return fmt.Errorf("error creating config directory: %w", err)
		}

		yamlData, err := yaml.Marshal(model.DefaultConfig())
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}

		header := []byte(`# covmap configuration file
#
# Configuration hierarchy (highest to lowest priority):
#   1. CLI flags
#   2. Environment variables (COVMAP_*, OPENAI_API_KEY, DATABASE_URL)
#   3. This config file
#   4. Built-in defaults
#
# Keep credentials out of this file: set OPENAI_API_KEY and DATABASE_URL
# in the environment instead.

`)
		if err := os.WriteFile(configPath, append(header, yamlData...), 0o600); err != nil {
			return fmt.Errorf("error writing config file: %w", err)
		}

		fmt.Printf("✓ Created default configuration: %s\n", configPath)
		fmt.Printf("\nTo view the configuration:\n  covmap config show\n")
		return nil
	},
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "(redacted)"
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
