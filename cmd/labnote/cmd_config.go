package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nvandessel/labnote/internal/config"
	"github.com/nvandessel/labnote/internal/logging"
	"github.com/nvandessel/labnote/internal/render"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage labnote configuration",
		Long: `View and modify labnote configuration settings.

Configuration is stored in ~/.labnote/config.yaml. Environment variables
(LABNOTE_OUTPUT_ROOT, LABNOTE_IMAGE_FORMAT, LABNOTE_PALETTE,
LABNOTE_CATALOG_ENABLED, LABNOTE_CATALOG_PATH, LABNOTE_LOG_LEVEL) take
precedence over the file.

Examples:
  labnote config list                              # Show all settings
  labnote config get output.image_format           # Get a specific setting
  labnote config set output.image_format png       # Set a setting
  labnote config set output.palette black,#ff8800  # Custom color cycle`,
	}

	cmd.AddCommand(
		newConfigListCmd(),
		newConfigGetCmd(),
		newConfigSetCmd(),
	)

	return cmd
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(cfg)
			}

			fmt.Fprintln(out, "Configuration (~/.labnote/config.yaml):")
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Output Settings:")
			fmt.Fprintf(out, "  output.root:          %s\n", cfg.Output.Root)
			fmt.Fprintf(out, "  output.image_format:  %s\n", cfg.Output.ImageFormat)
			fmt.Fprintf(out, "  output.palette:       %s\n", valueOrDefault(strings.Join(cfg.Output.Palette, ","), "(default)"))
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Catalog Settings:")
			fmt.Fprintf(out, "  catalog.enabled:      %v\n", cfg.Catalog.Enabled)
			fmt.Fprintf(out, "  catalog.path:         %s\n", valueOrDefault(cfg.Catalog.Path, "(default: ~/.labnote/runs.db)"))
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Logging Settings:")
			fmt.Fprintf(out, "  logging.level:        %s\n", valueOrDefault(cfg.Logging.Level, "info"))

			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			key := args[0]

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			value, found := getConfigValue(cfg, key)
			if !found {
				return fmt.Errorf("unknown configuration key: %s", key)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"key":   key,
					"value": value,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %v\n", key, value)
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			key := args[0]
			value := args[1]

			cfg, err := loadFileConfig()
			if err != nil {
				return err
			}

			if err := setConfigValue(cfg, key, value); err != nil {
				return err
			}

			path, err := saveConfig(cfg)
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"status": "updated",
					"key":    key,
					"value":  value,
					"path":   path,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
			return nil
		},
	}
}

// loadFileConfig reads ~/.labnote/config.yaml without environment
// overrides, so 'config set' never persists values that came from the
// environment.
func loadFileConfig() (*config.LabnoteConfig, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.Default(), nil
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.LabnoteConfig, key string) (any, bool) {
	switch key {
	case "output.root":
		return cfg.Output.Root, true
	case "output.image_format":
		return cfg.Output.ImageFormat, true
	case "output.palette":
		return strings.Join(cfg.Output.Palette, ","), true
	case "catalog.enabled":
		return cfg.Catalog.Enabled, true
	case "catalog.path":
		return cfg.Catalog.Path, true
	case "logging.level":
		return cfg.Logging.Level, true
	default:
		return nil, false
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.LabnoteConfig, key, value string) error {
	switch key {
	case "output.root":
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("output.root must not be empty")
		}
		cfg.Output.Root = value
	case "output.image_format":
		value = strings.ToLower(value)
		if _, err := render.NewGonum(value, nil); err != nil {
			return err
		}
		cfg.Output.ImageFormat = value
	case "output.palette":
		var palette render.Palette
		for _, name := range strings.Split(value, ",") {
			if name = strings.TrimSpace(name); name != "" {
				palette = append(palette, name)
			}
		}
		if len(palette) > 0 {
			if err := palette.Validate(); err != nil {
				return err
			}
		}
		cfg.Output.Palette = palette
	case "catalog.enabled":
		cfg.Catalog.Enabled = value == "true" || value == "1"
	case "catalog.path":
		cfg.Catalog.Path = value
	case "logging.level":
		if !logging.ValidLevel(value) {
			return fmt.Errorf("invalid log level: %s (valid: error, warn, info, debug, trace)", value)
		}
		cfg.Logging.Level = strings.ToLower(value)
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

// saveConfig writes the configuration to ~/.labnote/config.yaml.
func saveConfig(cfg *config.LabnoteConfig) (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}

	configPath := filepath.Join(dir, "config.yaml")
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", configPath, err)
	}
	return configPath, nil
}

func valueOrDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
