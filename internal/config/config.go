// Package config provides unified configuration loading for labnote.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nvandessel/labnote/internal/logging"
	"github.com/nvandessel/labnote/internal/render"
	"gopkg.in/yaml.v3"
)

// LabnoteConfig contains all labnote configuration settings.
type LabnoteConfig struct {
	// Output controls where runs are written and how pages are encoded.
	Output OutputConfig `json:"output" yaml:"output"`

	// Catalog controls the SQLite run index.
	Catalog CatalogConfig `json:"catalog" yaml:"catalog"`

	// Logging contains settings for operational and event logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// OutputConfig configures run directories and rendering.
type OutputConfig struct {
	// Root is the directory under which run directories are created.
	Root string `json:"root" yaml:"root"`

	// ImageFormat is the page encoding: "svg" (default), "png", "pdf" or "eps".
	ImageFormat string `json:"image_format" yaml:"image_format"`

	// Palette overrides the default color cycle with color names or hex codes.
	// Empty means the built-in palette.
	Palette []string `json:"palette,omitempty" yaml:"palette,omitempty"`
}

// CatalogConfig configures the run index.
type CatalogConfig struct {
	// Enabled turns run indexing on. The index is derived data; disabling it
	// never affects what is written to run directories.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Path is the SQLite database file. Empty means ~/.labnote/runs.db.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// LoggingConfig configures labnote's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables event logging to <output root>/events.jsonl.
	Level string `json:"level" yaml:"level"`
}

// Default returns a LabnoteConfig with sensible defaults.
func Default() *LabnoteConfig {
	return &LabnoteConfig{
		Output: OutputConfig{
			Root:        "data",
			ImageFormat: render.FormatSVG,
		},
		Catalog: CatalogConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Dir returns the per-user configuration directory, ~/.labnote.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(homeDir, ".labnote"), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.labnote/config.yaml -> environment variables
func Load() (*LabnoteConfig, error) {
	config := Default()

	// Try to load from default config file
	if dir, err := Dir(); err == nil {
		configPath := filepath.Join(dir, "config.yaml")
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	// Apply environment variable overrides
	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*LabnoteConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Expand environment variables in paths
	config.Output.Root = expandEnvVars(config.Output.Root)
	config.Catalog.Path = expandEnvVars(config.Catalog.Path)

	return config, nil
}

// Validate checks that the configuration is valid.
func (c *LabnoteConfig) Validate() error {
	if strings.TrimSpace(c.Output.Root) == "" {
		return fmt.Errorf("output root must not be empty")
	}

	validFormats := map[string]bool{
		render.FormatSVG: true,
		render.FormatPNG: true,
		render.FormatPDF: true,
		render.FormatEPS: true,
	}
	if !validFormats[c.Output.ImageFormat] {
		return fmt.Errorf("invalid image format: %s (valid: svg, png, pdf, eps)", c.Output.ImageFormat)
	}

	if len(c.Output.Palette) > 0 {
		if err := render.Palette(c.Output.Palette).Validate(); err != nil {
			return fmt.Errorf("invalid palette: %w", err)
		}
	}

	if c.Logging.Level != "" && !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (valid: error, warn, info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *LabnoteConfig) {
	if v := os.Getenv("LABNOTE_OUTPUT_ROOT"); v != "" {
		config.Output.Root = v
	}

	if v := os.Getenv("LABNOTE_IMAGE_FORMAT"); v != "" {
		config.Output.ImageFormat = strings.ToLower(v)
	}

	if v := os.Getenv("LABNOTE_PALETTE"); v != "" {
		var palette []string
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				palette = append(palette, name)
			}
		}
		config.Output.Palette = palette
	}

	if v := os.Getenv("LABNOTE_CATALOG_ENABLED"); v != "" {
		config.Catalog.Enabled = v == "true" || v == "1"
	}

	if v := os.Getenv("LABNOTE_CATALOG_PATH"); v != "" {
		config.Catalog.Path = v
	}

	if v := os.Getenv("LABNOTE_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
