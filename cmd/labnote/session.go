package main

import (
	"fmt"
	"log/slog"

	"github.com/nvandessel/labnote/internal/catalog"
	"github.com/nvandessel/labnote/internal/config"
	"github.com/nvandessel/labnote/internal/experiment"
	"github.com/nvandessel/labnote/internal/logging"
	"github.com/nvandessel/labnote/internal/render"
	"github.com/nvandessel/labnote/internal/sample"
	"github.com/spf13/cobra"
)

// session bundles what a command needs to run the experiment lifecycle.
type session struct {
	cfg      *config.LabnoteConfig
	logger   *slog.Logger
	driver   *experiment.Driver
	registry *experiment.Registry
	catalog  *catalog.Store // nil when disabled or unavailable
	events   *logging.EventLog
}

// newRegistry lists every experiment kind the CLI can load.
func newRegistry() *experiment.Registry {
	r := experiment.NewRegistry()
	experiment.Register[sample.GradientDescent](r, sample.Kind)
	return r
}

// openSession loads configuration, applies --log-level and wires the driver.
// The catalog is optional: if it cannot be opened the session continues
// without it.
func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())

	var palette render.Palette
	if len(cfg.Output.Palette) > 0 {
		palette = render.Palette(cfg.Output.Palette)
	}
	renderer, err := render.NewGonum(cfg.Output.ImageFormat, palette)
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	s := &session{
		cfg:      cfg,
		logger:   logger,
		registry: newRegistry(),
		events:   logging.NewEventLog(cfg.Output.Root, cfg.Logging.Level),
	}

	driverCfg := experiment.Config{Logger: logger, Renderer: renderer}
	if cfg.Catalog.Enabled {
		if store, err := openCatalog(cfg); err != nil {
			logger.Warn("run catalog unavailable", "error", err)
		} else {
			s.catalog = store
			driverCfg.Catalog = store
		}
	}

	s.driver, err = experiment.NewDriver(driverCfg)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create driver: %w", err)
	}
	return s, nil
}

func openCatalog(cfg *config.LabnoteConfig) (*catalog.Store, error) {
	path := cfg.Catalog.Path
	if path == "" {
		var err error
		path, err = catalog.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return catalog.Open(path)
}

// Close releases the catalog and the event log.
func (s *session) Close() {
	if s.catalog != nil {
		if err := s.catalog.Close(); err != nil {
			s.logger.Warn("closing run catalog", "error", err)
		}
	}
	s.events.Close()
}
