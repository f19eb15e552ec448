package experiment

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/nvandessel/labnote/internal/catalog"
	"github.com/nvandessel/labnote/internal/logging"
	"github.com/nvandessel/labnote/internal/pathutil"
	"github.com/nvandessel/labnote/internal/plot"
	"github.com/nvandessel/labnote/internal/render"
)

// ParamsFile is the name of the parameter summary inside a run directory.
const ParamsFile = "params.txt"

// dataStem is the data file name without extension.
const dataStem = "data"

// Renderer turns a page into encoded image bytes.
type Renderer interface {
	Render(page plot.Page) ([]byte, error)
	// Ext is the image file extension, without a dot.
	Ext() string
}

// Catalog records runs in a derived index. Failures are logged, never
// returned to the caller of Save or Plot.
type Catalog interface {
	RecordSave(ctx context.Context, run catalog.Run) error
	RecordPlot(ctx context.Context, dir, kind string, pages int, at time.Time) error
}

// Config holds the driver's collaborators. Zero fields get defaults.
type Config struct {
	// Logger receives progress reports. Defaults to discarding everything.
	Logger *slog.Logger

	// Codec serializes experiments. Defaults to CBOR.
	Codec Codec

	// Renderer draws pages. Defaults to gonum SVG with the default palette.
	Renderer Renderer

	// Catalog, when set, is updated after successful saves and plots.
	Catalog Catalog

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Driver runs the save / plot / load / replot lifecycle. It keeps no
// reference to the experiments it handles. Callers must not run two
// operations against the same directory at once.
type Driver struct {
	logger   *slog.Logger
	codec    Codec
	renderer Renderer
	catalog  Catalog
	now      func() time.Time
}

// NewDriver creates a driver, filling unset collaborators with defaults.
func NewDriver(cfg Config) (*Driver, error) {
	d := &Driver{
		logger:   cfg.Logger,
		codec:    cfg.Codec,
		renderer: cfg.Renderer,
		catalog:  cfg.Catalog,
		now:      cfg.Now,
	}
	if d.logger == nil {
		d.logger = slog.New(slog.DiscardHandler)
	}
	if d.codec == nil {
		c, err := NewCBORCodec()
		if err != nil {
			return nil, err
		}
		d.codec = c
	}
	if d.renderer == nil {
		r, err := render.NewGonum(render.FormatSVG, nil)
		if err != nil {
			return nil, err
		}
		d.renderer = r
	}
	if d.now == nil {
		d.now = time.Now
	}
	return d, nil
}

// DataPath returns the data file path inside dir.
func (d *Driver) DataPath(dir string) string {
	return filepath.Join(dir, dataStem+"."+d.codec.Ext())
}

// ImagePath returns the image path for a page inside dir.
func (d *Driver) ImagePath(dir, pageName string) string {
	return filepath.Join(dir, pageName+"."+d.renderer.Ext())
}

// Save creates dir if needed and writes params.txt, the data file and one
// image per page, in that order. A failure stops the remaining steps and
// leaves files already written in place. An experiment that fails Validate
// is rejected before dir is created.
func (d *Driver) Save(e Experiment, dir string) error {
	kind := KindOf(e)
	log := d.logger.With("dir", dir, "kind", kind)
	log.Info("saving experiment")

	if err := validate(e); err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return &IOError{Op: "mkdir", Path: dir, Err: err}
	}

	paramsPath := filepath.Join(dir, ParamsFile)
	log.Info("writing parameters", "path", paramsPath)
	if err := os.WriteFile(paramsPath, []byte(e.SummarizeParams()), 0644); err != nil {
		return &IOError{Op: "write", Path: paramsPath, Err: err}
	}

	payload, err := d.codec.Encode(e)
	if err != nil {
		return &SerializationError{Op: "encode", Err: err}
	}

	pages := e.RenderPages()
	savedAt := d.now()
	header := Header{
		Kind:      kind,
		Codec:     d.codec.Name(),
		CreatedAt: savedAt,
		Pages:     len(pages),
	}
	data, err := encodeDataFile(header, payload)
	if err != nil {
		return &SerializationError{Op: "encode", Err: err}
	}

	dataPath := d.DataPath(dir)
	log.Info("writing data", "path", dataPath, "bytes", len(data))
	if err := os.WriteFile(dataPath, data, 0644); err != nil {
		return &IOError{Op: "write", Path: dataPath, Err: err}
	}

	if err := d.plotPages(log, dir, pages); err != nil {
		return err
	}

	if d.catalog != nil {
		run := catalog.Run{
			Dir:       absDir(dir),
			Kind:      kind,
			Codec:     d.codec.Name(),
			Checksum:  checksum(payload),
			Pages:     len(pages),
			SavedAt:   &savedAt,
			PlottedAt: &savedAt,
		}
		if err := d.catalog.RecordSave(context.Background(), run); err != nil {
			log.Warn("catalog update failed", "error", err)
		}
	}
	return nil
}

// Plot renders every page of e into dir. It does not touch params.txt or
// the data file. The first page that fails aborts the batch.
func (d *Driver) Plot(e Experiment, dir string) error {
	kind := KindOf(e)
	log := d.logger.With("dir", dir, "kind", kind)

	if err := validate(e); err != nil {
		return err
	}

	pages := e.RenderPages()
	if err := d.plotPages(log, dir, pages); err != nil {
		return err
	}

	if d.catalog != nil {
		if err := d.catalog.RecordPlot(context.Background(), absDir(dir), kind, len(pages), d.now()); err != nil {
			log.Warn("catalog update failed", "error", err)
		}
	}
	return nil
}

func (d *Driver) plotPages(log *slog.Logger, dir string, pages []plot.Page) error {
	for _, page := range pages {
		// Validate before building a path from the page name.
		if err := page.Validate(); err != nil {
			return &RenderError{Page: page.Name, Err: err}
		}

		img, err := d.renderer.Render(page)
		if err != nil {
			return &RenderError{Page: page.Name, Err: err}
		}

		path := d.ImagePath(dir, page.Name)
		log.Info("writing page", "path", path)
		log.Debug("page detail", "page", page.Name, "series", len(page.Series()), "bytes", len(img))
		if log.Enabled(context.Background(), logging.LevelTrace) {
			for i, s := range page.Series() {
				legend, _ := s.Legend()
				log.Log(context.Background(), logging.LevelTrace, "series detail",
					"page", page.Name, "index", i, "style", s.Style().String(), "points", s.Len(), "legend", legend)
			}
		}
		if err := os.WriteFile(path, img, 0644); err != nil {
			return &IOError{Op: "write", Path: path, Err: err}
		}
	}
	return nil
}

// Load reads and decodes the data file at path into a new E.
//
// A missing file fails with ErrNotFound and creates nothing. A file whose
// header names another kind or codec, or whose payload does not decode into
// E, fails with a SerializationError; schema problems also match
// ErrSchemaMismatch. A decoded value that fails Validate matches
// ErrInvalidExperiment.
func Load[E Experiment](d *Driver, path string) (E, error) {
	var e E

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return e, fmt.Errorf("%w: %s", ErrNotFound, pathutil.RedactPath(path))
		}
		return e, &IOError{Op: "read", Path: path, Err: err}
	}

	header, payload, err := splitDataFile(data)
	if err != nil {
		return e, &SerializationError{Op: "decode", Err: err}
	}
	if header != nil {
		if header.Codec != "" && header.Codec != d.codec.Name() {
			return e, &SerializationError{Op: "decode", Err: fmt.Errorf("%w: written with codec %s, reading with %s", ErrSchemaMismatch, header.Codec, d.codec.Name())}
		}
		if want := KindOf(e); header.Kind != "" && header.Kind != want {
			return e, &SerializationError{Op: "decode", Err: fmt.Errorf("%w: file holds %s, want %s", ErrSchemaMismatch, header.Kind, want)}
		}
	}

	if err := d.codec.Decode(payload, &e); err != nil {
		var zero E
		return zero, &SerializationError{Op: "decode", Err: err}
	}
	if err := validate(e); err != nil {
		var zero E
		return zero, &SerializationError{Op: "decode", Err: err}
	}

	d.logger.Debug("loaded experiment", "path", path, "kind", KindOf(e), "format", DetectFormat(data))
	return e, nil
}

// Replot loads dir's data file as an E and regenerates its images. params.txt
// and the data file are left untouched.
func Replot[E Experiment](d *Driver, dir string) error {
	e, err := Load[E](d, d.DataPath(dir))
	if err != nil {
		return err
	}
	d.logger.Info("replotting", "dir", dir)
	return d.Plot(e, dir)
}

func absDir(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}
