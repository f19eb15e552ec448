package experiment

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nvandessel/labnote/internal/catalog"
	"github.com/nvandessel/labnote/internal/plot"
)

// curve is a minimal experiment: one line per named curve, one page each.
type curve struct {
	Label string      `cbor:"label"`
	Xs    [][]float64 `cbor:"xs"`
	Ys    [][]float64 `cbor:"ys"`
}

func (c curve) Kind() string { return "curve" }

func (c curve) SummarizeParams() string {
	return fmt.Sprintf("label: %s\ncurves: %d\n", c.Label, len(c.Xs))
}

func (c curve) RenderPages() []plot.Page {
	pages := make([]plot.Page, 0, len(c.Xs))
	for i := range c.Xs {
		p := plot.NewPage(fmt.Sprintf("page%d", i), plot.DefaultView("x", "y"))
		if s, err := plot.NewLine(c.Xs[i], c.Ys[i]); err == nil {
			p = p.Add(s.WithLegend(c.Label))
		}
		pages = append(pages, p)
	}
	return pages
}

// curveV2 is a later revision of curve with an extra field.
type curveV2 struct {
	Label string      `cbor:"label"`
	Xs    [][]float64 `cbor:"xs"`
	Ys    [][]float64 `cbor:"ys"`
	Units string      `cbor:"units"`
}

func (c curveV2) Kind() string             { return "curve" }
func (c curveV2) SummarizeParams() string  { return "units: " + c.Units }
func (c curveV2) RenderPages() []plot.Page { return nil }

// untyped has no Kind method.
type untyped struct {
	N int `cbor:"n"`
}

func (u untyped) SummarizeParams() string  { return fmt.Sprintf("n: %d", u.N) }
func (u untyped) RenderPages() []plot.Page { return nil }

// bounded validates its own state.
type bounded struct {
	N int `cbor:"n"`
}

func (b bounded) SummarizeParams() string { return fmt.Sprintf("n: %d", b.N) }

func (b bounded) RenderPages() []plot.Page {
	return []plot.Page{plot.NewPage("n", plot.DefaultView("x", "y"))}
}

func (b bounded) Validate() error {
	if b.N < 0 {
		return fmt.Errorf("n must not be negative, got %d", b.N)
	}
	return nil
}

// pageSet is an experiment that is nothing but its pages.
type pageSet []plot.Page

func (p pageSet) SummarizeParams() string  { return "" }
func (p pageSet) RenderPages() []plot.Page { return p }

func newCurve(n int) curve {
	c := curve{Label: "train"}
	for i := 0; i < n; i++ {
		c.Xs = append(c.Xs, []float64{0, 1, 2})
		c.Ys = append(c.Ys, []float64{1.0, 0.5, 0.25 * float64(i+1)})
	}
	return c
}

// fakeRenderer returns a deterministic byte string per page and can fail on
// a chosen page.
type fakeRenderer struct {
	failOn   string
	rendered []string
}

func (f *fakeRenderer) Ext() string { return "svg" }

func (f *fakeRenderer) Render(p plot.Page) ([]byte, error) {
	f.rendered = append(f.rendered, p.Name)
	if p.Name == f.failOn {
		return nil, errors.New("encoder exploded")
	}
	return []byte(fmt.Sprintf("<svg>%s:%d</svg>", p.Name, len(p.Series()))), nil
}

// failingCodec fails every Encode.
type failingCodec struct {
	*CBORCodec
}

func (failingCodec) Encode(any) ([]byte, error) {
	return nil, errors.New("cannot encode")
}

// fakeCatalog records calls in memory.
type fakeCatalog struct {
	mu    sync.Mutex
	saves []catalog.Run
	plots []string
	err   error
}

func (f *fakeCatalog) RecordSave(_ context.Context, run catalog.Run) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, run)
	return f.err
}

func (f *fakeCatalog) RecordPlot(_ context.Context, dir, _ string, _ int, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plots = append(f.plots, dir)
	return f.err
}

func newTestDriver(t *testing.T, cfg Config) *Driver {
	t.Helper()
	d, err := NewDriver(cfg)
	if err != nil {
		t.Fatalf("NewDriver() error = %v", err)
	}
	return d
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", filepath.Base(path), err)
	}
	return data
}

func assertExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected %s to exist: %v", filepath.Base(path), err)
	}
}

func assertMissing(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected %s to be absent, stat error = %v", filepath.Base(path), err)
	}
}
