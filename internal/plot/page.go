package plot

import (
	"fmt"
	"slices"

	"github.com/nvandessel/labnote/internal/pathutil"
)

// Default page dimensions in pixels.
const (
	DefaultPageWidth  = 600
	DefaultPageHeight = 400
)

// Range is a closed axis interval.
type Range struct {
	Min float64
	Max float64
}

// View is the coordinate view shared by every series on a page.
type View struct {
	XLabel string
	YLabel string

	// XRange and YRange clamp the axes when set. Nil means fit to data.
	XRange *Range
	YRange *Range

	// Width and Height are the output size in pixels.
	Width  int
	Height int
}

// DefaultView returns a view with the given axis labels at the default size.
func DefaultView(xLabel, yLabel string) View {
	return View{
		XLabel: xLabel,
		YLabel: yLabel,
		Width:  DefaultPageWidth,
		Height: DefaultPageHeight,
	}
}

// Page is an ordered collection of series drawn into one chart. Name becomes
// the output file stem. Series order is draw order and legend order.
type Page struct {
	Name   string
	View   View
	series []Series
}

// NewPage creates an empty page.
func NewPage(name string, view View) Page {
	return Page{Name: name, View: view}
}

// Add returns a copy of p with series appended.
func (p Page) Add(series ...Series) Page {
	merged := make([]Series, 0, len(p.series)+len(series))
	merged = append(merged, p.series...)
	merged = append(merged, series...)
	p.series = merged
	return p
}

// WithDimensions returns a copy of p sized width x height pixels.
func (p Page) WithDimensions(width, height int) Page {
	p.View.Width = width
	p.View.Height = height
	return p
}

// WithXRange returns a copy of p with the x axis clamped to [min, max].
func (p Page) WithXRange(min, max float64) Page {
	p.View.XRange = &Range{Min: min, Max: max}
	return p
}

// WithYRange returns a copy of p with the y axis clamped to [min, max].
func (p Page) WithYRange(min, max float64) Page {
	p.View.YRange = &Range{Min: min, Max: max}
	return p
}

// Series returns the page's series in draw order.
func (p Page) Series() []Series {
	return slices.Clone(p.series)
}

// Validate checks the page name, dimensions, ranges and every series.
func (p Page) Validate() error {
	if err := pathutil.ValidateName(p.Name); err != nil {
		return fmt.Errorf("page name: %w", err)
	}
	if p.View.Width <= 0 || p.View.Height <= 0 {
		return fmt.Errorf("page %q: dimensions must be positive, got %dx%d", p.Name, p.View.Width, p.View.Height)
	}
	if r := p.View.XRange; r != nil && !(r.Min < r.Max) {
		return fmt.Errorf("page %q: invalid x range [%g, %g]", p.Name, r.Min, r.Max)
	}
	if r := p.View.YRange; r != nil && !(r.Min < r.Max) {
		return fmt.Errorf("page %q: invalid y range [%g, %g]", p.Name, r.Min, r.Max)
	}
	for i, s := range p.series {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("page %q series %d: %w", p.Name, i, err)
		}
	}
	return nil
}
