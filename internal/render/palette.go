package render

import (
	"fmt"
	"image/color"

	"github.com/nvandessel/labnote/internal/plot"
)

// Palette is an ordered list of color names cycled through for series that
// do not carry an explicit color.
type Palette []string

// DefaultPalette is the fixed cycle used when no palette is configured.
var DefaultPalette = Palette{
	"olivedrab",
	"lightcoral",
	"royalblue",
	"peru",
	"darkcyan",
	"saddlebrown",
	"darkmagenta",
}

// Validate checks that the palette is non-empty and every entry parses.
func (p Palette) Validate() error {
	if len(p) == 0 {
		return fmt.Errorf("palette is empty")
	}
	for i, name := range p {
		if _, err := ParseColor(name); err != nil {
			return fmt.Errorf("palette entry %d: %w", i, err)
		}
	}
	return nil
}

// Trace is one series resolved for drawing: its final color is fixed.
type Trace struct {
	Series    plot.Series
	ColorName string
	Color     color.Color
	Explicit  bool
}

// Resolve assigns a color to every series of page in draw order.
//
// Series with an explicit color keep it and do not consume a palette slot.
// Every other series takes the next palette entry, cycling when the palette
// runs out, so the n-th uncolored series always gets palette[n % len].
func Resolve(page plot.Page, palette Palette) ([]Trace, error) {
	if len(palette) == 0 {
		palette = DefaultPalette
	}

	series := page.Series()
	traces := make([]Trace, 0, len(series))
	next := 0
	for i, s := range series {
		name, explicit := s.Color()
		if !explicit {
			name = palette[next%len(palette)]
			next++
		}
		c, err := ParseColor(name)
		if err != nil {
			return nil, fmt.Errorf("series %d: %w", i, err)
		}
		traces = append(traces, Trace{
			Series:    s,
			ColorName: name,
			Color:     c,
			Explicit:  explicit,
		})
	}
	return traces, nil
}
