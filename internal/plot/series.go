// Package plot defines the chart data model experiments hand to a renderer:
// series of (x, y) points grouped into pages that share one coordinate view.
package plot

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// ErrInvalidSeries indicates a series that cannot be drawn, such as one whose
// x and y sequences differ in length or hold NaN or infinite values.
var ErrInvalidSeries = errors.New("invalid series")

// Style selects how a series is drawn.
type Style int

const (
	// StylePoint draws one marker per (x, y) point.
	StylePoint Style = iota
	// StyleLine connects consecutive points with a stroke.
	StyleLine
)

// String returns the style name.
func (s Style) String() string {
	switch s {
	case StylePoint:
		return "point"
	case StyleLine:
		return "line"
	default:
		return fmt.Sprintf("Style(%d)", int(s))
	}
}

// DefaultStrokeWidth is the stroke width of a freshly constructed series.
const DefaultStrokeWidth float32 = 1.0

// Series is an immutable named pair of equal-length numeric sequences plus
// the style used to draw them. Builder methods return updated copies.
type Series struct {
	x      []float64
	y      []float64
	style  Style
	width  float32
	color  string
	legend string
}

// NewScatter builds a point-marker series from x and y.
func NewScatter(x, y []float64) (Series, error) {
	return newSeries(x, y, StylePoint)
}

// NewLine builds a connected-line series from x and y.
func NewLine(x, y []float64) (Series, error) {
	return newSeries(x, y, StyleLine)
}

func newSeries(x, y []float64, style Style) (Series, error) {
	if len(x) != len(y) {
		return Series{}, fmt.Errorf("%w: x has %d points, y has %d", ErrInvalidSeries, len(x), len(y))
	}
	if err := checkFinite(x, y); err != nil {
		return Series{}, err
	}
	return Series{
		x:     slices.Clone(x),
		y:     slices.Clone(y),
		style: style,
		width: DefaultStrokeWidth,
	}, nil
}

// WithLegend returns a copy of s labeled legend in the chart's legend block.
// An empty legend removes the label.
func (s Series) WithLegend(legend string) Series {
	s.legend = legend
	return s
}

// WithWidth returns a copy of s drawn with the given stroke width. For point
// series the width scales the marker size.
func (s Series) WithWidth(width float32) Series {
	s.width = width
	return s
}

// WithColor returns a copy of s with an explicit color. Accepts CSS color
// names ("royalblue") and hex ("#4169e1", "#41e"). An empty color clears it,
// so the series takes the next palette color.
func (s Series) WithColor(color string) Series {
	s.color = color
	return s
}

// X returns a copy of the x values.
func (s Series) X() []float64 { return slices.Clone(s.x) }

// Y returns a copy of the y values.
func (s Series) Y() []float64 { return slices.Clone(s.y) }

// Len returns the number of points.
func (s Series) Len() int { return len(s.x) }

// Point returns the i-th (x, y) pair.
func (s Series) Point(i int) (float64, float64) { return s.x[i], s.y[i] }

// Style returns how the series is drawn.
func (s Series) Style() Style { return s.style }

// Width returns the stroke width.
func (s Series) Width() float32 { return s.width }

// Color returns the explicit color, if one was set.
func (s Series) Color() (string, bool) { return s.color, s.color != "" }

// Legend returns the legend label, if one was set.
func (s Series) Legend() (string, bool) { return s.legend, s.legend != "" }

// Validate reports whether s can be drawn.
func (s Series) Validate() error {
	if len(s.x) != len(s.y) {
		return fmt.Errorf("%w: x has %d points, y has %d", ErrInvalidSeries, len(s.x), len(s.y))
	}
	if !(s.width > 0) || math.IsInf(float64(s.width), 1) {
		return fmt.Errorf("%w: width must be positive and finite, got %g", ErrInvalidSeries, s.width)
	}
	return checkFinite(s.x, s.y)
}

func checkFinite(x, y []float64) error {
	for i := range x {
		if !isFinite(x[i]) || !isFinite(y[i]) {
			return fmt.Errorf("%w: point %d (%g, %g) is not finite", ErrInvalidSeries, i, x[i], y[i])
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
