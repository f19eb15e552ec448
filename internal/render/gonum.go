package render

import (
	"bytes"
	"fmt"

	"github.com/nvandessel/labnote/internal/plot"
	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Supported output formats.
const (
	FormatSVG = "svg"
	FormatPNG = "png"
	FormatPDF = "pdf"
	FormatEPS = "eps"
)

// DPI maps page pixel dimensions onto vg lengths.
const DPI = 96

// pointRadius is the marker radius in points for a series of width 1.
const pointRadius = 2.5

// Gonum renders pages with gonum.org/v1/plot.
type Gonum struct {
	format  string
	palette Palette
}

// NewGonum creates a renderer producing images in format. A nil palette
// selects DefaultPalette.
func NewGonum(format string, palette Palette) (*Gonum, error) {
	switch format {
	case FormatSVG, FormatPNG, FormatPDF, FormatEPS:
	default:
		return nil, fmt.Errorf("unsupported image format: %s (valid: svg, png, pdf, eps)", format)
	}
	if palette == nil {
		palette = DefaultPalette
	}
	if err := palette.Validate(); err != nil {
		return nil, err
	}
	return &Gonum{format: format, palette: palette}, nil
}

// Ext returns the file extension of rendered images, without a dot.
func (g *Gonum) Ext() string {
	return g.format
}

// Render draws every series of page into one chart and returns the encoded image.
func (g *Gonum) Render(page plot.Page) ([]byte, error) {
	p, err := g.build(page)
	if err != nil {
		return nil, err
	}

	wt, err := p.WriterTo(pixels(page.View.Width), pixels(page.View.Height), g.format)
	if err != nil {
		return nil, fmt.Errorf("creating %s writer: %w", g.format, err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", g.format, err)
	}
	return buf.Bytes(), nil
}

// build lays out page as a gonum plot without encoding it.
func (g *Gonum) build(page plot.Page) (*gplot.Plot, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	traces, err := Resolve(page, g.palette)
	if err != nil {
		return nil, err
	}

	p := gplot.New()
	p.X.Label.Text = page.View.XLabel
	p.Y.Label.Text = page.View.YLabel
	p.Legend.Top = true

	for i, tr := range traces {
		if err := addTrace(p, tr); err != nil {
			return nil, fmt.Errorf("series %d: %w", i, err)
		}
	}

	// Clamp after Add: Add widens the axes to fit the data.
	if r := page.View.XRange; r != nil {
		p.X.Min, p.X.Max = r.Min, r.Max
	}
	if r := page.View.YRange; r != nil {
		p.Y.Min, p.Y.Max = r.Min, r.Max
	}
	return p, nil
}

// addTrace adds one resolved series to p. Empty series are not drawn but
// still get their legend entry.
func addTrace(p *gplot.Plot, tr Trace) error {
	xys := toXYs(tr.Series)
	width := float64(tr.Series.Width())

	var thumb gplot.Thumbnailer
	switch tr.Series.Style() {
	case plot.StyleLine:
		l, err := plotter.NewLine(xys)
		if err != nil {
			return err
		}
		l.LineStyle.Color = tr.Color
		l.LineStyle.Width = vg.Points(width)
		if len(xys) > 0 {
			p.Add(l)
		}
		thumb = l
	case plot.StylePoint:
		s, err := plotter.NewScatter(xys)
		if err != nil {
			return err
		}
		s.GlyphStyle.Color = tr.Color
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		s.GlyphStyle.Radius = vg.Points(pointRadius * width)
		if len(xys) > 0 {
			p.Add(s)
		}
		thumb = s
	default:
		return fmt.Errorf("unsupported style %s", tr.Series.Style())
	}

	if legend, ok := tr.Series.Legend(); ok {
		p.Legend.Add(legend, thumb)
	}
	return nil
}

func toXYs(s plot.Series) plotter.XYs {
	xys := make(plotter.XYs, s.Len())
	for i := range xys {
		xys[i].X, xys[i].Y = s.Point(i)
	}
	return xys
}

func pixels(px int) vg.Length {
	return vg.Length(px) * vg.Inch / DPI
}
