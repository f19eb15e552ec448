package plot

import (
	"errors"
	"math"
	"slices"
	"testing"
)

func TestNewSeries_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		x    []float64
		y    []float64
	}{
		{"empty", []float64{}, []float64{}},
		{"nil", nil, nil},
		{"single", []float64{1}, []float64{2}},
		{"three points", []float64{0, 1, 2}, []float64{1.0, 0.5, 0.25}},
		{"negative and fractional", []float64{-1.5, 0, 1e9}, []float64{3.25, -7, 1e-9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, build := range []func(x, y []float64) (Series, error){NewLine, NewScatter} {
				s, err := build(tt.x, tt.y)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				s = s.WithLegend("l").WithWidth(2).WithColor("red")
				if !slices.Equal(s.X(), tt.x) {
					t.Errorf("X() = %v, want %v", s.X(), tt.x)
				}
				if !slices.Equal(s.Y(), tt.y) {
					t.Errorf("Y() = %v, want %v", s.Y(), tt.y)
				}
				if s.Len() != len(tt.x) {
					t.Errorf("Len() = %d, want %d", s.Len(), len(tt.x))
				}
			}
		})
	}
}

func TestNewSeries_LengthMismatch(t *testing.T) {
	x := []float64{1, 2, 3}
	y := []float64{1, 2, 3, 4, 5}

	if _, err := NewLine(x, y); !errors.Is(err, ErrInvalidSeries) {
		t.Errorf("NewLine() error = %v, want ErrInvalidSeries", err)
	}
	if _, err := NewScatter(x, y); !errors.Is(err, ErrInvalidSeries) {
		t.Errorf("NewScatter() error = %v, want ErrInvalidSeries", err)
	}
}

func TestNewSeries_CopiesInput(t *testing.T) {
	x := []float64{1, 2}
	y := []float64{3, 4}
	s, err := NewLine(x, y)
	if err != nil {
		t.Fatal(err)
	}

	x[0] = 100
	y[0] = 100
	if s.X()[0] != 1 || s.Y()[0] != 3 {
		t.Errorf("series aliased caller slices: x=%v y=%v", s.X(), s.Y())
	}

	got := s.X()
	got[1] = 100
	if s.X()[1] != 2 {
		t.Error("X() returned internal storage")
	}
}

func TestSeries_BuildersReturnCopies(t *testing.T) {
	base, err := NewLine([]float64{0, 1}, []float64{0, 1})
	if err != nil {
		t.Fatal(err)
	}

	styled := base.WithColor("red").WithLegend("train").WithWidth(3)

	if _, ok := base.Color(); ok {
		t.Error("WithColor mutated the receiver")
	}
	if _, ok := base.Legend(); ok {
		t.Error("WithLegend mutated the receiver")
	}
	if base.Width() != DefaultStrokeWidth {
		t.Errorf("base width = %v, want %v", base.Width(), DefaultStrokeWidth)
	}

	if c, ok := styled.Color(); !ok || c != "red" {
		t.Errorf("Color() = %q, %v", c, ok)
	}
	if l, ok := styled.Legend(); !ok || l != "train" {
		t.Errorf("Legend() = %q, %v", l, ok)
	}
	if styled.Width() != 3 {
		t.Errorf("Width() = %v, want 3", styled.Width())
	}

	// Order of builder calls does not matter.
	reordered := base.WithWidth(3).WithLegend("train").WithColor("red")
	if reordered.Width() != styled.Width() || reordered.color != styled.color || reordered.legend != styled.legend {
		t.Error("builder order changed the result")
	}
}

func TestSeries_Validate(t *testing.T) {
	s, err := NewScatter([]float64{1}, []float64{1})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	if err := s.WithWidth(0).Validate(); !errors.Is(err, ErrInvalidSeries) {
		t.Errorf("zero width: Validate() = %v, want ErrInvalidSeries", err)
	}
	if err := s.WithWidth(-1).Validate(); !errors.Is(err, ErrInvalidSeries) {
		t.Errorf("negative width: Validate() = %v, want ErrInvalidSeries", err)
	}
	for _, w := range []float64{math.NaN(), math.Inf(1)} {
		if err := s.WithWidth(float32(w)).Validate(); !errors.Is(err, ErrInvalidSeries) {
			t.Errorf("width %g: Validate() = %v, want ErrInvalidSeries", w, err)
		}
	}
}

func TestNewSeries_NonFinite(t *testing.T) {
	nan, inf := math.NaN(), math.Inf(1)
	tests := []struct {
		name string
		x    []float64
		y    []float64
	}{
		{"NaN y", []float64{0, 1, 2}, []float64{1, nan, 2}},
		{"+Inf y", []float64{0, 1, 2}, []float64{1, inf, 2}},
		{"-Inf y", []float64{0, 1, 2}, []float64{1, 2, -inf}},
		{"NaN x", []float64{nan, 1}, []float64{1, 2}},
		{"+Inf x", []float64{0, inf}, []float64{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewLine(tt.x, tt.y); !errors.Is(err, ErrInvalidSeries) {
				t.Errorf("NewLine() error = %v, want ErrInvalidSeries", err)
			}
			if _, err := NewScatter(tt.x, tt.y); !errors.Is(err, ErrInvalidSeries) {
				t.Errorf("NewScatter() error = %v, want ErrInvalidSeries", err)
			}
		})
	}
}

func TestNewSeries_ExtremeFiniteValues(t *testing.T) {
	x := []float64{-math.MaxFloat64, 0, math.MaxFloat64}
	y := []float64{math.SmallestNonzeroFloat64, 1e300, -1e300}
	if _, err := NewLine(x, y); err != nil {
		t.Errorf("NewLine() error = %v, want nil", err)
	}
}

func TestSeries_EmptyLegendAndColorClear(t *testing.T) {
	s, err := NewLine([]float64{0}, []float64{0})
	if err != nil {
		t.Fatal(err)
	}
	s = s.WithLegend("train").WithColor("red")

	cleared := s.WithLegend("").WithColor("")
	if _, ok := cleared.Legend(); ok {
		t.Error("WithLegend(\"\") should remove the legend")
	}
	if _, ok := cleared.Color(); ok {
		t.Error("WithColor(\"\") should clear the explicit color")
	}
	if _, ok := s.Legend(); !ok {
		t.Error("clearing a copy changed the original")
	}
}

func TestStyle_String(t *testing.T) {
	if StylePoint.String() != "point" || StyleLine.String() != "line" {
		t.Errorf("unexpected style names: %s, %s", StylePoint, StyleLine)
	}
	if Style(9).String() != "Style(9)" {
		t.Errorf("Style(9).String() = %s", Style(9))
	}
}

func TestPage_AddPreservesOrderAndReceiver(t *testing.T) {
	a, _ := NewLine([]float64{0}, []float64{0})
	b, _ := NewLine([]float64{1}, []float64{1})
	c, _ := NewLine([]float64{2}, []float64{2})

	p := NewPage("loss", DefaultView("epoch", "loss"))
	p1 := p.Add(a)
	p2 := p1.Add(b, c)
	p3 := p1.Add(c)

	if len(p.Series()) != 0 {
		t.Errorf("Add mutated empty page: %d series", len(p.Series()))
	}
	if len(p1.Series()) != 1 {
		t.Errorf("p1 has %d series, want 1", len(p1.Series()))
	}
	got := p2.Series()
	if len(got) != 3 || got[0].x[0] != 0 || got[1].x[0] != 1 || got[2].x[0] != 2 {
		t.Errorf("p2 order wrong: %+v", got)
	}
	if got3 := p3.Series(); len(got3) != 2 || got3[1].x[0] != 2 {
		t.Errorf("p3 = %+v, sibling Add leaked into it", got3)
	}
}

func TestPage_Builders(t *testing.T) {
	p := NewPage("loss", DefaultView("epoch", "loss")).
		WithDimensions(800, 300).
		WithXRange(0, 10).
		WithYRange(0, 0.06)

	if p.View.Width != 800 || p.View.Height != 300 {
		t.Errorf("dimensions = %dx%d", p.View.Width, p.View.Height)
	}
	if p.View.XRange == nil || *p.View.XRange != (Range{Min: 0, Max: 10}) {
		t.Errorf("XRange = %+v", p.View.XRange)
	}
	if p.View.YRange == nil || *p.View.YRange != (Range{Min: 0, Max: 0.06}) {
		t.Errorf("YRange = %+v", p.View.YRange)
	}
}

func TestDefaultView(t *testing.T) {
	v := DefaultView("x", "y")
	if v.Width != DefaultPageWidth || v.Height != DefaultPageHeight {
		t.Errorf("DefaultView size = %dx%d", v.Width, v.Height)
	}
	if v.XRange != nil || v.YRange != nil {
		t.Error("DefaultView should not clamp axes")
	}
}

func TestPage_Validate(t *testing.T) {
	good, _ := NewLine([]float64{0, 1}, []float64{0, 1})

	tests := []struct {
		name     string
		page     Page
		wantErr  bool
		isSeries bool
	}{
		{"valid", NewPage("loss", DefaultView("x", "y")).Add(good), false, false},
		{"valid empty", NewPage("loss", DefaultView("x", "y")), false, false},
		{"bad name", NewPage("../loss", DefaultView("x", "y")), true, false},
		{"empty name", NewPage("", DefaultView("x", "y")), true, false},
		{"zero size", NewPage("loss", View{}), true, false},
		{"inverted x range", NewPage("loss", DefaultView("x", "y")).WithXRange(1, 0), true, false},
		{"flat y range", NewPage("loss", DefaultView("x", "y")).WithYRange(1, 1), true, false},
		{"bad series width", NewPage("loss", DefaultView("x", "y")).Add(good.WithWidth(0)), true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.page.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.isSeries && !errors.Is(err, ErrInvalidSeries) {
				t.Errorf("error = %v, want ErrInvalidSeries", err)
			}
		})
	}
}
