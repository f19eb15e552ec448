// Package sample provides a reference experiment used by the CLI and tests.
package sample

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/nvandessel/labnote/internal/plot"
)

// Kind identifies GradientDescent runs in data file headers.
const Kind = "gradient-descent"

// DivergenceFactor bounds how far a run's loss may grow over its starting
// loss before the run is cut off as diverged.
const DivergenceFactor = 1e6

// GradientDescent runs fixed-step gradient descent on f(x) = Curvature*x^2
// once per learning rate and records the iterates and losses.
type GradientDescent struct {
	Curvature     float64   `cbor:"curvature"`
	Start         float64   `cbor:"start"`
	Steps         int       `cbor:"steps"`
	LearningRates []float64 `cbor:"learning_rates"`

	// Iterates[i][k] is x after k steps with LearningRates[i]. A run that
	// diverges stops before the step that diverged, so it may hold fewer
	// than Steps+1 values.
	Iterates [][]float64 `cbor:"iterates"`
	// Losses[i][k] is f(Iterates[i][k]).
	Losses [][]float64 `cbor:"losses"`
}

// New returns an unrun experiment.
func New(curvature, start float64, steps int, learningRates []float64) GradientDescent {
	return GradientDescent{
		Curvature:     curvature,
		Start:         start,
		Steps:         steps,
		LearningRates: append([]float64(nil), learningRates...),
	}
}

// Validate checks the parameters and, once the experiment has run, that
// the recorded results match them.
func (g GradientDescent) Validate() error {
	if !(g.Curvature > 0) || math.IsInf(g.Curvature, 1) {
		return fmt.Errorf("curvature must be positive and finite, got %g", g.Curvature)
	}
	if !finite(g.Start) || !finite(g.Curvature*g.Start*g.Start) {
		return fmt.Errorf("start must have a finite loss, got %g", g.Start)
	}
	if g.Steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", g.Steps)
	}
	if len(g.LearningRates) == 0 {
		return fmt.Errorf("at least one learning rate is required")
	}
	for _, lr := range g.LearningRates {
		if !(lr > 0) || math.IsInf(lr, 1) {
			return fmt.Errorf("learning rates must be positive and finite, got %g", lr)
		}
	}
	if g.Iterates == nil && g.Losses == nil {
		return nil
	}

	if len(g.Iterates) != len(g.LearningRates) || len(g.Losses) != len(g.LearningRates) {
		return fmt.Errorf("results cover %d/%d runs, want %d", len(g.Iterates), len(g.Losses), len(g.LearningRates))
	}
	for i := range g.LearningRates {
		n := len(g.Losses[i])
		if n == 0 || n > g.Steps+1 || len(g.Iterates[i]) != n {
			return fmt.Errorf("run %d: %d iterates and %d losses for %d steps", i, len(g.Iterates[i]), n, g.Steps)
		}
		for k := range n {
			if !finite(g.Iterates[i][k]) || !finite(g.Losses[i][k]) {
				return fmt.Errorf("run %d: step %d is not finite", i, k)
			}
		}
	}
	return nil
}

// Diverged reports whether run i was cut off before Steps. It is false for
// runs without results.
func (g GradientDescent) Diverged(i int) bool {
	return i < len(g.Losses) && len(g.Losses[i]) < g.Steps+1
}

// Run computes iterates and losses for every learning rate, replacing any
// previous results. A run stops early once its loss exceeds DivergenceFactor
// times the starting loss or is no longer finite.
func (g *GradientDescent) Run() error {
	g.Iterates, g.Losses = nil, nil
	if err := g.Validate(); err != nil {
		return err
	}

	g.Iterates = make([][]float64, len(g.LearningRates))
	g.Losses = make([][]float64, len(g.LearningRates))
	for i, lr := range g.LearningRates {
		xs := make([]float64, 0, g.Steps+1)
		losses := make([]float64, 0, g.Steps+1)
		x := g.Start
		limit := DivergenceFactor * g.Curvature * x * x
		for k := 0; k <= g.Steps; k++ {
			loss := g.Curvature * x * x
			if !finite(x) || !finite(loss) || (k > 0 && loss > limit) {
				break
			}
			xs = append(xs, x)
			losses = append(losses, loss)
			x -= lr * 2 * g.Curvature * x
		}
		g.Iterates[i] = xs
		g.Losses[i] = losses
	}
	return g.Validate()
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Kind implements experiment.Kinded.
func (g GradientDescent) Kind() string { return Kind }

// SummarizeParams lists the configuration, one parameter per line.
func (g GradientDescent) SummarizeParams() string {
	rates := make([]string, len(g.LearningRates))
	for i, lr := range g.LearningRates {
		rates[i] = fmt.Sprintf("%g", lr)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "experiment: %s\n", Kind)
	fmt.Fprintf(&b, "objective: f(x) = %g * x^2\n", g.Curvature)
	fmt.Fprintf(&b, "start: %g\n", g.Start)
	fmt.Fprintf(&b, "steps: %d\n", g.Steps)
	fmt.Fprintf(&b, "learning_rates: %s\n", strings.Join(rates, ", "))
	return b.String()
}

// RenderPages draws the loss curves, the iterates and the final loss per
// learning rate. An experiment that has not run, or whose results fail
// Validate, has nothing to draw.
func (g GradientDescent) RenderPages() []plot.Page {
	if len(g.Losses) == 0 || g.Validate() != nil {
		return nil
	}
	pages, err := g.pages()
	if err != nil {
		return nil
	}
	return pages
}

func (g GradientDescent) pages() ([]plot.Page, error) {
	steps := make([]float64, g.Steps+1)
	for k := range steps {
		steps[k] = float64(k)
	}

	loss := plot.NewPage("loss", plot.DefaultView("step", "loss"))
	iterates := plot.NewPage("iterates", plot.DefaultView("step", "x"))
	for i, lr := range g.LearningRates {
		legend := fmt.Sprintf("lr=%g", lr)
		if g.Diverged(i) {
			legend += " (diverged)"
		}
		n := len(g.Losses[i])

		l, err := plot.NewLine(steps[:n], g.Losses[i])
		if err != nil {
			return nil, fmt.Errorf("loss of run %d: %w", i, err)
		}
		loss = loss.Add(l.WithLegend(legend).WithWidth(1.5))

		s, err := plot.NewScatter(steps[:n], g.Iterates[i])
		if err != nil {
			return nil, fmt.Errorf("iterates of run %d: %w", i, err)
		}
		iterates = iterates.Add(s.WithLegend(legend).WithWidth(0.8))
	}

	// Diverged runs have no final loss.
	order := make([]int, 0, len(g.LearningRates))
	for i := range g.LearningRates {
		if !g.Diverged(i) {
			order = append(order, i)
		}
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(g.LearningRates[a], g.LearningRates[b])
	})
	rates := make([]float64, len(order))
	finals := make([]float64, len(order))
	for j, i := range order {
		rates[j] = g.LearningRates[i]
		finals[j] = g.Losses[i][len(g.Losses[i])-1]
	}

	final := plot.NewPage("final", plot.DefaultView("learning rate", "final loss"))
	l, err := plot.NewLine(rates, finals)
	if err != nil {
		return nil, fmt.Errorf("final losses: %w", err)
	}
	final = final.Add(l.WithColor("black").WithWidth(2).WithLegend("final loss"))

	return []plot.Page{loss, iterates, final}, nil
}
