// Package experiment defines the Experiment contract and the lifecycle driver
// that saves, loads and replots experiment runs.
//
// A run directory holds three kinds of files:
//
//	params.txt      SummarizeParams output, for humans
//	data.cbor       the serialized experiment, the single source of truth
//	<page>.svg      one chart per page returned by RenderPages
//
// Only the data file is ever read back. Charts and params.txt can always be
// regenerated from it, which is what Replot does.
package experiment

import (
	"fmt"

	"github.com/nvandessel/labnote/internal/plot"
)

// Experiment is any value that can describe how to visualize itself and
// summarize its parameters. It must also round-trip through the driver's
// Codec; with the default CBOR codec that means exported fields.
type Experiment interface {
	// RenderPages describes the charts to draw. It must not perform I/O and
	// may return an empty slice.
	RenderPages() []plot.Page

	// SummarizeParams returns a human-readable dump of the configuration.
	SummarizeParams() string
}

// Kinded is implemented by experiments that name their type. The kind is
// recorded in the data file header and checked on load.
type Kinded interface {
	Kind() string
}

// Validator is implemented by experiments that can check their own state.
// Save and Plot refuse an invalid experiment before writing anything, and
// Load rejects a decoded value that fails it.
type Validator interface {
	Validate() error
}

func validate(e Experiment) error {
	if v, ok := e.(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidExperiment, err)
		}
	}
	return nil
}

// KindOf returns e's kind, falling back to its Go type name.
func KindOf(e Experiment) string {
	if k, ok := e.(Kinded); ok {
		return k.Kind()
	}
	return fmt.Sprintf("%T", e)
}
