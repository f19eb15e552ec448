package experiment

import (
	"errors"
	"fmt"

	"github.com/nvandessel/labnote/internal/pathutil"
)

// ErrNotFound indicates the data file to load does not exist.
var ErrNotFound = errors.New("experiment data not found")

// ErrSchemaMismatch indicates a data file that decodes but does not describe
// the expected experiment type, usually because it was written by an
// incompatible version.
var ErrSchemaMismatch = errors.New("experiment schema mismatch")

// ErrInvalidExperiment indicates an experiment whose Validate method failed.
var ErrInvalidExperiment = errors.New("invalid experiment")

// ErrUnknownKind indicates a data file whose kind has no registered loader.
var ErrUnknownKind = errors.New("unknown experiment kind")

// IOError wraps a failed directory or file operation.
type IOError struct {
	Op   string // "mkdir", "write", "read"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, pathutil.RedactPath(e.Path), e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// SerializationError wraps a codec failure.
type SerializationError struct {
	Op  string // "encode" or "decode"
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("%s experiment: %v", e.Op, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// RenderError reports the page whose rendering failed. Pages rendered
// before it in the same batch stay on disk.
type RenderError struct {
	Page string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render page %q: %v", e.Page, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}
