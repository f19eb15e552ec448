package experiment

import (
	"fmt"
	"path/filepath"
	"sort"
)

type loaderFunc func(d *Driver, path string) (Experiment, error)

// Registry maps experiment kinds to their Go types so a run directory can be
// loaded or replotted knowing only the kind in its data file header.
type Registry struct {
	loaders map[string]loaderFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{loaders: make(map[string]loaderFunc)}
}

// Register associates kind with E. E should be a value type whose Kind
// method, if any, returns kind.
func Register[E Experiment](r *Registry, kind string) {
	r.loaders[kind] = func(d *Driver, path string) (Experiment, error) {
		return Load[E](d, path)
	}
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.loaders))
	for k := range r.loaders {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Load decodes the data file at path. When kind is empty it is taken from
// the file header; legacy files without a header need an explicit kind.
func (r *Registry) Load(d *Driver, path, kind string) (Experiment, error) {
	if kind == "" {
		header, err := ReadHeader(path)
		if err != nil {
			return nil, err
		}
		if header == nil {
			return nil, fmt.Errorf("%w: %s has no header, specify the kind explicitly", ErrUnknownKind, filepath.Base(path))
		}
		kind = header.Kind
	}

	load, ok := r.loaders[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %v)", ErrUnknownKind, kind, r.Kinds())
	}
	return load(d, path)
}

// Replot loads dir's data file and regenerates its images.
func (r *Registry) Replot(d *Driver, dir, kind string) (Experiment, error) {
	e, err := r.Load(d, d.DataPath(dir), kind)
	if err != nil {
		return nil, err
	}
	d.logger.Info("replotting", "dir", dir, "kind", KindOf(e))
	if err := d.Plot(e, dir); err != nil {
		return nil, err
	}
	return e, nil
}
