package model

import (
	"errors"
	"fmt"
	"sort"
)

var ErrUnknownModel = errors.New("unknown model")

// Registry maps model names to their prepared descriptors.
// It is filled at start-up and only read afterwards.
type Registry struct {
	models map[string]*Model
}

func NewRegistry(models ...*Model) (*Registry, error) {
	r := &Registry{models: make(map[string]*Model, len(models))}
	for _, m := range models {
		if m == nil {
			continue
		}
		if _, dup := r.models[m.Name]; dup {
			return nil, fmt.Errorf("model %s registered twice", m.Name)
		}
		if m.keys == nil {
			if err := m.Prepare(m.Name); err != nil {
				return nil, err
			}
		}
		r.models[m.Name] = m
	}
	return r, nil
}

func InitRegistry(dir string) (*Registry, error) {
	models, err := LoadModelsFromDir(dir)
	if err != nil {
		return nil, fmt.Errorf("load error: %w", err)
	}
	return NewRegistry(models...)
}

func (r *Registry) Get(name string) (*Model, error) {
	if m, ok := r.models[name]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownModel, name)
}

// Names returns the registered model names in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.models))
	for name := range r.models {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) Len() int {
	return len(r.models)
}
