package handler

import (
	"CrudAPI/internal/model"
	"CrudAPI/internal/store"
	"CrudAPI/internal/validation"
)

// Resource is one registered model as seen by its dispatcher.
type Resource interface {
	Name() string
	Model() *model.Model
	// Fields is the full key set, reserved fields included.
	Fields() []string
	MutableFields() []string
	Validate(body map[string]any) []validation.FieldError
	Store() store.Store
}

type modelResource struct {
	model  *model.Model
	store  store.Store
	engine validation.Engine
}

// NewResource binds a model descriptor to its store and validation engine.
func NewResource(m *model.Model, s store.Store, e validation.Engine) Resource {
	return &modelResource{model: m, store: s, engine: e}
}

func (r *modelResource) Name() string            { return r.model.Name }
func (r *modelResource) Model() *model.Model     { return r.model }
func (r *modelResource) Fields() []string        { return r.model.Keys() }
func (r *modelResource) MutableFields() []string { return r.model.MutableFields() }
func (r *modelResource) Store() store.Store      { return r.store }

func (r *modelResource) Validate(body map[string]any) []validation.FieldError {
	if r.engine == nil {
		return nil
	}
	return r.engine.Validate(r.model, body)
}
