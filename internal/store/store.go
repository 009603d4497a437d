package store

import (
	"context"

	"CrudAPI/internal/model"
	"CrudAPI/internal/query"

	"github.com/google/uuid"
)

// Store is the persistence contract of the CRUD dispatcher.
// Lookups by identity return (nil, nil) when nothing matches.
type Store interface {
	Find(ctx context.Context, m *model.Model, d query.Descriptor) ([]map[string]any, error)
	FindOne(ctx context.Context, m *model.Model, d query.Descriptor) (map[string]any, error)
	FindByID(ctx context.Context, m *model.Model, id string, proj query.Projection) (map[string]any, error)
	Count(ctx context.Context, m *model.Model, filter map[string]any) (int64, error)
	Insert(ctx context.Context, m *model.Model, doc map[string]any) (map[string]any, error)
	Update(ctx context.Context, m *model.Model, id string, set map[string]any) (map[string]any, error)
	Delete(ctx context.Context, m *model.Model, id string) (map[string]any, error)
	// ParseID checks id against the identity format and returns its
	// canonical spelling, the one stored in the identity column.
	ParseID(id string) (string, bool)
}

// CanonicalUUID is the identity format of every SQL-backed model. uuid.Parse
// also takes braced, urn:uuid: and unhyphenated spellings; they are folded
// to the lowercase hyphenated form the store writes.
func CanonicalUUID(id string) (string, bool) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return u.String(), true
}
