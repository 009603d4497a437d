package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"CrudAPI/internal/logger"
	"CrudAPI/internal/model"
	"CrudAPI/internal/query"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// SQLStore keeps one table per model on a database/sql handle.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
	newID   func() string
}

func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{
		db:      db,
		dialect: dialect,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

func (s *SQLStore) ParseID(id string) (string, bool) { return CanonicalUUID(id) }

func (s *SQLStore) Find(ctx context.Context, m *model.Model, d query.Descriptor) ([]map[string]any, error) {
	sel, err := s.selectQuery(m, d.Projection, d.Filter)
	if err != nil {
		return nil, err
	}
	sel = s.orderBy(sel, m, d.Sort)

	skip, limit := d.Window()
	if limit > 0 {
		sel = sel.Limit(uint64(limit))
	} else if skip > 0 && s.dialect.NeedsLimitForOffset {
		sel = sel.Limit(unboundedLimit)
	}
	if skip > 0 {
		sel = sel.Offset(uint64(skip))
	}
	return s.queryRows(ctx, m, sel)
}

func (s *SQLStore) FindOne(ctx context.Context, m *model.Model, d query.Descriptor) (map[string]any, error) {
	sel, err := s.selectQuery(m, d.Projection, d.Filter)
	if err != nil {
		return nil, err
	}
	sel = s.orderBy(sel, m, d.Sort).Limit(1)
	return first(s.queryRows(ctx, m, sel))
}

func (s *SQLStore) FindByID(ctx context.Context, m *model.Model, id string, proj query.Projection) (map[string]any, error) {
	sel, err := s.selectQuery(m, proj, nil)
	if err != nil {
		return nil, err
	}
	sel = sel.Where(sq.Eq{s.dialect.Quote(m.IDField()): id}).Limit(1)
	return first(s.queryRows(ctx, m, sel))
}

func (s *SQLStore) Count(ctx context.Context, m *model.Model, filter map[string]any) (int64, error) {
	sel := s.dialect.builder().Select("COUNT(*)").From(s.dialect.Quote(m.Table))
	where, err := s.buildWhere(m, filter)
	if err != nil {
		return 0, err
	}
	if where != nil {
		sel = sel.Where(where)
	}
	sqlStr, args, err := sel.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}
	logger.Debug("sql", map[string]any{"model": m.Name, "query": sqlStr, "args": len(args)})

	var count int64
	if err := s.db.QueryRowContext(ctx, sqlStr, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// Insert stores the declared fields of doc and assigns the identity,
// timestamps and version.
func (s *SQLStore) Insert(ctx context.Context, m *model.Model, doc map[string]any) (map[string]any, error) {
	values, err := s.columnValues(m, doc)
	if err != nil {
		return nil, err
	}
	now := s.timestamp()
	values[s.dialect.Quote(m.IDField())] = s.newID()
	if m.HasTimestamps() {
		values[s.dialect.Quote(m.Reserved.CreatedAt)] = now
		values[s.dialect.Quote(m.Reserved.UpdatedAt)] = now
	}
	if m.IsVersioned() {
		values[s.dialect.Quote(m.Reserved.Version)] = int64(0)
	}

	ins := s.dialect.builder().Insert(s.dialect.Quote(m.Table)).SetMap(values).Suffix("RETURNING *")
	return first(s.queryRows(ctx, m, ins))
}

// Update applies set to the row with the given identity. An empty set is a
// no-op that returns the current row.
func (s *SQLStore) Update(ctx context.Context, m *model.Model, id string, set map[string]any) (map[string]any, error) {
	if len(set) == 0 {
		return s.FindByID(ctx, m, id, nil)
	}
	values, err := s.columnValues(m, set)
	if err != nil {
		return nil, err
	}
	if m.HasTimestamps() {
		values[s.dialect.Quote(m.Reserved.UpdatedAt)] = s.timestamp()
	}
	if m.IsVersioned() {
		v := s.dialect.Quote(m.Reserved.Version)
		values[v] = sq.Expr(v + " + 1")
	}

	upd := s.dialect.builder().Update(s.dialect.Quote(m.Table)).
		SetMap(values).
		Where(sq.Eq{s.dialect.Quote(m.IDField()): id}).
		Suffix("RETURNING *")
	return first(s.queryRows(ctx, m, upd))
}

func (s *SQLStore) Delete(ctx context.Context, m *model.Model, id string) (map[string]any, error) {
	del := s.dialect.builder().Delete(s.dialect.Quote(m.Table)).
		Where(sq.Eq{s.dialect.Quote(m.IDField()): id}).
		Suffix("RETURNING *")
	return first(s.queryRows(ctx, m, del))
}

func (s *SQLStore) selectQuery(m *model.Model, proj query.Projection, filter map[string]any) (sq.SelectBuilder, error) {
	cols := projectColumns(m, proj)
	sel := s.dialect.builder().
		Select(s.dialect.quoteAll(cols)...).
		From(s.dialect.Quote(m.Table))
	where, err := s.buildWhere(m, filter)
	if err != nil {
		return sel, err
	}
	if where != nil {
		sel = sel.Where(where)
	}
	return sel, nil
}

// orderBy appends the requested keys and then the identity, so that equal
// requests page through rows in the same order.
func (s *SQLStore) orderBy(sel sq.SelectBuilder, m *model.Model, keys query.Sort) sq.SelectBuilder {
	byID := false
	for _, k := range keys {
		dir := " ASC"
		if k.Desc {
			dir = " DESC"
		}
		sel = sel.OrderBy(s.dialect.Quote(k.Field) + dir)
		if k.Field == m.IDField() {
			byID = true
		}
	}
	if !byID {
		sel = sel.OrderBy(s.dialect.Quote(m.IDField()) + " ASC")
	}
	return sel
}

// projectColumns resolves a projection the way document stores do: any
// include turns on include mode (identity kept unless excluded), otherwise
// listed fields are dropped. Unparsable entries are ignored.
func projectColumns(m *model.Model, proj query.Projection) []string {
	keys := m.Keys()
	if len(proj) == 0 {
		return keys
	}

	include := false
	for _, v := range proj {
		if v.Valid && v.Value != 0 {
			include = true
			break
		}
	}

	var cols []string
	if include {
		seen := map[string]bool{}
		for _, k := range keys {
			v, ok := proj[k]
			if ok && v.Valid && v.Value != 0 {
				cols = append(cols, k)
				seen[k] = true
			}
		}
		var extra []string
		for k, v := range proj {
			if !seen[k] && v.Valid && v.Value != 0 {
				extra = append(extra, k)
			}
		}
		sort.Strings(extra)
		cols = append(cols, extra...)

		id := m.IDField()
		if v, ok := proj[id]; !seen[id] && !(ok && v.Valid && v.Value == 0) {
			cols = append([]string{id}, cols...)
		}
		return cols
	}

	for _, k := range keys {
		if v, ok := proj[k]; ok && v.Valid && v.Value == 0 {
			continue
		}
		cols = append(cols, k)
	}
	if len(cols) == 0 {
		cols = []string{m.IDField()}
	}
	return cols
}

// columnValues keeps the declared fields of doc, converted to their types.
// Secret values arrive hashed and are stored as given.
func (s *SQLStore) columnValues(m *model.Model, doc map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(doc)+4)
	for k, v := range doc {
		f, ok := m.Field(k)
		if !ok {
			continue
		}
		if !f.Secret {
			v = f.Normalized(v)
		}
		typed, err := f.Coerce(v)
		if err != nil {
			return nil, err
		}
		if f.Type == model.TypeJSON && typed != nil {
			data, err := json.Marshal(typed)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			typed = string(data)
		}
		out[s.dialect.Quote(k)] = typed
	}
	return out, nil
}

func (s *SQLStore) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *SQLStore) queryRows(ctx context.Context, m *model.Model, b sq.Sqlizer) ([]map[string]any, error) {
	sqlStr, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	logger.Debug("sql", map[string]any{"model": m.Name, "query": sqlStr, "args": len(args)})

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows, m)
}

func first(rows []map[string]any, err error) (map[string]any, error) {
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}
