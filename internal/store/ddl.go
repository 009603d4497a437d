package store

import (
	"context"
	"fmt"
	"strings"

	"CrudAPI/internal/logger"
	"CrudAPI/internal/model"
)

// CreateTableSQL derives a CREATE TABLE IF NOT EXISTS statement for m.
func CreateTableSQL(d Dialect, m *model.Model) (string, error) {
	cols := make([]string, 0, len(m.Fields)+4)
	cols = append(cols, fmt.Sprintf("%s %s PRIMARY KEY", d.Quote(m.IDField()), d.IDType))
	for _, f := range m.Fields {
		typ, ok := d.ColumnTypes[f.Type]
		if !ok {
			return "", fmt.Errorf("model %s: no %s column type for %q", m.Name, d.Name, f.Type)
		}
		cols = append(cols, fmt.Sprintf("%s %s", d.Quote(f.Name), typ))
	}
	if m.HasTimestamps() {
		ts := d.ColumnTypes[model.TypeTime]
		cols = append(cols,
			fmt.Sprintf("%s %s NOT NULL", d.Quote(m.Reserved.CreatedAt), ts),
			fmt.Sprintf("%s %s NOT NULL", d.Quote(m.Reserved.UpdatedAt), ts),
		)
	}
	if m.IsVersioned() {
		cols = append(cols, fmt.Sprintf("%s %s NOT NULL DEFAULT 0", d.Quote(m.Reserved.Version), d.ColumnTypes[model.TypeInt]))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)", d.Quote(m.Table), strings.Join(cols, ",\n  ")), nil
}

// CreateTables creates the missing tables of every model.
func (s *SQLStore) CreateTables(ctx context.Context, models ...*model.Model) error {
	for _, m := range models {
		stmt, err := CreateTableSQL(s.dialect, m)
		if err != nil {
			return err
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create table %s: %w", m.Table, err)
		}
		logger.Info("table_ready", map[string]any{"model": m.Name, "table": m.Table})
	}
	return nil
}
