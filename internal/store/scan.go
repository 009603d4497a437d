package store

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"CrudAPI/internal/model"
)

// scanRows reads every row into a column-name keyed map and converts
// driver values to the declared field types.
func scanRows(rows *sql.Rows, m *model.Model) ([]map[string]any, error) {
	if rows == nil {
		return nil, nil
	}
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	types := make([]string, len(cols))
	for i, c := range cols {
		types[i] = columnType(m, c)
	}

	out := make([]map[string]any, 0, 16)
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			row[c] = decodeValue(types[i], vals[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func columnType(m *model.Model, col string) string {
	if f, ok := m.Field(col); ok {
		return f.Type
	}
	switch col {
	case m.Reserved.ID:
		return model.TypeString
	case m.Reserved.CreatedAt, m.Reserved.UpdatedAt:
		return model.TypeTime
	case m.Reserved.Version:
		return model.TypeInt
	}
	return ""
}

func decodeValue(typ string, v any) any {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	switch typ {
	case model.TypeBool:
		switch t := v.(type) {
		case int64:
			return t != 0
		case string:
			return t == "1" || strings.EqualFold(t, "true")
		}
	case model.TypeInt:
		if f, ok := v.(float64); ok {
			return int64(f)
		}
	case model.TypeFloat:
		if i, ok := v.(int64); ok {
			return float64(i)
		}
	case model.TypeTime:
		switch t := v.(type) {
		case time.Time:
			return t.UTC()
		case string:
			if ts, err := model.ParseTime(t); err == nil {
				return ts
			}
		}
	case model.TypeJSON:
		if s, ok := v.(string); ok {
			var out any
			if err := json.Unmarshal([]byte(s), &out); err == nil {
				return out
			}
		}
	}
	return v
}
