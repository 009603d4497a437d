package store

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"CrudAPI/internal/model"

	sq "github.com/Masterminds/squirrel"
)

// buildWhere translates a filter map into a squirrel condition.
// Supported forms:
//
//	{"age": 30}                      equality, nil means IS NULL
//	{"age__gte": 18}                 suffix operators
//	{"age": {"$gte": 18, "$lt": 65}} operator maps
//	{"name_or_email__cnt": "ann"}    composite fields
//	{"$or": [{...}, {...}]}          logical groups
//
// Keys are visited in sorted order so equal filters give equal SQL.
func (s *SQLStore) buildWhere(m *model.Model, filters map[string]any) (sq.Sqlizer, error) {
	if len(filters) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var exprs []sq.Sqlizer
	for _, key := range keys {
		val := filters[key]

		if key == "$or" || key == "$and" {
			group, err := s.buildGroup(m, key, val)
			if err != nil {
				return nil, err
			}
			if group != nil {
				exprs = append(exprs, group)
			}
			continue
		}

		field := key
		op := "eq"
		// split "field__op" into field name and operator
		if parts := strings.SplitN(key, "__", 2); len(parts) == 2 {
			field = parts[0]
			op = parts[1]
		}

		fields, comb := s.compositeFields(m, field)
		parts := make([]sq.Sqlizer, 0, len(fields))
		for _, f := range fields {
			cond, err := s.fieldCondition(m, f, op, val)
			if err != nil {
				return nil, fmt.Errorf("filter %q: %w", key, err)
			}
			parts = append(parts, cond)
		}

		switch {
		case comb == "_or_" && len(parts) > 1:
			exprs = append(exprs, sq.Or(parts))
		case comb == "_and_" && len(parts) > 1:
			exprs = append(exprs, sq.And(parts))
		default:
			exprs = append(exprs, parts[0])
		}
	}

	if len(exprs) == 0 {
		return nil, nil
	}
	return sq.And(exprs), nil
}

func (s *SQLStore) buildGroup(m *model.Model, key string, val any) (sq.Sqlizer, error) {
	items, ok := val.([]any)
	if !ok {
		return nil, fmt.Errorf("%s expects a list of filters", key)
	}
	var parts []sq.Sqlizer
	for _, item := range items {
		sub, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s expects a list of filters", key)
		}
		cond, err := s.buildWhere(m, sub)
		if err != nil {
			return nil, err
		}
		if cond != nil {
			parts = append(parts, cond)
		}
	}
	if len(parts) == 0 {
		return nil, nil
	}
	if key == "$or" {
		return sq.Or(parts), nil
	}
	return sq.And(parts), nil
}

// compositeFields splits "a_or_b" unless the name is itself a column.
func (s *SQLStore) compositeFields(m *model.Model, field string) ([]string, string) {
	if isColumn(m, field) {
		return []string{field}, ""
	}
	for _, comb := range []string{"_or_", "_and_"} {
		if strings.Contains(field, comb) {
			return strings.Split(field, comb), comb
		}
	}
	return []string{field}, ""
}

func (s *SQLStore) fieldCondition(m *model.Model, field, op string, val any) (sq.Sqlizer, error) {
	if ops, ok := val.(map[string]any); ok && op == "eq" && hasOperatorKeys(ops) {
		names := make([]string, 0, len(ops))
		for k := range ops {
			names = append(names, k)
		}
		sort.Strings(names)
		parts := make([]sq.Sqlizer, 0, len(names))
		for _, name := range names {
			cond, err := s.fieldCondition(m, field, strings.TrimPrefix(name, "$"), ops[name])
			if err != nil {
				return nil, err
			}
			parts = append(parts, cond)
		}
		if len(parts) == 1 {
			return parts[0], nil
		}
		return sq.And(parts), nil
	}

	col := s.dialect.Quote(field)
	v := coerceFilterValue(m, field, val)

	switch op {
	case "eq":
		return sq.Eq{col: v}, nil
	case "ne":
		return sq.NotEq{col: v}, nil
	case "in":
		if !isList(v) {
			return nil, fmt.Errorf("in expects a list")
		}
		return sq.Eq{col: v}, nil
	case "nin":
		if !isList(v) {
			return nil, fmt.Errorf("nin expects a list")
		}
		return sq.NotEq{col: v}, nil
	case "lt":
		return sq.Lt{col: v}, nil
	case "lte":
		return sq.LtOrEq{col: v}, nil
	case "gt":
		return sq.Gt{col: v}, nil
	case "gte":
		return sq.GtOrEq{col: v}, nil
	case "null":
		if truthy(v) {
			return sq.Eq{col: nil}, nil
		}
		return sq.NotEq{col: nil}, nil
	case "start", "end", "cnt":
		str, ok := val.(string)
		if !ok {
			return nil, fmt.Errorf("%s expects a string", op)
		}
		pattern := str
		switch op {
		case "start":
			pattern += "%"
		case "end":
			pattern = "%" + pattern
		default:
			pattern = "%" + pattern + "%"
		}
		if s.dialect.ILike {
			return sq.ILike{col: pattern}, nil
		}
		return sq.Like{col: pattern}, nil
	}
	return nil, fmt.Errorf("unknown filter operator %q", op)
}

func hasOperatorKeys(m map[string]any) bool {
	if len(m) == 0 {
		return false
	}
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return false
		}
	}
	return true
}

func isColumn(m *model.Model, name string) bool {
	if _, ok := m.Field(name); ok {
		return true
	}
	for _, r := range m.ReservedNames() {
		if r == name {
			return true
		}
	}
	return false
}

// coerceFilterValue converts query-string values to the column type so
// that comparisons behave the same on every engine. Values that do not
// convert are passed through for the store to reject.
func coerceFilterValue(m *model.Model, field string, val any) any {
	f, ok := m.Field(field)
	if !ok {
		switch field {
		case m.Reserved.Version:
			f = &model.Field{Name: field, Type: model.TypeInt}
		case m.Reserved.CreatedAt, m.Reserved.UpdatedAt:
			f = &model.Field{Name: field, Type: model.TypeTime}
		default:
			return val
		}
	}
	if f.Type == model.TypeJSON {
		return val
	}
	if list, ok := val.([]any); ok {
		out := make([]any, len(list))
		for i, item := range list {
			out[i] = coerceFilterValue(m, field, item)
		}
		return out
	}
	if c, err := f.Coerce(val); err == nil {
		return c
	}
	return val
}

func isList(v any) bool {
	if v == nil {
		return false
	}
	k := reflect.TypeOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "true" || t == "1"
	case nil:
		return false
	}
	return fmt.Sprint(v) != "0"
}
