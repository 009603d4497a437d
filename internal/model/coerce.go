package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Normalized applies the field normalizers to string values.
func (f *Field) Normalized(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	for _, n := range f.Normalize {
		switch n {
		case "trim":
			s = strings.TrimSpace(s)
		case "lowercase":
			s = strings.ToLower(s)
		case "uppercase":
			s = strings.ToUpper(s)
		}
	}
	return s
}

// Coerce converts a decoded JSON or query-string value to the Go type of
// the field. nil stays nil.
func (f *Field) Coerce(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch f.Type {
	case TypeString, "":
		switch t := v.(type) {
		case string:
			return t, nil
		case json.Number:
			return t.String(), nil
		case bool, int, int64, float64:
			return fmt.Sprint(t), nil
		}
	case TypeInt:
		switch t := v.(type) {
		case int:
			return int64(t), nil
		case int64:
			return t, nil
		case json.Number:
			if n, err := t.Int64(); err == nil {
				return n, nil
			}
		case float64:
			if t == math.Trunc(t) && !math.IsInf(t, 0) {
				return int64(t), nil
			}
		case string:
			if n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64); err == nil {
				return n, nil
			}
		}
	case TypeFloat:
		switch t := v.(type) {
		case float64:
			return t, nil
		case int64:
			return float64(t), nil
		case int:
			return float64(t), nil
		case json.Number:
			if n, err := t.Float64(); err == nil {
				return n, nil
			}
		case string:
			if n, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
				return n, nil
			}
		}
	case TypeBool:
		switch t := v.(type) {
		case bool:
			return t, nil
		case int64:
			return t != 0, nil
		case string:
			if b, err := strconv.ParseBool(strings.TrimSpace(t)); err == nil {
				return b, nil
			}
		case json.Number:
			if n, err := t.Int64(); err == nil && (n == 0 || n == 1) {
				return n == 1, nil
			}
		}
	case TypeTime:
		switch t := v.(type) {
		case time.Time:
			return t.UTC(), nil
		case string:
			if ts, err := ParseTime(t); err == nil {
				return ts, nil
			}
		}
	case TypeJSON:
		return v, nil
	}
	return nil, fmt.Errorf("%s: expected %s, got %T", f.Name, f.Type, v)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q", s)
}
