package query

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Int is a base-10 integer taken from untrusted input.
// Present without Valid is the "not a number" case: the caller sent
// something that does not parse.
type Int struct {
	Value   int64
	Present bool
	Valid   bool
}

func (i Int) String() string {
	switch {
	case !i.Present:
		return "absent"
	case !i.Valid:
		return "NaN"
	default:
		return strconv.FormatInt(i.Value, 10)
	}
}

// ParseInt parses raw as a base-10 integer. nil and the empty string are
// absent. Fractional numbers are truncated toward zero.
func ParseInt(raw any) Int {
	switch v := raw.(type) {
	case nil:
		return Int{}
	case Int:
		return v
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return Int{}
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Int{Present: true}
		}
		return Int{Value: n, Present: true, Valid: true}
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return Int{Value: n, Present: true, Valid: true}
		}
		f, err := v.Float64()
		if err != nil {
			return Int{Present: true}
		}
		return fromFloat(f)
	case float64:
		return fromFloat(v)
	case float32:
		return fromFloat(float64(v))
	case int:
		return Int{Value: int64(v), Present: true, Valid: true}
	case int32:
		return Int{Value: int64(v), Present: true, Valid: true}
	case int64:
		return Int{Value: v, Present: true, Valid: true}
	case uint:
		return Int{Value: int64(v), Present: true, Valid: uint64(v) <= math.MaxInt64}
	case uint64:
		return Int{Value: int64(v), Present: true, Valid: v <= math.MaxInt64}
	case []any:
		// repeated query parameter: the first value wins
		if len(v) == 0 {
			return Int{}
		}
		return ParseInt(v[0])
	case []string:
		if len(v) == 0 {
			return Int{}
		}
		return ParseInt(v[0])
	case fmt.Stringer:
		return ParseInt(v.String())
	default:
		return Int{Present: true}
	}
}

func fromFloat(f float64) Int {
	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt64 || f < math.MinInt64 {
		return Int{Present: true}
	}
	return Int{Value: int64(f), Present: true, Valid: true}
}
