package query

import (
	"encoding/json"
	"sort"
	"strings"
)

// Projection maps field names to 1 (include) or 0 (exclude).
// A nil Projection means "all fields".
type Projection map[string]Int

type SortKey struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc,omitempty"`
}

type Sort []SortKey

// Descriptor is the typed plan of one read request. Field names are not
// checked against the model here; the store rejects unknown columns.
type Descriptor struct {
	Filter     map[string]any
	Projection Projection
	Sort       Sort
	Skip       Int
	Limit      Int
	Pager      Pager
}

// Build never fails and never modifies p.
func Build(p Params) Descriptor {
	requested, number, size := pagerRequest(p.Pager)
	return Descriptor{
		Filter:     cloneMap(p.Filter),
		Projection: BuildProjection(p.Projection),
		Sort:       BuildSort(p.Sort),
		Skip:       ParseInt(p.Skip),
		Limit:      ParseInt(p.Limit),
		Pager:      Paginate(requested, number, size),
	}
}

// BuildProjection parses every value as a base-10 integer. An empty or
// missing projection yields nil.
func BuildProjection(raw map[string]any) Projection {
	if len(raw) == 0 {
		return nil
	}
	out := make(Projection, len(raw))
	for k, v := range raw {
		out[k] = ParseInt(v)
	}
	return out
}

// BuildSort accepts "name -age", ["name", "-age"] or {"name": 1, "age": -1}.
// Mapping keys are ordered by name since JSON objects carry no order.
func BuildSort(raw any) Sort {
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		return parseSortString(v)
	case []any:
		var out Sort
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, parseSortString(s)...)
			}
		}
		return out
	case []string:
		var out Sort
		for _, s := range v {
			out = append(out, parseSortString(s)...)
		}
		return out
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(Sort, 0, len(keys))
		for _, k := range keys {
			out = append(out, SortKey{Field: k, Desc: isDescending(v[k])})
		}
		return out
	}
	return nil
}

func parseSortString(s string) Sort {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' })
	out := make(Sort, 0, len(fields))
	for _, f := range fields {
		key := SortKey{Field: f}
		switch f[0] {
		case '-':
			key = SortKey{Field: f[1:], Desc: true}
		case '+':
			key.Field = f[1:]
		}
		if key.Field != "" {
			out = append(out, key)
		}
	}
	return out
}

func isDescending(v any) bool {
	if s, ok := v.(string); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "desc", "descending":
			return true
		}
	}
	n := ParseInt(v)
	return n.Valid && n.Value < 0
}

// Window returns the effective skip and limit. limit 0 means unbounded.
// An active pager overrides skip/limit; negative or unparsable values
// count as absent.
func (d Descriptor) Window() (skip, limit int64) {
	if d.Pager.Requested {
		return d.Pager.Skip(), d.Pager.Limit()
	}
	if d.Skip.Valid && d.Skip.Value > 0 {
		skip = d.Skip.Value
	}
	if d.Limit.Valid && d.Limit.Value > 0 {
		limit = d.Limit.Value
	}
	return skip, limit
}

// Invalid lists the parameters that were sent but did not parse.
func (d Descriptor) Invalid() []string {
	var out []string
	if d.Skip.Present && !d.Skip.Valid {
		out = append(out, "skip")
	}
	if d.Limit.Present && !d.Limit.Valid {
		out = append(out, "limit")
	}
	keys := make([]string, 0, len(d.Projection))
	for k, v := range d.Projection {
		if v.Present && !v.Valid {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, "proj."+k)
	}
	return out
}

// CacheKey is a stable JSON form of the descriptor, used for cache keys.
func (d Descriptor) CacheKey() map[string]any {
	proj := make(map[string]any, len(d.Projection))
	for k, v := range d.Projection {
		proj[k] = v.String()
	}
	skip, limit := d.Window()
	sortKeys := make([]any, 0, len(d.Sort))
	for _, s := range d.Sort {
		dir := "asc"
		if s.Desc {
			dir = "desc"
		}
		sortKeys = append(sortKeys, s.Field+":"+dir)
	}
	return map[string]any{
		"filter": normalizeJSON(d.Filter),
		"proj":   proj,
		"sort":   sortKeys,
		"skip":   skip,
		"limit":  limit,
	}
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		switch t := v.(type) {
		case map[string]any:
			out[k] = cloneMap(t)
		case []any:
			out[k] = append([]any(nil), t...)
		default:
			out[k] = v
		}
	}
	return out
}

// normalizeJSON round-trips v through encoding/json so that equal
// filters built from different Go types compare equal.
func normalizeJSON(v any) any {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil
	}
	return out
}
