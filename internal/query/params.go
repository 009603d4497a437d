package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// MaxBodyBytes bounds the JSON body read for any operation.
const MaxBodyBytes = 1 << 20

// Params are the raw read parameters of a request.
type Params struct {
	Filter     map[string]any `mapstructure:"filter"`
	Projection map[string]any `mapstructure:"proj"`
	Sort       any            `mapstructure:"sort"`
	Skip       any            `mapstructure:"skip"`
	Limit      any            `mapstructure:"limit"`
	Pager      any            `mapstructure:"pager"`
}

// DecodeParams maps a merged parameter set onto Params.
func DecodeParams(raw map[string]any) (Params, error) {
	var p Params
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &p,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return p, err
	}
	if err := dec.Decode(raw); err != nil {
		return p, fmt.Errorf("decode params: %w", err)
	}
	return p, nil
}

// ReadInput collects the parameters of r: the JSON body (if any) overlaid
// with the URL query, which wins on conflicts.
func ReadInput(r *http.Request) (map[string]any, error) {
	body, err := ReadBody(r)
	if err != nil {
		return nil, err
	}
	q := ParseValues(r.URL.Query())
	if body == nil {
		return q, nil
	}
	for k, v := range q {
		body[k] = v
	}
	return body, nil
}

// ReadBody decodes a JSON object body. An empty body yields nil.
func ReadBody(r *http.Request) (map[string]any, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var out map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	return out, nil
}

// ParseValues expands bracket notation (filter[name]=x, sort[]=-age,
// filter[age][$gt]=3) into nested maps. Plain values that look like JSON
// objects or arrays are decoded.
func ParseValues(values url.Values) map[string]any {
	out := map[string]any{}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		path := splitBracketKey(key)
		if len(path) == 0 {
			continue
		}
		for _, raw := range values[key] {
			var val any = raw
			if len(path) == 1 {
				val = maybeJSON(raw)
			}
			assign(out, path, val)
		}
	}
	return out
}

// splitBracketKey turns "a[b][c]" into [a b c] and "a[]" into [a ""].
func splitBracketKey(key string) []string {
	i := strings.IndexByte(key, '[')
	if i <= 0 {
		if key == "" {
			return nil
		}
		return []string{key}
	}
	path := []string{key[:i]}
	rest := key[i:]
	for len(rest) > 0 {
		if rest[0] != '[' {
			// malformed tail, keep the whole key flat
			return []string{key}
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return []string{key}
		}
		path = append(path, rest[1:end])
		rest = rest[end+1:]
	}
	return path
}

func assign(dst map[string]any, path []string, val any) {
	head := path[0]
	if len(path) == 1 {
		appendValue(dst, head, val)
		return
	}
	if path[1] == "" {
		// key[] collects a list
		list, _ := dst[head].([]any)
		dst[head] = append(list, val)
		return
	}
	child, ok := dst[head].(map[string]any)
	if !ok {
		child = map[string]any{}
		dst[head] = child
	}
	assign(child, path[1:], val)
}

func appendValue(dst map[string]any, key string, val any) {
	prev, ok := dst[key]
	if !ok {
		dst[key] = val
		return
	}
	if list, isList := prev.([]any); isList {
		dst[key] = append(list, val)
		return
	}
	dst[key] = []any{prev, val}
}

func maybeJSON(raw string) any {
	s := strings.TrimSpace(raw)
	if s == "" || (s[0] != '{' && s[0] != '[') {
		return raw
	}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return raw
	}
	return v
}
