package validation

import "sort"

// Outcome is the result of splitting validation errors by the fields a
// write actually touches.
type Outcome struct {
	Errors        []FieldError
	MutationSet   map[string]any
	BlockedFields []string
}

func (o Outcome) Rejected() bool {
	return len(o.Errors) > 0
}

// Partition keeps the body keys that are mutable, reports the other keys
// as blocked and only lets errors on kept keys block the write. When the
// write is rejected the mutation set and blocked fields are dropped.
func Partition(errs []FieldError, mutable []string, body map[string]any) Outcome {
	allowed := make(map[string]bool, len(mutable))
	for _, f := range mutable {
		allowed[f] = true
	}

	set := make(map[string]any, len(body))
	blocked := make([]string, 0)
	for k, v := range body {
		if allowed[k] {
			set[k] = v
		} else {
			blocked = append(blocked, k)
		}
	}
	sort.Strings(blocked)

	var relevant []FieldError
	for _, e := range errs {
		if _, ok := set[e.Field]; ok {
			relevant = append(relevant, e)
		}
	}
	if len(relevant) > 0 {
		return Outcome{Errors: relevant}
	}
	return Outcome{MutationSet: set, BlockedFields: blocked}
}
