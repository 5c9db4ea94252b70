package validator

import (
	"maps"
	"slices"
	"strings"
)

// Result collects failure messages per field, in rule order.
type Result struct {
	errors map[string][]string
}

func newResult() *Result {
	return &Result{errors: make(map[string][]string)}
}

func (r *Result) add(field, msg string) {
	r.errors[field] = append(r.errors[field], msg)
}

// Fails reports whether any check failed.
func (r *Result) Fails() bool { return len(r.errors) > 0 }

func (r *Result) Passes() bool { return !r.Fails() }

// Errors returns a copy of the messages keyed by field.
func (r *Result) Errors() map[string][]string {
	out := make(map[string][]string, len(r.errors))
	for k, v := range r.errors {
		out[k] = slices.Clone(v)
	}
	return out
}

// First returns the first message for field, or "".
func (r *Result) First(field string) string {
	if msgs := r.errors[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Error joins the first message of every failed field, sorted by field.
func (r *Result) Error() string {
	msgs := make([]string, 0, len(r.errors))
	for _, f := range sortedKeys(r.errors) {
		msgs = append(msgs, r.First(f))
	}
	return strings.Join(msgs, "; ")
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
