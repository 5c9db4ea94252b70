package validator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pypehq/pype/pkg/query"
)

// Check is what a rule sees: the field under validation, its value as a
// string, the rule arguments and the whole input.
type Check struct {
	Data  map[string]any
	Field string
	Value string
	Args  []string
	// Numeric is set when the field also carries numeric or integer, which
	// makes min, max and between compare values instead of lengths.
	Numeric bool
}

// RuleFunc returns an empty message when the check passes.
type RuleFunc func(ctx context.Context, c Check) (string, error)

// Validator applies pipe-separated rule strings to input maps. It is safe
// for concurrent use.
type Validator struct {
	db      *query.DB
	rules   map[string]RuleFunc
	regexps sync.Map
}

// Option configures a Validator.
type Option func(*Validator)

// WithDB enables the unique and exists rules. A nil db is ignored.
func WithDB(db *query.DB) Option {
	return func(v *Validator) {
		if db != nil {
			v.db = db
		}
	}
}

// WithRule registers a custom rule or replaces a built-in one.
func WithRule(name string, fn RuleFunc) Option {
	return func(v *Validator) { v.rules[name] = fn }
}

func New(opts ...Option) *Validator {
	v := &Validator{}
	v.rules = v.builtin()
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks data against rules, keyed by field name:
//
//	res, err := v.Validate(ctx, data, map[string]string{
//	    "email": "required|email|unique:users,email",
//	    "age":   "integer|between:18:99",
//	})
//
// err reports a misconfigured rule; failed checks land in the Result. An
// empty field without required skips its other rules.
func (v *Validator) Validate(ctx context.Context, data map[string]any, rules map[string]string) (*Result, error) {
	res := newResult()

	for _, field := range sortedKeys(rules) {
		parsed := parseRules(rules[field])
		value := stringify(data[field])

		if strings.TrimSpace(value) == "" && !hasRule(parsed, "required") {
			continue
		}

		numeric := hasRule(parsed, "numeric") || hasRule(parsed, "integer")
		for _, r := range parsed {
			fn, ok := v.rules[r.name]
			if !ok {
				return nil, fmt.Errorf("%w: %q on %s", ErrUnknownRule, r.name, field)
			}
			msg, err := fn(ctx, Check{
				Data:    data,
				Field:   field,
				Value:   value,
				Args:    r.args,
				Numeric: numeric,
			})
			if err != nil {
				return nil, fmt.Errorf("%s: %s: %w", field, r.name, err)
			}
			if msg != "" {
				res.add(field, msg)
			}
		}
	}
	return res, nil
}

var defaultValidator = New()

// Validate runs data against rules with a validator that has no database.
func Validate(ctx context.Context, data map[string]any, rules map[string]string) (*Result, error) {
	return defaultValidator.Validate(ctx, data, rules)
}

type rule struct {
	name string
	args []string
}

// parseRules splits "required|min:3|regex:^a|b$". Everything after regex:
// belongs to the pattern, pipes included.
func parseRules(s string) []rule {
	var out []rule
	parts := strings.Split(s, "|")
	for i := 0; i < len(parts); i++ {
		p := strings.TrimSpace(parts[i])
		if p == "" {
			continue
		}
		name, arg, hasArg := strings.Cut(p, ":")
		r := rule{name: name}
		switch {
		case name == "regex":
			r.args = []string{strings.Join(append([]string{arg}, parts[i+1:]...), "|")}
			i = len(parts)
		case name == "between":
			r.args = strings.Split(arg, ":")
		case hasArg:
			r.args = strings.Split(arg, ",")
		}
		out = append(out, r)
	}
	return out
}

func hasRule(rules []rule, name string) bool {
	for _, r := range rules {
		if r.name == name {
			return true
		}
	}
	return false
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []string:
		if len(t) == 0 {
			return ""
		}
		return t[0]
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}
