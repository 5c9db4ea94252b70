package validator

import (
	"context"
	"fmt"
	"net/mail"
	"net/netip"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var alphaDash = regexp.MustCompile(`^[\p{L}\p{N}_-]+$`)

func (v *Validator) builtin() map[string]RuleFunc {
	return map[string]RuleFunc{
		"required":   required,
		"email":      email,
		"numeric":    numeric,
		"integer":    integer,
		"alpha":      alpha,
		"alpha_num":  alphaNum,
		"alpha_dash": alphaDashRule,
		"url":        urlRule,
		"ip":         ip,
		"confirmed":  confirmed,
		"min":        minRule,
		"max":        maxRule,
		"between":    between,
		"in":         in,
		"not_in":     notIn,
		"regex":      v.regex,
		"unique":     v.unique,
		"exists":     v.exists,
	}
}

func required(_ context.Context, c Check) (string, error) {
	if strings.TrimSpace(c.Value) == "" {
		return c.Field + " is required", nil
	}
	return "", nil
}

func email(_ context.Context, c Check) (string, error) {
	addr, err := mail.ParseAddress(c.Value)
	if err != nil || addr.Address != c.Value {
		return c.Field + " must be a valid email", nil
	}
	return "", nil
}

func numeric(_ context.Context, c Check) (string, error) {
	if _, err := strconv.ParseFloat(strings.TrimSpace(c.Value), 64); err != nil {
		return c.Field + " must be a number", nil
	}
	return "", nil
}

func integer(_ context.Context, c Check) (string, error) {
	if _, err := strconv.ParseInt(strings.TrimSpace(c.Value), 10, 64); err != nil {
		return c.Field + " must be an integer", nil
	}
	return "", nil
}

func alpha(_ context.Context, c Check) (string, error) {
	if !onlyRunes(c.Value, unicode.IsLetter) {
		return c.Field + " must contain only letters", nil
	}
	return "", nil
}

func alphaNum(_ context.Context, c Check) (string, error) {
	ok := onlyRunes(c.Value, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) })
	if !ok {
		return c.Field + " must contain only letters and numbers", nil
	}
	return "", nil
}

func alphaDashRule(_ context.Context, c Check) (string, error) {
	if !alphaDash.MatchString(c.Value) {
		return c.Field + " may only contain letters, numbers, dashes and underscores", nil
	}
	return "", nil
}

func urlRule(_ context.Context, c Check) (string, error) {
	u, err := url.ParseRequestURI(c.Value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return c.Field + " must be a valid URL", nil
	}
	return "", nil
}

func ip(_ context.Context, c Check) (string, error) {
	if _, err := netip.ParseAddr(c.Value); err != nil {
		return c.Field + " must be a valid IP address", nil
	}
	return "", nil
}

func confirmed(_ context.Context, c Check) (string, error) {
	other, ok := c.Data[c.Field+"_confirmation"]
	if !ok || stringify(other) != c.Value {
		return c.Field + " confirmation does not match", nil
	}
	return "", nil
}

func minRule(_ context.Context, c Check) (string, error) {
	limit, err := floatArg(c.Args, 0)
	if err != nil {
		return "", err
	}
	size, unit := measure(c)
	if size < limit {
		return fmt.Sprintf("%s must be at least %s%s", c.Field, fmtNum(limit), unit), nil
	}
	return "", nil
}

func maxRule(_ context.Context, c Check) (string, error) {
	limit, err := floatArg(c.Args, 0)
	if err != nil {
		return "", err
	}
	size, unit := measure(c)
	if size > limit {
		return fmt.Sprintf("%s must not exceed %s%s", c.Field, fmtNum(limit), unit), nil
	}
	return "", nil
}

func between(_ context.Context, c Check) (string, error) {
	lo, err := floatArg(c.Args, 0)
	if err != nil {
		return "", err
	}
	hi, err := floatArg(c.Args, 1)
	if err != nil {
		return "", err
	}
	size, unit := measure(c)
	if size < lo || size > hi {
		return fmt.Sprintf("%s must be between %s and %s%s", c.Field, fmtNum(lo), fmtNum(hi), unit), nil
	}
	return "", nil
}

func in(_ context.Context, c Check) (string, error) {
	if !slices.Contains(c.Args, c.Value) {
		return c.Field + " must be one of: " + strings.Join(c.Args, ", "), nil
	}
	return "", nil
}

func notIn(_ context.Context, c Check) (string, error) {
	if slices.Contains(c.Args, c.Value) {
		return c.Field + " must not be one of: " + strings.Join(c.Args, ", "), nil
	}
	return "", nil
}

// regex accepts a bare pattern or one wrapped in slashes ("/^[a-z]+$/").
func (v *Validator) regex(_ context.Context, c Check) (string, error) {
	if len(c.Args) == 0 || c.Args[0] == "" {
		return "", fmt.Errorf("%w: regex needs a pattern", ErrInvalidRule)
	}
	pattern := c.Args[0]
	if len(pattern) > 1 && pattern[0] == '/' && strings.LastIndexByte(pattern, '/') > 0 {
		pattern = pattern[1:strings.LastIndexByte(pattern, '/')]
	}

	var re *regexp.Regexp
	if cached, ok := v.regexps.Load(pattern); ok {
		re = cached.(*regexp.Regexp)
	} else {
		compiled, err := regexp.Compile(pattern)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidRule, err)
		}
		v.regexps.Store(pattern, compiled)
		re = compiled
	}

	if !re.MatchString(c.Value) {
		return c.Field + " format is invalid", nil
	}
	return "", nil
}

// unique:table[,column[,exceptValue[,exceptColumn]]] passes when no row
// holds the value. The except pair lets an update keep its own value.
func (v *Validator) unique(ctx context.Context, c Check) (string, error) {
	if v.db == nil {
		return "", ErrNoDatabase
	}
	table, column, err := tableArgs(c)
	if err != nil {
		return "", err
	}

	q := v.db.Table(table).Where(column, c.Value)
	if len(c.Args) > 2 && c.Args[2] != "" {
		exceptCol := "id"
		if len(c.Args) > 3 && c.Args[3] != "" {
			exceptCol = c.Args[3]
		}
		q = q.WhereOp(exceptCol, "!=", c.Args[2])
	}

	found, err := q.Exists(ctx)
	if err != nil {
		return "", err
	}
	if found {
		return c.Field + " has already been taken", nil
	}
	return "", nil
}

// exists:table[,column] passes when a row holds the value.
func (v *Validator) exists(ctx context.Context, c Check) (string, error) {
	if v.db == nil {
		return "", ErrNoDatabase
	}
	table, column, err := tableArgs(c)
	if err != nil {
		return "", err
	}

	found, err := v.db.Table(table).Where(column, c.Value).Exists(ctx)
	if err != nil {
		return "", err
	}
	if !found {
		return "selected " + c.Field + " is invalid", nil
	}
	return "", nil
}

func tableArgs(c Check) (string, string, error) {
	if len(c.Args) == 0 || c.Args[0] == "" {
		return "", "", fmt.Errorf("%w: table name is required", ErrInvalidRule)
	}
	column := c.Field
	if len(c.Args) > 1 && c.Args[1] != "" {
		column = c.Args[1]
	}
	return c.Args[0], column, nil
}

// measure returns the numeric value for numeric fields and the character
// count otherwise.
func measure(c Check) (float64, string) {
	if c.Numeric {
		if f, err := strconv.ParseFloat(strings.TrimSpace(c.Value), 64); err == nil {
			return f, ""
		}
	}
	return float64(utf8.RuneCountInString(c.Value)), " characters"
}

func floatArg(args []string, i int) (float64, error) {
	if len(args) <= i {
		return 0, fmt.Errorf("%w: missing argument %d", ErrInvalidRule, i+1)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(args[i]), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidRule, args[i])
	}
	return f, nil
}

func fmtNum(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func onlyRunes(s string, keep func(rune) bool) bool {
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return false
	}
	for _, r := range s {
		if !keep(r) {
			return false
		}
	}
	return true
}
