package internal

import "strconv"

// Scalar is the set of types the typed accessors convert to.
type Scalar interface {
	~string | ~int | ~int64 | ~float64 | ~bool
}

// ContextValue reads a typed value stored with c.Set.
func ContextValue[T any](c Context, key any) T {
	v, _ := c.Get(key).(T)
	return v
}

// Param converts a route parameter; the zero value on parse failure.
//
//	id := pype.Param[int64](c, "id")
func Param[T Scalar](c Context, name string) T {
	v, _ := parse[T](c.Param(name))
	return v
}

func Query[T Scalar](c Context, name string) T {
	v, _ := parse[T](c.Query(name))
	return v
}

// QueryDefault returns def when the parameter is empty or malformed.
func QueryDefault[T Scalar](c Context, name string, def T) T {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	if v, ok := parse[T](raw); ok {
		return v
	}
	return def
}

func Form[T Scalar](c Context, name string) T {
	v, _ := parse[T](c.Form(name))
	return v
}

func parse[T Scalar](raw string) (T, bool) {
	var zero T
	var (
		v   any
		err error
	)
	switch any(zero).(type) {
	case string:
		v = raw
	case int:
		v, err = strconv.Atoi(raw)
	case int64:
		v, err = strconv.ParseInt(raw, 10, 64)
	case float64:
		v, err = strconv.ParseFloat(raw, 64)
	case bool:
		v, err = strconv.ParseBool(raw)
	default:
		return zero, false
	}
	if err != nil {
		return zero, false
	}
	return v.(T), true
}
