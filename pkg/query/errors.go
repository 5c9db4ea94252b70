package query

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("query: record not found")
	ErrQuery            = errors.New("query: statement failed")
	ErrRawStatement     = errors.New("query: full SQL statement passed where a table or column was expected, use DB.Raw instead")
	ErrInvalidOperator  = errors.New("query: invalid comparison operator")
	ErrInvalidDirection = errors.New("query: invalid order direction")
	ErrEmptyData        = errors.New("query: no columns given")
	ErrNoConditions     = errors.New("query: refusing to run without conditions")
	ErrColumnMismatch   = errors.New("query: rows have different column sets")
	ErrUnknownDriver    = errors.New("query: unknown driver")
)

// NotFoundError is returned by the *OrFail lookups.
type NotFoundError struct {
	Value  any
	Table  string
	Column string
}

func (e *NotFoundError) Error() string {
	if e.Column == "id" {
		return fmt.Sprintf("record with ID %v not found in %s", e.Value, e.Table)
	}
	return fmt.Sprintf("record with %s %v not found in %s", e.Column, e.Value, e.Table)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// QueryError carries the failed statement along with the native driver error.
type QueryError struct {
	Err error
	SQL string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query: %v [%s]", e.Err, e.SQL)
}

func (e *QueryError) Unwrap() []error {
	return []error{ErrQuery, e.Err}
}

func queryError(sql string, err error) error {
	if err == nil {
		return nil
	}
	var qe *QueryError
	if errors.As(err, &qe) {
		return err
	}
	return &QueryError{SQL: sql, Err: err}
}
