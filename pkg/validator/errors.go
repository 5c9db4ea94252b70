package validator

import "errors"

var (
	ErrUnknownRule = errors.New("validator: unknown rule")
	ErrInvalidRule = errors.New("validator: invalid rule argument")
	ErrNoDatabase  = errors.New("validator: rule needs a database")
)
