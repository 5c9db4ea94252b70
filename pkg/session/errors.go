package session

import "errors"

var (
	ErrNotConfigured = errors.New("session: not configured")
	ErrNotFound      = errors.New("session: not found")
	ErrExpired       = errors.New("session: expired")
	ErrTypeMismatch  = errors.New("session: value type mismatch")
	ErrCorrupt       = errors.New("session: stored payload is corrupt")
)
