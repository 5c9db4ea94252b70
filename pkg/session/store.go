package session

import (
	"context"
	"time"
)

// Store persists sessions. Get looks a session up by its cookie token and
// returns ErrNotFound or ErrExpired when it cannot be used.
type Store interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, token string) (*Session, error)
	Update(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
	// DeleteByUserID logs a user out everywhere.
	DeleteByUserID(ctx context.Context, userID string) error
	Touch(ctx context.Context, id string, lastActiveAt time.Time) error
}
