package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Session is the server-side state behind the session cookie.
type Session struct {
	CreatedAt    time.Time      `json:"created_at"`
	LastActiveAt time.Time      `json:"last_active_at"`
	ExpiresAt    time.Time      `json:"expires_at"`
	Values       map[string]any `json:"values"`
	ID           string         `json:"id"`
	Token        string         `json:"token"`
	UserID       string         `json:"user_id,omitempty"`
	IP           string         `json:"ip,omitempty"`
	UserAgent    string         `json:"user_agent,omitempty"`

	dirty bool
	isNew bool
}

// New returns an unsaved session that expires at expiresAt.
func New(id, token string, expiresAt time.Time) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:           id,
		Token:        token,
		Values:       map[string]any{},
		CreatedAt:    now,
		LastActiveAt: now,
		ExpiresAt:    expiresAt.UTC(),
		dirty:        true,
		isNew:        true,
	}
}

func (s *Session) IsAuthenticated() bool { return s.UserID != "" }

func (s *Session) IsExpired() bool { return time.Now().After(s.ExpiresAt) }

// Set stores val under key and marks the session for saving.
func (s *Session) Set(key string, val any) {
	if s.Values == nil {
		s.Values = map[string]any{}
	}
	s.Values[key] = val
	s.dirty = true
}

func (s *Session) Get(key string) (any, bool) {
	v, ok := s.Values[key]
	return v, ok
}

// Delete removes key. The session only becomes dirty if key existed.
func (s *Session) Delete(key string) {
	if _, ok := s.Values[key]; ok {
		delete(s.Values, key)
		s.dirty = true
	}
}

// Pull returns and removes key.
func (s *Session) Pull(key string) (any, bool) {
	v, ok := s.Get(key)
	s.Delete(key)
	return v, ok
}

// SetUser binds the session to a user id; an empty id logs out.
func (s *Session) SetUser(id string) {
	if s.UserID != id {
		s.UserID = id
		s.dirty = true
	}
}

func (s *Session) IsDirty() bool { return s.dirty }
func (s *Session) MarkDirty()    { s.dirty = true }
func (s *Session) ClearDirty()   { s.dirty = false }
func (s *Session) IsNew() bool   { return s.isNew }
func (s *Session) ClearNew()     { s.isNew = false }

// Encode serialises the session for byte-oriented stores.
func Encode(s *Session) ([]byte, error) {
	return json.Marshal(s)
}

// Decode is the inverse of Encode. Numbers in Values come back as float64.
func Decode(data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Join(ErrCorrupt, err)
	}
	if s.Values == nil {
		s.Values = map[string]any{}
	}
	return &s, nil
}

// Value returns key as T.
func Value[T any](s *Session, key string) (T, error) {
	var zero T
	if s == nil {
		return zero, ErrNotFound
	}
	v, ok := s.Get(key)
	if !ok {
		return zero, ErrNotFound
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s is %T", ErrTypeMismatch, key, v)
	}
	return typed, nil
}

// ValueOr returns key as T or def.
func ValueOr[T any](s *Session, key string, def T) T {
	v, err := Value[T](s, key)
	if err != nil {
		return def
	}
	return v
}
