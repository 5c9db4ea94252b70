package session

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"time"

	"github.com/pypehq/pype/pkg/cache"
)

// CacheStore keeps sessions in a byte cache (cache.Memory or cache.Redis).
//
// Keys: "token:<token>" holds the session, "id:<id>" the current token and
// "user:<id>" the session ids of a user.
type CacheStore struct {
	c cache.Cache[[]byte]
}

func NewCacheStore(c cache.Cache[[]byte]) *CacheStore {
	return &CacheStore{c: c}
}

func (s *CacheStore) Create(ctx context.Context, sess *Session) error {
	return s.write(ctx, sess, "")
}

func (s *CacheStore) Get(ctx context.Context, token string) (*Session, error) {
	data, err := s.c.Get(ctx, "token:"+token)
	if errors.Is(err, cache.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	sess, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if sess.IsExpired() {
		_ = s.Delete(ctx, sess.ID)
		return nil, ErrExpired
	}
	return sess, nil
}

func (s *CacheStore) Update(ctx context.Context, sess *Session) error {
	old, err := s.c.Get(ctx, "id:"+sess.ID)
	if err != nil && !errors.Is(err, cache.ErrNotFound) {
		return err
	}
	return s.write(ctx, sess, string(old))
}

func (s *CacheStore) Delete(ctx context.Context, id string) error {
	token, err := s.c.Get(ctx, "id:"+id)
	if errors.Is(err, cache.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if data, err := s.c.Get(ctx, "token:"+string(token)); err == nil {
		if sess, err := Decode(data); err == nil && sess.UserID != "" {
			_ = s.unindex(ctx, sess.UserID, id)
		}
	}
	return errors.Join(
		s.c.Delete(ctx, "token:"+string(token)),
		s.c.Delete(ctx, "id:"+id),
	)
}

func (s *CacheStore) DeleteByUserID(ctx context.Context, userID string) error {
	ids, err := s.userSessions(ctx, userID)
	if err != nil {
		return err
	}
	var errs []error
	for _, id := range ids {
		errs = append(errs, s.Delete(ctx, id))
	}
	errs = append(errs, s.c.Delete(ctx, "user:"+userID))
	return errors.Join(errs...)
}

func (s *CacheStore) Touch(ctx context.Context, id string, at time.Time) error {
	token, err := s.c.Get(ctx, "id:"+id)
	if errors.Is(err, cache.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	sess, err := s.Get(ctx, string(token))
	if err != nil {
		return err
	}
	sess.LastActiveAt = at.UTC()
	return s.write(ctx, sess, string(token))
}

func (s *CacheStore) write(ctx context.Context, sess *Session, oldToken string) error {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return ErrExpired
	}

	data, err := Encode(sess)
	if err != nil {
		return err
	}
	if oldToken != "" && oldToken != sess.Token {
		if err := s.c.Delete(ctx, "token:"+oldToken); err != nil {
			return err
		}
	}
	if err := s.c.Set(ctx, "token:"+sess.Token, data, ttl); err != nil {
		return err
	}
	if err := s.c.Set(ctx, "id:"+sess.ID, []byte(sess.Token), ttl); err != nil {
		return err
	}
	if sess.UserID != "" {
		return s.index(ctx, sess.UserID, sess.ID)
	}
	return nil
}

func (s *CacheStore) userSessions(ctx context.Context, userID string) ([]string, error) {
	data, err := s.c.Get(ctx, "user:"+userID)
	if errors.Is(err, cache.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, errors.Join(ErrCorrupt, err)
	}
	return ids, nil
}

func (s *CacheStore) index(ctx context.Context, userID, id string) error {
	ids, err := s.userSessions(ctx, userID)
	if err != nil {
		return err
	}
	if slices.Contains(ids, id) {
		return nil
	}
	return s.saveIndex(ctx, userID, append(ids, id))
}

func (s *CacheStore) unindex(ctx context.Context, userID, id string) error {
	ids, err := s.userSessions(ctx, userID)
	if err != nil {
		return err
	}
	return s.saveIndex(ctx, userID, slices.DeleteFunc(ids, func(v string) bool { return v == id }))
}

func (s *CacheStore) saveIndex(ctx context.Context, userID string, ids []string) error {
	if len(ids) == 0 {
		return s.c.Delete(ctx, "user:"+userID)
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return s.c.Set(ctx, "user:"+userID, data, -1)
}

var _ Store = (*CacheStore)(nil)
