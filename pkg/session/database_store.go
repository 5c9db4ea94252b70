package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/pypehq/pype/pkg/query"
	"github.com/pypehq/pype/pkg/schema"
)

// DefaultTable is the table DatabaseStore uses unless told otherwise.
const DefaultTable = "sessions"

// DatabaseStore keeps sessions in a SQL table through the query builder.
// Times are stored as unix seconds so the table works on every dialect.
type DatabaseStore struct {
	db    *query.DB
	table string
}

func NewDatabaseStore(db *query.DB, table string) *DatabaseStore {
	if table == "" {
		table = DefaultTable
	}
	return &DatabaseStore{db: db, table: table}
}

// Migration creates the sessions table.
func Migration(version int64, table string) schema.Migration {
	if table == "" {
		table = DefaultTable
	}
	return schema.CreateTable(version, table, func(t *schema.Blueprint) {
		t.String("id", 64).Unique()
		t.String("token", 128).Unique()
		t.String("user_id", 64).Nullable()
		t.Text("payload")
		t.String("ip", 64).Nullable()
		t.Text("user_agent").Nullable()
		t.BigInteger("created_at")
		t.BigInteger("last_active_at")
		t.BigInteger("expires_at")
		t.Index("user_id")
	})
}

func (s *DatabaseStore) Create(ctx context.Context, sess *Session) error {
	row, err := s.row(sess)
	if err != nil {
		return err
	}
	_, err = s.db.Table(s.table).PrimaryKey("id").Upsert(ctx, []map[string]any{row}, "id")
	return err
}

func (s *DatabaseStore) Update(ctx context.Context, sess *Session) error {
	return s.Create(ctx, sess)
}

func (s *DatabaseStore) Get(ctx context.Context, token string) (*Session, error) {
	row, err := s.db.Table(s.table).Where("token", token).First(ctx)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrNotFound
	}

	sess := &Session{
		ID:           row.String("id"),
		Token:        row.String("token"),
		UserID:       row.String("user_id"),
		IP:           row.String("ip"),
		UserAgent:    row.String("user_agent"),
		CreatedAt:    time.Unix(row.Int64("created_at"), 0).UTC(),
		LastActiveAt: time.Unix(row.Int64("last_active_at"), 0).UTC(),
		ExpiresAt:    time.Unix(row.Int64("expires_at"), 0).UTC(),
	}
	if err := json.Unmarshal([]byte(row.String("payload")), &sess.Values); err != nil {
		return nil, errors.Join(ErrCorrupt, err)
	}
	if sess.Values == nil {
		sess.Values = map[string]any{}
	}
	if sess.IsExpired() {
		_ = s.Delete(ctx, sess.ID)
		return nil, ErrExpired
	}
	return sess, nil
}

func (s *DatabaseStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.Table(s.table).Delete(ctx, map[string]any{"id": id})
	return err
}

func (s *DatabaseStore) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := s.db.Table(s.table).Delete(ctx, map[string]any{"user_id": userID})
	return err
}

func (s *DatabaseStore) Touch(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.Table(s.table).Update(ctx,
		map[string]any{"last_active_at": at.Unix()},
		map[string]any{"id": id},
	)
	return err
}

// Prune deletes expired sessions and reports how many were removed.
func (s *DatabaseStore) Prune(ctx context.Context) (int64, error) {
	return s.db.Table(s.table).WhereOp("expires_at", "<", time.Now().Unix()).Delete(ctx, nil)
}

func (s *DatabaseStore) row(sess *Session) (map[string]any, error) {
	payload, err := json.Marshal(sess.Values)
	if err != nil {
		return nil, err
	}
	var userID any
	if sess.UserID != "" {
		userID = sess.UserID
	}
	return map[string]any{
		"id":             sess.ID,
		"token":          sess.Token,
		"user_id":        userID,
		"payload":        string(payload),
		"ip":             sess.IP,
		"user_agent":     sess.UserAgent,
		"created_at":     sess.CreatedAt.Unix(),
		"last_active_at": sess.LastActiveAt.Unix(),
		"expires_at":     sess.ExpiresAt.Unix(),
	}, nil
}

var _ Store = (*DatabaseStore)(nil)
