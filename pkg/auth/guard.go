package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"maps"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/pypehq/pype/pkg/query"
	"github.com/pypehq/pype/pkg/schema"
)

// Defaults.
const (
	DefaultTable       = "users"
	DefaultTokensTable = "remember_me_tokens"
	DefaultRememberTTL = 30 * 24 * time.Hour
)

// Guard authenticates against a credentials table. It never touches HTTP
// state; handlers store the returned id with Context.AuthenticateSession.
type Guard struct {
	db          *query.DB
	table       string
	emailCol    string
	passwordCol string
	tokens      string
	rememberTTL time.Duration
	cost        int
	now         func() time.Time
}

// Option configures a Guard.
type Option func(*Guard)

// WithTable authenticates against another table, e.g. "admins".
func WithTable(table string) Option {
	return func(g *Guard) { g.table = table }
}

// WithColumns renames the email and password columns.
func WithColumns(email, password string) Option {
	return func(g *Guard) {
		g.emailCol = email
		g.passwordCol = password
	}
}

func WithTokensTable(table string) Option {
	return func(g *Guard) { g.tokens = table }
}

func WithRememberTTL(d time.Duration) Option {
	return func(g *Guard) { g.rememberTTL = d }
}

// WithBcryptCost overrides bcrypt.DefaultCost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(g *Guard) { g.cost = cost }
}

func New(db *query.DB, opts ...Option) *Guard {
	g := &Guard{
		db:          db,
		table:       DefaultTable,
		emailCol:    "email",
		passwordCol: "password",
		tokens:      DefaultTokensTable,
		rememberTTL: DefaultRememberTTL,
		cost:        bcrypt.DefaultCost,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Attempt checks email and password and returns the user row without the
// password column.
func (g *Guard) Attempt(ctx context.Context, email, password string) (query.Row, error) {
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	user, err := g.db.Table(g.table).Where(g.emailCol, email).First(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil || !CheckPassword(user.String(g.passwordCol), password) {
		return nil, ErrInvalidCredentials
	}
	return user.Except(g.passwordCol), nil
}

// Register hashes the password column of data, inserts the row and returns
// it with its new id and without the password.
func (g *Guard) Register(ctx context.Context, data map[string]any) (query.Row, error) {
	pw, _ := data[g.passwordCol].(string)
	email, _ := data[g.emailCol].(string)
	if pw == "" || email == "" {
		return nil, ErrMissingCredentials
	}

	hash, err := g.HashPassword(pw)
	if err != nil {
		return nil, err
	}

	values := maps.Clone(data)
	values[g.passwordCol] = hash

	id, err := g.db.Table(g.table).Insert(ctx, values)
	if err != nil {
		if g.db.Driver().IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	row := query.Row(values).Except(g.passwordCol)
	row["id"] = id
	return row, nil
}

// User loads a user by id without the password column. Unknown ids return
// nil, nil.
func (g *Guard) User(ctx context.Context, id any) (query.Row, error) {
	user, err := g.db.Table(g.table).Find(ctx, id)
	if err != nil || user == nil {
		return nil, err
	}
	return user.Except(g.passwordCol), nil
}

// HashPassword returns a bcrypt hash using the guard's cost.
func (g *Guard) HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), g.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(b), nil
}

// CheckPassword reports whether password matches a bcrypt hash.
func CheckPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IssueRememberToken stores a new remember-me token for userID and returns
// the raw value for the cookie. Only its SHA-256 digest is persisted.
func (g *Guard) IssueRememberToken(ctx context.Context, userID any) (string, time.Time, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", time.Time{}, fmt.Errorf("auth: generate token: %w", err)
	}
	token := hex.EncodeToString(raw)

	now := g.now()
	expires := now.Add(g.rememberTTL)
	_, err := g.db.Table(g.tokens).Insert(ctx, map[string]any{
		"user_id":    fmt.Sprint(userID),
		"token":      digest(token),
		"expires_at": expires.Unix(),
		"created_at": now.Unix(),
	})
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expires, nil
}

// ResolveRememberToken returns the user id behind an unexpired token, or ""
// when the token is unknown or expired. Expired tokens are removed.
func (g *Guard) ResolveRememberToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", nil
	}
	row, err := g.db.Table(g.tokens).Where("token", digest(token)).First(ctx)
	if err != nil || row == nil {
		return "", err
	}
	if row.Int64("expires_at") <= g.now().Unix() {
		if _, err := g.db.Table(g.tokens).Delete(ctx, map[string]any{"token": digest(token)}); err != nil {
			return "", err
		}
		return "", nil
	}

	user, err := g.User(ctx, row.String("user_id"))
	if err != nil || user == nil {
		return "", err
	}
	return user.String("id"), nil
}

// ForgetRememberToken deletes a token, typically on logout.
func (g *Guard) ForgetRememberToken(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	_, err := g.db.Table(g.tokens).Delete(ctx, map[string]any{"token": digest(token)})
	return err
}

// PruneExpiredTokens removes every expired remember-me token.
func (g *Guard) PruneExpiredTokens(ctx context.Context) (int64, error) {
	return g.db.Table(g.tokens).WhereOp("expires_at", "<=", g.now().Unix()).Delete(ctx, nil)
}

// Migration creates the remember-me tokens table.
func (g *Guard) Migration(version int64) schema.Migration {
	return schema.CreateTable(version, g.tokens, func(t *schema.Blueprint) {
		t.ID()
		t.String("user_id", 64)
		t.String("token", 64).Unique()
		t.BigInteger("expires_at")
		t.BigInteger("created_at")
		t.Index("user_id")
	})
}

func digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
