package model

import (
	"context"
	"errors"
	"maps"
	"slices"
	"time"

	"github.com/pypehq/pype/pkg/query"
	"github.com/pypehq/pype/pkg/schema"
)

// ErrNotPersisted is returned by Remove on a record without a primary key.
var ErrNotPersisted = errors.New("model: record has no primary key")

// Model binds a table to a query handle. It holds no per-query state and
// can be shared across goroutines.
type Model struct {
	db         *query.DB
	schema     func(t *schema.Blueprint)
	table      string
	pk         string
	fillable   []string
	hidden     []string
	timestamps bool
}

// Option configures a Model.
type Option func(*Model)

// WithPrimaryKey sets the key column. Default "id".
func WithPrimaryKey(col string) Option {
	return func(m *Model) { m.pk = col }
}

// WithFillable limits Create, Fill and UpdateRecord to cols.
func WithFillable(cols ...string) Option {
	return func(m *Model) { m.fillable = cols }
}

// WithHidden leaves cols out of JSON output.
func WithHidden(cols ...string) Option {
	return func(m *Model) { m.hidden = cols }
}

// WithTimestamps maintains created_at and updated_at.
func WithTimestamps() Option {
	return func(m *Model) { m.timestamps = true }
}

// WithSchema declares the table layout used by Migration.
func WithSchema(fn func(t *schema.Blueprint)) Option {
	return func(m *Model) { m.schema = fn }
}

// Define returns a Model for table.
//
//	var Posts = model.Define(db, "posts",
//	    model.WithFillable("title", "body"),
//	    model.WithTimestamps(),
//	)
func Define(db *query.DB, table string, opts ...Option) *Model {
	m := &Model{db: db, table: table, pk: "id"}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Model) Table() string { return m.table }
func (m *Model) PrimaryKey() string { return m.pk }

// Query starts a builder on the model table.
func (m *Model) Query() *query.Builder {
	return m.db.Table(m.table).PrimaryKey(m.pk)
}

// Migration creates the table from WithSchema. Without a schema the table
// only gets an id column.
func (m *Model) Migration(version int64) schema.Migration {
	fn := m.schema
	if fn == nil {
		fn = func(t *schema.Blueprint) { t.ID() }
	}
	return schema.CreateTable(version, m.table, fn)
}

// New returns an unsaved record.
func (m *Model) New(attrs map[string]any) *Record {
	r := &Record{model: m, attrs: make(query.Row, len(attrs))}
	maps.Copy(r.attrs, attrs)
	return r
}

func (m *Model) All(ctx context.Context) ([]*Record, error) {
	return m.wrap(m.Query().Get(ctx))
}

// Find returns nil, nil when no row has the key.
func (m *Model) Find(ctx context.Context, id any) (*Record, error) {
	return m.wrapOne(m.Query().Find(ctx, id))
}

// FindOrFail returns a *query.NotFoundError for a missing row.
func (m *Model) FindOrFail(ctx context.Context, id any) (*Record, error) {
	return m.wrapOne(m.Query().FindOrFail(ctx, id))
}

func (m *Model) FindBy(ctx context.Context, col string, val any) (*Record, error) {
	return m.wrapOne(m.Query().Where(col, val).First(ctx))
}

// Filter ANDs equality conditions. An empty map returns every row.
func (m *Model) Filter(ctx context.Context, conds map[string]any) ([]*Record, error) {
	return m.wrap(m.Query().WhereMap(conds).Get(ctx))
}

func (m *Model) First(ctx context.Context) (*Record, error) {
	return m.wrapOne(m.Query().OrderBy(m.pk, "asc").First(ctx))
}

func (m *Model) Count(ctx context.Context) (int64, error) {
	return m.Query().Count(ctx)
}

// Create inserts the fillable part of data and returns the stored record
// with its new key.
func (m *Model) Create(ctx context.Context, data map[string]any) (*Record, error) {
	r := m.New(nil).Fill(data)
	if err := r.Save(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateRecord updates the fillable part of data on the row with id.
func (m *Model) UpdateRecord(ctx context.Context, id any, data map[string]any) (int64, error) {
	values := m.fill(data)
	if m.timestamps {
		values["updated_at"] = now()
	}
	return m.Query().Update(ctx, values, map[string]any{m.pk: id})
}

func (m *Model) Destroy(ctx context.Context, id any) (int64, error) {
	return m.Query().Delete(ctx, map[string]any{m.pk: id})
}

func (m *Model) Truncate(ctx context.Context) error {
	return m.db.Truncate(ctx, m.table)
}

// Raw runs a read statement and wraps each row as a record of this model.
func (m *Model) Raw(ctx context.Context, sql string, args ...any) ([]*Record, error) {
	return m.wrap(m.db.Raw(ctx, sql, args...))
}

func (m *Model) fill(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		if len(m.fillable) == 0 || slices.Contains(m.fillable, k) {
			out[k] = v
		}
	}
	return out
}

func (m *Model) wrap(rows []query.Row, err error) ([]*Record, error) {
	if err != nil {
		return nil, err
	}
	out := make([]*Record, len(rows))
	for i, row := range rows {
		out[i] = &Record{model: m, attrs: row}
	}
	return out, nil
}

func (m *Model) wrapOne(row query.Row, err error) (*Record, error) {
	if err != nil || row == nil {
		return nil, err
	}
	return &Record{model: m, attrs: row}, nil
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
