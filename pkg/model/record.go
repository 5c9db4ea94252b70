package model

import (
	"context"
	"encoding/json"
	"maps"
	"time"

	"github.com/pypehq/pype/pkg/query"
)

// Record is one row of a Model with explicit attribute accessors.
type Record struct {
	model *Model
	attrs query.Row
}

func (r *Record) Get(col string) any { return r.attrs[col] }

// Set assigns an attribute without the fillable filter.
func (r *Record) Set(col string, val any) *Record {
	r.attrs[col] = val
	return r
}

// Fill assigns the fillable attributes of data.
func (r *Record) Fill(data map[string]any) *Record {
	maps.Copy(r.attrs, r.model.fill(data))
	return r
}

func (r *Record) Has(col string) bool { return r.attrs.Has(col) }
func (r *Record) String(col string) string { return r.attrs.String(col) }
func (r *Record) Int64(col string) int64 { return r.attrs.Int64(col) }
func (r *Record) Float64(col string) float64 { return r.attrs.Float64(col) }
func (r *Record) Bool(col string) bool { return r.attrs.Bool(col) }
func (r *Record) Time(col string) time.Time { return r.attrs.Time(col) }
func (r *Record) ID() any { return r.attrs[r.model.pk] }

// Exists reports whether the record has a primary key value.
func (r *Record) Exists() bool {
	v, ok := r.attrs[r.model.pk]
	if !ok || v == nil {
		return false
	}
	if n, isInt := v.(int64); isInt && n == 0 {
		return false
	}
	return true
}

// ToMap returns a copy of the attributes, hidden ones included.
func (r *Record) ToMap() map[string]any {
	out := make(map[string]any, len(r.attrs))
	maps.Copy(out, r.attrs)
	return out
}

func (r *Record) MarshalJSON() ([]byte, error) {
	out := r.ToMap()
	for _, col := range r.model.hidden {
		delete(out, col)
	}
	return json.Marshal(out)
}

// Save inserts a new record or updates an existing one by primary key.
func (r *Record) Save(ctx context.Context) error {
	m := r.model
	values := r.ToMap()
	delete(values, m.pk)

	if m.timestamps {
		ts := now()
		values["updated_at"] = ts
		r.attrs["updated_at"] = ts
		if !r.Exists() {
			values["created_at"] = ts
			r.attrs["created_at"] = ts
		}
	}

	if r.Exists() {
		_, err := m.Query().Update(ctx, values, map[string]any{m.pk: r.ID()})
		return err
	}

	id, err := m.Query().Insert(ctx, values)
	if err != nil {
		return err
	}
	r.attrs[m.pk] = id
	return nil
}

// Remove deletes the row behind the record.
func (r *Record) Remove(ctx context.Context) error {
	if !r.Exists() {
		return ErrNotPersisted
	}
	_, err := r.model.Destroy(ctx, r.ID())
	return err
}
