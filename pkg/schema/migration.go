package schema

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
)

// MigrationFunc applies or reverts one schema change.
type MigrationFunc func(ctx context.Context, s *Schema) error

// Migration is one versioned schema change. Versions must be unique and
// positive; they are usually timestamps such as 20240101120000.
type Migration struct {
	Up      MigrationFunc
	Down    MigrationFunc
	Name    string
	Version int64
}

// CreateTable builds a migration whose Up creates table and whose Down drops it.
func CreateTable(version int64, table string, fn func(t *Blueprint)) Migration {
	return Migration{
		Version: version,
		Name:    "create_" + table + "_table",
		Up: func(ctx context.Context, s *Schema) error {
			return s.Create(ctx, table, fn)
		},
		Down: func(ctx context.Context, s *Schema) error {
			return s.Drop(ctx, table)
		},
	}
}

var fileNameRe = regexp.MustCompile(`^(\d+)_([a-z0-9_]+)$`)

// ParseName splits "20240101120000_create_posts_table" into version and name.
func ParseName(s string) (int64, string, error) {
	m := fileNameRe.FindStringSubmatch(s)
	if m == nil {
		return 0, "", fmt.Errorf("schema: migration name %q must look like <version>_<snake_name>", s)
	}
	v, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || v <= 0 {
		return 0, "", fmt.Errorf("schema: invalid migration version in %q", s)
	}
	return v, m[2], nil
}

// Sorted returns migrations ordered by version and rejects duplicates.
func Sorted(ms []Migration) ([]Migration, error) {
	out := slices.Clone(ms)
	slices.SortFunc(out, func(a, b Migration) int {
		switch {
		case a.Version < b.Version:
			return -1
		case a.Version > b.Version:
			return 1
		}
		return 0
	})
	for i, m := range out {
		if m.Version <= 0 {
			return nil, fmt.Errorf("schema: migration %q has no version", m.Name)
		}
		if m.Up == nil {
			return nil, fmt.Errorf("schema: migration %d_%s has no Up", m.Version, m.Name)
		}
		if i > 0 && out[i-1].Version == m.Version {
			return nil, fmt.Errorf("schema: duplicate migration version %d", m.Version)
		}
	}
	return out, nil
}
