package seed

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pypehq/pype/pkg/query"
)

type fixture struct {
	table string
	rows  []map[string]any
}

// FromYAML loads a fixture file shaped as {table: [row, ...]}. Tables are
// inserted in the order they appear in the file.
//
//	users:
//	  - name: Ann
//	    email: ann@example.com
//	posts:
//	  - title: Hello
//	    user_id: 1
func FromYAML(fsys fs.FS, file string) (Seeder, error) {
	data, err := fs.ReadFile(fsys, file)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFixture, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFixture, file, err)
	}

	var fixtures []fixture
	if len(doc.Content) > 0 {
		root := doc.Content[0]
		if root.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: %s: top level must map tables to rows", ErrFixture, file)
		}
		for i := 0; i+1 < len(root.Content); i += 2 {
			var f fixture
			f.table = root.Content[i].Value
			if err := root.Content[i+1].Decode(&f.rows); err != nil {
				return nil, fmt.Errorf("%w: %s: table %s: %w", ErrFixture, file, f.table, err)
			}
			fixtures = append(fixtures, f)
		}
	}

	name := strings.TrimSuffix(path.Base(file), path.Ext(file))
	return Func(name, func(ctx context.Context, db *query.DB) error {
		for _, f := range fixtures {
			for _, row := range f.rows {
				if _, err := db.Table(f.table).Insert(ctx, row); err != nil {
					return fmt.Errorf("insert into %s: %w", f.table, err)
				}
			}
		}
		return nil
	}), nil
}
