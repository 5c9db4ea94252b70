package console

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/spf13/cobra"
)

//go:embed stubs/*.tmpl
var stubFS embed.FS

var stubs = template.Must(template.ParseFS(stubFS, "stubs/*.tmpl"))

// ErrExists is returned when a make:* target file is already present.
var ErrExists = errors.New("file already exists")

type scaffold struct {
	use   string
	short string
	stub  string
	// plan returns the target path relative to the project root and the
	// template data.
	plan func(name string) (string, map[string]any)
}

func (c *Console) makeCmds() []*cobra.Command {
	scaffolds := []scaffold{
		{use: "make:controller", short: "Create a controller", stub: "controller.go.tmpl", plan: planController},
		{use: "make:model", short: "Create a model", stub: "model.go.tmpl", plan: planModel},
		{use: "make:middleware", short: "Create a middleware", stub: "middleware.go.tmpl", plan: planMiddleware},
		{use: "make:view", short: "Create a view (dot notation: posts.index)", stub: "view.html.tmpl", plan: planView},
		{use: "make:migration", short: "Create a migration (create_posts_table)", stub: "migration.go.tmpl", plan: c.planMigration},
	}

	cmds := make([]*cobra.Command, 0, len(scaffolds))
	for _, s := range scaffolds {
		cmds = append(cmds, &cobra.Command{
			Use:   s.use + " <name>",
			Short: s.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				rel, data := s.plan(args[0])
				if err := c.write(rel, s.stub, data); err != nil {
					return err
				}
				printer{w: cmd.OutOrStdout()}.Success("Created %s", filepath.ToSlash(rel))
				return nil
			},
		})
	}
	return cmds
}

func (c *Console) write(rel, stub string, data map[string]any) error {
	path := filepath.Join(c.root, rel)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrExists, filepath.ToSlash(rel))
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	var buf bytes.Buffer
	if err := stubs.ExecuteTemplate(&buf, stub, data); err != nil {
		return fmt.Errorf("render %s: %w", stub, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// goTarget maps "admin.User" under base to base/admin/user.go in package
// admin.
func goTarget(base, name, suffix string) (string, string, string) {
	dirs, last := splitDotted(name)
	typ := pascal(last)
	if suffix != "" && !strings.HasSuffix(typ, suffix) {
		typ += suffix
	}
	pkg := filepath.Base(base)
	if len(dirs) > 0 {
		pkg = strings.ToLower(dirs[len(dirs)-1])
	}
	rel := filepath.Join(append(append([]string{base}, dirs...), snake(typ)+".go")...)
	return rel, pkg, typ
}

func planController(name string) (string, map[string]any) {
	rel, pkg, typ := goTarget(filepath.Join("app", "controllers"), name, "Controller")
	return rel, map[string]any{
		"Package":  pkg,
		"Name":     typ,
		"Resource": strings.ReplaceAll(snake(strings.TrimSuffix(typ, "Controller")), "_", " "),
	}
}

func planModel(name string) (string, map[string]any) {
	rel, pkg, typ := goTarget(filepath.Join("app", "models"), name, "")
	return rel, map[string]any{
		"Package": pkg,
		"Name":    typ,
		"Table":   plural(snake(typ)),
	}
}

func planMiddleware(name string) (string, map[string]any) {
	rel, pkg, typ := goTarget(filepath.Join("app", "middleware"), name, "")
	return rel, map[string]any{"Package": pkg, "Name": typ}
}

func planView(name string) (string, map[string]any) {
	dirs, last := splitDotted(name)
	parts := append(append([]string{"views"}, dirs...), last+".html")
	return filepath.Join(parts...), nil
}

func (c *Console) planMigration(name string) (string, map[string]any) {
	name = snake(name)
	version := c.now().UTC().Format("20060102150405")

	table := ""
	if rest, ok := strings.CutPrefix(name, "create_"); ok {
		table, _ = strings.CutSuffix(rest, "_table")
	}

	return filepath.Join("database", "migrations", version+"_"+name+".go"), map[string]any{
		"Version": version,
		"Name":    name,
		"Func":    pascal(name),
		"Table":   table,
	}
}
