package view

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"maps"
	"strings"
	"sync"

	"github.com/a-h/templ"
)

var (
	ErrTemplateNotFound = errors.New("view: template not found")
	ErrRender           = errors.New("view: render failed")
)

// Engine resolves dot-notated view names ("posts.index") to files under a
// filesystem ("posts/index.html") and executes them with html/template.
type Engine struct {
	fsys   fs.FS
	funcs  template.FuncMap
	cache  map[string]*template.Template
	ext    string
	layout string
	mu     sync.RWMutex
	reload bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithExtension sets the template file extension. Default ".html".
func WithExtension(ext string) Option {
	return func(e *Engine) {
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if ext != "" {
			e.ext = ext
		}
	}
}

// WithLayout wraps every view in the named layout. The layout calls
// {{template "content" .}} where the view body goes; views define the body
// with {{define "content"}}...{{end}}.
func WithLayout(name string) Option {
	return func(e *Engine) { e.layout = name }
}

// WithFuncs adds template functions on top of the built-in ones.
func WithFuncs(funcs template.FuncMap) Option {
	return func(e *Engine) { maps.Copy(e.funcs, funcs) }
}

// WithReload parses templates on every render. Meant for development.
func WithReload(reload bool) Option {
	return func(e *Engine) { e.reload = reload }
}

// New returns an Engine reading templates from fsys.
func New(fsys fs.FS, opts ...Option) *Engine {
	e := &Engine{
		fsys:  fsys,
		ext:   ".html",
		cache: make(map[string]*template.Template),
		funcs: template.FuncMap{
			"upper": strings.ToUpper,
			"lower": strings.ToLower,
			"title": titleCase,
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Render returns a component that executes the named view with data.
func (e *Engine) Render(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return e.Execute(w, name, data)
	})
}

// Execute renders the view into w. Output is buffered so a failing template
// writes nothing.
func (e *Engine) Execute(w io.Writer, name string, data any) error {
	t, err := e.lookup(name)
	if err != nil {
		return err
	}

	entry := name
	if e.layout != "" {
		entry = e.layout
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, entry, data); err != nil {
		return errors.Join(ErrRender, fmt.Errorf("%s: %w", name, err))
	}
	_, err = buf.WriteTo(w)
	return err
}

// Exists reports whether a view file is present.
func (e *Engine) Exists(name string) bool {
	_, err := fs.Stat(e.fsys, e.path(name))
	return err == nil
}

func (e *Engine) lookup(name string) (*template.Template, error) {
	if !e.reload {
		e.mu.RLock()
		t, ok := e.cache[name]
		e.mu.RUnlock()
		if ok {
			return t, nil
		}
	}

	t, err := e.parse(name)
	if err != nil {
		return nil, err
	}
	if !e.reload {
		e.mu.Lock()
		e.cache[name] = t
		e.mu.Unlock()
	}
	return t, nil
}

func (e *Engine) parse(name string) (*template.Template, error) {
	files := []string{e.path(name)}
	if e.layout != "" {
		files = append([]string{e.path(e.layout)}, files...)
	}
	for _, f := range files {
		if _, err := fs.Stat(e.fsys, f); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, f)
		}
	}

	root := template.New("").Funcs(e.funcs)
	for _, f := range files {
		src, err := fs.ReadFile(e.fsys, f)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, f)
		}
		tname := name
		if e.layout != "" && f == files[0] {
			tname = e.layout
		}
		if _, err := root.New(tname).Parse(string(src)); err != nil {
			return nil, errors.Join(ErrRender, fmt.Errorf("parse %s: %w", f, err))
		}
	}
	return root, nil
}

// path maps "posts.index" to "posts/index.html".
func (e *Engine) path(name string) string {
	return strings.ReplaceAll(name, ".", "/") + e.ext
}
