// Package view renders html/template files addressed by dot-notated names.
//
// A view named "posts.index" lives at posts/index.html inside the filesystem
// given to [New], usually an embed.FS:
//
//	//go:embed views
//	var files embed.FS
//
//	sub, _ := fs.Sub(files, "views")
//	views := view.New(sub, view.WithLayout("layouts.app"))
//
// [Engine.Render] returns a templ.Component, so views and templ components
// go through the same Context.Render path. Parsed templates are cached per
// name unless [WithReload] is set.
package view
