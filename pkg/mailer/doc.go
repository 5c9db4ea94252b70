// Package mailer renders markdown email templates and hands them to a
// [Sender].
//
// Templates are markdown files with optional YAML frontmatter; the body is a
// text/template executed with the send data, converted to HTML with goldmark
// and wrapped in an html/template layout:
//
//	---
//	Subject: Welcome, {{.Name}}
//	---
//	Hi {{.Name}}, thanks for signing up.
//
// The subject comes from SendParams.Subject, then the frontmatter, then
// Config.FallbackSubject, and is itself a template.
//
// Two senders ship with the package: [LogSender] writes messages to a
// slog.Logger and is the default MAIL_DRIVER; the resend subpackage delivers
// through the Resend API.
//
//	m := mailer.New(mailer.NewLogSender(log), mailer.NewRenderer(templates), cfg)
//	err := m.Send(ctx, mailer.SendParams{To: "ann@example.com", Template: "welcome.md", Data: user})
package mailer
