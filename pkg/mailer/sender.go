package mailer

import (
	"context"
	"log/slog"
)

// Sender delivers a rendered Email. Implementations may assume To, Subject
// and HTML are set.
type Sender interface {
	Send(ctx context.Context, email *Email) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, email *Email) error

func (f SenderFunc) Send(ctx context.Context, email *Email) error { return f(ctx, email) }

// LogSender writes every message to a logger instead of delivering it.
type LogSender struct {
	log *slog.Logger
}

func NewLogSender(log *slog.Logger) *LogSender {
	if log == nil {
		log = slog.Default()
	}
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, email *Email) error {
	s.log.InfoContext(ctx, "email logged",
		slog.String("from", email.From),
		slog.Any("to", email.To),
		slog.String("subject", email.Subject),
		slog.String("text", email.Text),
		slog.Int("attachments", len(email.Attachments)),
	)
	return nil
}
