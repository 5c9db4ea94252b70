package logger

import (
	"io"
	"log/slog"
)

// New builds a logger from cfg. Extractors add request-scoped attributes
// to every record logged with a context.
func New(cfg Config, extractors ...ContextExtractor) *slog.Logger {
	return slog.New(withExtractors(cfg.handler(), extractors...))
}

// Default is a JSON logger at info level on stdout.
func Default(extractors ...ContextExtractor) *slog.Logger {
	return New(Config{Level: "info", Format: "json"}, extractors...)
}

// NewNope discards everything. Packages use it when no logger is given.
func NewNope() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
