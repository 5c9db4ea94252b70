// Package logger builds the application's *slog.Logger.
//
// Output is JSON by default (LOG_FORMAT=text for local development) at the
// level named by LOG_LEVEL. Context extractors attach request-scoped values,
// such as the request id, to every record logged with a context:
//
//	log := logger.New(cfg, middlewares.RequestIDExtractor())
//	log.InfoContext(r.Context(), "post created", slog.Int64("id", id))
//
// With a SENTRY_DSN, [NewWithSentry] additionally turns error records into
// Sentry issues. Without one it behaves exactly like [New].
//
// Library packages default to [NewNope] so they never write unless asked.
package logger
