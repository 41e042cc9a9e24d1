package log

import (
	"context"

	"github.com/rs/zerolog"
)

// loggerKey is the private key request- and session-scoped loggers travel
// under.
type loggerKey struct{}

// WithLogger returns a child context carrying the logger. The HTTP
// middleware and the connect path use it to keep per-request and
// per-session fields on everything logged downstream.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// Ctx returns the logger carried by ctx, falling back to the global one.
func Ctx(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(zerolog.Logger); ok {
		return logger
	}
	return L()
}
