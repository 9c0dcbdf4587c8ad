// Package logging defines the small structured-logging interface shared by
// the tripmate client and server. Implementations can wrap slog or any
// other structured backend.
package logging

import "context"

// Logger is a context-aware, structured logger. Variadic args are
// interpreted as key–value pairs:
//
//	log.Info(ctx, "subscription opened", "scope", key)
type Logger interface {
	// Debug logs fine-grained diagnostics (snapshot sizes, generations).
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs a failure.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}
