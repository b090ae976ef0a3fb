// Package logging is the structured logger the journal core writes to.
// Embedding applications either pass their own *slog.Logger through
// NewSlogLogger or let app.NewLogger build a text logger from the config.
package logging

import "context"

// Logger takes a message plus alternating key/value args, as log/slog does:
//
//	log.Warn(ctx, "re-identifying duplicate record", "id", id, "new_id", fresh)
//
// Warn is for stored data that had to be repaired and for failures that
// were recovered from. Error is for failures returned to the caller.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a Logger that adds args to every entry, typically a
	// "component" attribute.
	With(args ...any) Logger
}
