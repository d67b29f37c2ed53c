// Package logging is the structured logger shared by the notepad packages.
// Services, sessions and the bot log through Logger; SlogLogger is the only
// implementation and also feeds the gorm and cron log sinks.
package logging

import "context"

// Logger takes a message plus alternating keys and values:
//
//	log.Info(ctx, "note saved", "note_id", id, "todo", isTodo)
//
// Loggers derived with With carry their pairs on every record, which is how a
// session stamps its id and note id onto everything it logs.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	With(args ...any) Logger
}
