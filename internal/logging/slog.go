package logging

import (
	"fmt"
	"log/slog"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation = "operation"
	KeyService   = "service"
	KeyEventID   = "event_id"
	KeyFileID    = "file_id"
	KeyCategory  = "category"
	KeyStatus    = "status"
	KeyError     = "error"
)

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithService returns a logger with the service attribute set.
func WithService(logger *slog.Logger, service string) *slog.Logger {
	return logger.With(slog.String(KeyService, service))
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// EventID returns a slog attribute for a calendar event id.
func EventID(id string) slog.Attr {
	return slog.String(KeyEventID, id)
}

// FileID returns a slog attribute for a Drive file id.
func FileID(id string) slog.Attr {
	return slog.String(KeyFileID, id)
}

// Category returns a slog attribute for an aggregation category.
func Category(c string) slog.Attr {
	return slog.String(KeyCategory, c)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Err returns a slog attribute for an error. If err is nil, returns an
// empty Group attribute that slog omits from output, so callers can pass
// Err(maybeNilErr) unconditionally.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// SanitizeToken returns a masked version of a token for logging. Only the
// length is revealed; even partial prefixes can aid attacks.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}
