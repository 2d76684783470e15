// Package logging centralizes the structured logging conventions of the
// application on top of the standard library's slog: shared attribute keys,
// attribute constructors, and sanitization of credentials so tokens never
// reach the log stream.
package logging
