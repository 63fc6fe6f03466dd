// Package logging provides the slog-based logger used across matscribe,
// including console and JSON handlers, typed attribute helpers, and
// context-derived field propagation (item ID, stage, correlation ID).
package logging
