// Package logger provides the structured logging interface shared by every
// component of the validation agent.
package logger

import "context"

// Logger is a structured, context-aware logger. Fields passed to a call are
// merged with fields attached through WithField and WithFields.
type Logger interface {
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, fields map[string]interface{})

	// WithField returns a logger that adds key=value to every entry.
	WithField(key string, value interface{}) Logger

	// WithFields returns a logger that adds all fields to every entry.
	WithFields(fields map[string]interface{}) Logger
}
