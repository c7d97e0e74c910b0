// Package logger provides structured logging for the application on top of
// log/slog: process-wide setup from configuration and request- or
// job-scoped loggers carried in a context.Context.
package logger
