// Package logger builds configured log/slog loggers with JSON or text output
// and automatic injection of context-scoped attributes such as request ids.
package logger
