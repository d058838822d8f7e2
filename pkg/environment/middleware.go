package environment

import (
	"context"
	"log/slog"
	"net/http"
)

// Middleware injects the environment into every request context.
func Middleware(env Environment) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), env)))
		})
	}
}

// LoggerExtractor exposes the environment as a log attribute for loggers
// built with context extractors.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		env, ok := ctx.Value(contextKey{}).(Environment)
		if !ok {
			return slog.Attr{}, false
		}
		return slog.String("environment", string(env)), true
	}
}
