// Package environment carries the deployment environment through request
// contexts. It decides things like whether outbound email really sends and
// tags every log line with the environment name.
package environment

import "context"

// Environment names a deployment tier.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

type contextKey struct{}

// WithContext stores the environment in the context.
func WithContext(ctx context.Context, env Environment) context.Context {
	return context.WithValue(ctx, contextKey{}, env)
}

// FromContext returns the stored environment, defaulting to Development
// when none was set.
func FromContext(ctx context.Context) Environment {
	if env, ok := ctx.Value(contextKey{}).(Environment); ok {
		return env
	}
	return Development
}

// IsProduction reports whether the context carries the production tier.
func IsProduction(ctx context.Context) bool {
	return FromContext(ctx) == Production
}
