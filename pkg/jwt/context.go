package jwt

import "context"

type contextKey struct{ name string }

var claimsContextKey = &contextKey{name: "jwt_claims"}

// SetClaims stores parsed JWT claims in the context.
func SetClaims(ctx context.Context, claims any) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// GetClaims returns the JWT claims from the context as type T.
func GetClaims[T any](ctx context.Context) (T, bool) {
	claims, ok := ctx.Value(claimsContextKey).(T)
	if !ok {
		var zero T
		return zero, false
	}
	return claims, true
}
