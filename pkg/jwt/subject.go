package jwt

import (
	"context"

	"github.com/google/uuid"
)

// UserID returns the authenticated subject claim parsed as a UUID. The
// second return is false when no claims are present or the subject is not
// a valid UUID.
func UserID(ctx context.Context) (uuid.UUID, bool) {
	claims, ok := GetClaims[StandardClaims](ctx)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
