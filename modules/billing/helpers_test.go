package billing_test

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamvault/streamvault/pkg/jwt"
)

func testClaimsContext(ctx context.Context, subject string) context.Context {
	return jwt.SetClaims(ctx, jwt.StandardClaims{Subject: subject})
}

func assertJSONBody(t *testing.T, resp *http.Response, expected string) {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, expected, string(body))
}
