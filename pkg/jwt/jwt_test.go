package jwt_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamvault/streamvault/pkg/jwt"
)

func TestGenerateParse_RoundTrip(t *testing.T) {
	svc, err := jwt.NewFromString("test-signing-key-with-enough-bytes")
	require.NoError(t, err)

	issued := jwt.StandardClaims{
		Subject:   "user-42",
		Issuer:    "streamvault",
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
		IssuedAt:  time.Now().Unix(),
	}

	token, err := svc.Generate(issued)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	var parsed jwt.StandardClaims
	require.NoError(t, svc.Parse(token, &parsed))
	assert.Equal(t, issued.Subject, parsed.Subject)
	assert.Equal(t, issued.Issuer, parsed.Issuer)
}

func TestParse_WrongKey(t *testing.T) {
	issuer, err := jwt.NewFromString("key-one-key-one-key-one-key-one!")
	require.NoError(t, err)
	verifier, err := jwt.NewFromString("key-two-key-two-key-two-key-two!")
	require.NoError(t, err)

	token, err := issuer.Generate(jwt.StandardClaims{Subject: "user-42"})
	require.NoError(t, err)

	var claims jwt.StandardClaims
	assert.ErrorIs(t, verifier.Parse(token, &claims), jwt.ErrInvalidSignature)
}

func TestParse_Expired(t *testing.T) {
	svc, err := jwt.NewFromString("test-signing-key-with-enough-bytes")
	require.NoError(t, err)

	token, err := svc.Generate(jwt.StandardClaims{
		Subject:   "user-42",
		ExpiresAt: time.Now().Add(-time.Minute).Unix(),
	})
	require.NoError(t, err)

	var claims jwt.StandardClaims
	assert.ErrorIs(t, svc.Parse(token, &claims), jwt.ErrExpiredToken)
}

func TestParse_Malformed(t *testing.T) {
	svc, err := jwt.NewFromString("test-signing-key-with-enough-bytes")
	require.NoError(t, err)

	var claims jwt.StandardClaims
	assert.ErrorIs(t, svc.Parse("not-a-token", &claims), jwt.ErrInvalidToken)
}

func TestNew_EmptyKey(t *testing.T) {
	_, err := jwt.NewFromString("")
	assert.ErrorIs(t, err, jwt.ErrMissingSigningKey)
}

func TestMiddleware(t *testing.T) {
	svc, err := jwt.NewFromString("test-signing-key-with-enough-bytes")
	require.NoError(t, err)

	var gotSubject string
	handler := jwt.Middleware(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := jwt.GetClaims[jwt.StandardClaims](r.Context())
		require.True(t, ok)
		gotSubject = claims.Subject
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("valid token", func(t *testing.T) {
		token, err := svc.Generate(jwt.StandardClaims{
			Subject:   "user-42",
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/billing/checkout", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-42", gotSubject)
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/billing/checkout", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/billing/checkout", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
