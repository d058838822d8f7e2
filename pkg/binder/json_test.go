package binder_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamvault/streamvault/pkg/binder"
)

type verifyPayload struct {
	SessionID string `json:"sessionId"`
}

func TestBindJSON(t *testing.T) {
	t.Parallel()

	t.Run("valid body", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/verify-session", strings.NewReader(`{"sessionId":"cs_test_123"}`))
		r.Header.Set("Content-Type", "application/json")

		var v verifyPayload
		require.NoError(t, binder.BindJSON(r, &v))
		assert.Equal(t, "cs_test_123", v.SessionID)
	})

	t.Run("content type with charset parameter", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/verify-session", strings.NewReader(`{"sessionId":"cs_test_123"}`))
		r.Header.Set("Content-Type", "application/json; charset=utf-8")

		var v verifyPayload
		require.NoError(t, binder.BindJSON(r, &v))
		assert.Equal(t, "cs_test_123", v.SessionID)
	})

	t.Run("missing content type", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/verify-session", strings.NewReader(`{}`))

		var v verifyPayload
		assert.ErrorIs(t, binder.BindJSON(r, &v), binder.ErrMissingContentType)
	})

	t.Run("unsupported media type", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/verify-session", strings.NewReader(`{}`))
		r.Header.Set("Content-Type", "text/plain")

		var v verifyPayload
		assert.ErrorIs(t, binder.BindJSON(r, &v), binder.ErrUnsupportedMediaType)
	})

	t.Run("empty body", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/verify-session", strings.NewReader(""))
		r.Header.Set("Content-Type", "application/json")

		var v verifyPayload
		err := binder.BindJSON(r, &v)
		require.ErrorIs(t, err, binder.ErrInvalidJSON)
		assert.Contains(t, err.Error(), "empty body")
	})

	t.Run("unknown field", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/verify-session", strings.NewReader(`{"session_id":"cs_test_123"}`))
		r.Header.Set("Content-Type", "application/json")

		var v verifyPayload
		assert.ErrorIs(t, binder.BindJSON(r, &v), binder.ErrInvalidJSON)
	})

	t.Run("trailing data", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/verify-session", strings.NewReader(`{"sessionId":"a"}{"sessionId":"b"}`))
		r.Header.Set("Content-Type", "application/json")

		var v verifyPayload
		assert.ErrorIs(t, binder.BindJSON(r, &v), binder.ErrInvalidJSON)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/verify-session", strings.NewReader(`{"sessionId":`))
		r.Header.Set("Content-Type", "application/json")

		var v verifyPayload
		assert.ErrorIs(t, binder.BindJSON(r, &v), binder.ErrInvalidJSON)
	})
}
