package response_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamvault/streamvault/pkg/response"
)

func TestJSON(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	response.JSON(rec, 201, map[string]bool{"success": true})

	assert.Equal(t, 201, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
}

func TestError(t *testing.T) {
	t.Parallel()

	t.Run("with code", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		response.Error(rec, 402, "subscription_required", "an active subscription is required")

		assert.Equal(t, 402, rec.Code)
		assert.JSONEq(t, `{"error":{"code":"subscription_required","message":"an active subscription is required"}}`, rec.Body.String())
	})

	t.Run("empty code defaults", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		response.Error(rec, 500, "", "boom")

		assert.JSONEq(t, `{"error":{"code":"internal_error","message":"boom"}}`, rec.Body.String())
	})
}

func TestPNG(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	payload := []byte{0x89, 0x50, 0x4e, 0x47}
	response.PNG(rec, payload)

	require.Equal(t, 200, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, payload, rec.Body.Bytes())
}
