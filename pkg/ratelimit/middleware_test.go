package ratelimit_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamvault/streamvault/pkg/ratelimit"
)

type stubLimiter struct {
	result *ratelimit.Result
	err    error
	keys   []string
}

func (s *stubLimiter) Allow(_ context.Context, key string) (*ratelimit.Result, error) {
	s.keys = append(s.keys, key)
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("allowed request passes through", func(t *testing.T) {
		t.Parallel()

		limiter := &stubLimiter{result: &ratelimit.Result{Allowed: true, Remaining: 4}}
		h := ratelimit.Middleware(limiter, nil, nil)(okHandler())

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/login", nil)
		req.RemoteAddr = "203.0.113.7:51234"
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "4", rec.Header().Get("X-RateLimit-Remaining"))
		assert.Equal(t, []string{"203.0.113.7"}, limiter.keys)
	})

	t.Run("over limit maps to 429 with retry-after", func(t *testing.T) {
		t.Parallel()

		limiter := &stubLimiter{result: &ratelimit.Result{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: 1500 * time.Millisecond,
		}}
		h := ratelimit.Middleware(limiter, nil, nil)(okHandler())

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("POST", "/login", nil))

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("Retry-After"))
		assert.JSONEq(t, `{"error":{"code":"rate_limited","message":"too many requests, slow down"}}`, rec.Body.String())
	})

	t.Run("limiter failure fails open", func(t *testing.T) {
		t.Parallel()

		limiter := &stubLimiter{err: errors.New("redis down")}
		h := ratelimit.Middleware(limiter, nil, nil)(okHandler())

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("POST", "/login", nil))

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("custom key func", func(t *testing.T) {
		t.Parallel()

		limiter := &stubLimiter{result: &ratelimit.Result{Allowed: true, Remaining: 1}}
		byPath := func(r *http.Request) string { return r.URL.Path }
		h := ratelimit.Middleware(limiter, byPath, nil)(okHandler())

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("POST", "/signup", nil))

		assert.Equal(t, []string{"/signup"}, limiter.keys)
	})
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, ratelimit.Config{Limit: 10, Window: time.Minute}.Validate())
	require.ErrorIs(t, ratelimit.Config{Limit: 0, Window: time.Minute}.Validate(), ratelimit.ErrInvalidConfig)
	require.ErrorIs(t, ratelimit.Config{Limit: 10}.Validate(), ratelimit.ErrInvalidConfig)
}
