package billing_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	billingmod "github.com/streamvault/streamvault/modules/billing"
	billingsvc "github.com/streamvault/streamvault/pkg/billing"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) CreateCheckoutSession(ctx context.Context, req billingsvc.CheckoutRequest) (*billingsvc.CheckoutSession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingsvc.CheckoutSession), args.Error(1)
}

func (m *mockProvider) GetCheckoutSession(ctx context.Context, sessionID string) (*billingsvc.CheckoutSession, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingsvc.CheckoutSession), args.Error(1)
}

func (m *mockProvider) GetSubscription(ctx context.Context, subscriptionID string) (*billingsvc.ProviderSubscription, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingsvc.ProviderSubscription), args.Error(1)
}

func (m *mockProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (*billingsvc.WebhookEvent, error) {
	args := m.Called(ctx, payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingsvc.WebhookEvent), args.Error(1)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetByUserID(ctx context.Context, userID uuid.UUID) (*billingsvc.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingsvc.Subscription), args.Error(1)
}

func (m *mockStore) GetActiveByUserID(ctx context.Context, userID uuid.UUID) (*billingsvc.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingsvc.Subscription), args.Error(1)
}

func (m *mockStore) GetByBillingSubscriptionID(ctx context.Context, billingSubscriptionID string) (*billingsvc.Subscription, error) {
	args := m.Called(ctx, billingSubscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingsvc.Subscription), args.Error(1)
}

func (m *mockStore) Upsert(ctx context.Context, subscription *billingsvc.Subscription) error {
	return m.Called(ctx, subscription).Error(0)
}

func (m *mockStore) CreateIfAbsent(ctx context.Context, subscription *billingsvc.Subscription) error {
	return m.Called(ctx, subscription).Error(0)
}

func (m *mockStore) UpdateByBillingSubscriptionID(ctx context.Context, billingSubscriptionID string, status billingsvc.Status, currentPeriodEnd *time.Time) error {
	return m.Called(ctx, billingSubscriptionID, status, currentPeriodEnd).Error(0)
}

var testUserID = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// passthroughAuth substitutes the JWT middleware with a fixed identity.
func passthroughAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := testClaimsContext(r.Context(), testUserID.String())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func testConfig() billingsvc.Config {
	return billingsvc.Config{
		PriceID:    "price_123",
		SuccessURL: "https://app.example.com/checkout/success",
		CancelURL:  "https://app.example.com/checkout",
	}
}

type fixture struct {
	provider *mockProvider
	store    *mockStore
	server   *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	provider := new(mockProvider)
	store := new(mockStore)
	svc := billingsvc.NewService(provider, store, testConfig())

	poller := billingsvc.NewActivationPoller(svc, svc,
		billingsvc.WithMaxAttempts(1),
		billingsvc.WithSleepFunc(func(ctx context.Context, _ time.Duration) error {
			return ctx.Err()
		}))

	emails := func(ctx context.Context, userID uuid.UUID) (string, error) {
		return "viewer@example.com", nil
	}

	handler := billingmod.NewHandler(svc, poller, emails)

	r := chi.NewRouter()
	r.Mount("/billing", handler.Router(passthroughAuth))

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return &fixture{provider: provider, store: store, server: server}
}

func (f *fixture) do(t *testing.T, method, path, body string, header http.Header) *http.Response {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, f.server.URL+path, reader)
	require.NoError(t, err)
	for k, vals := range header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func jsonHeader() http.Header {
	return http.Header{"Content-Type": []string{"application/json"}}
}

func TestHandleCheckout(t *testing.T) {
	t.Parallel()

	t.Run("returns checkout url", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		f.provider.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(req billingsvc.CheckoutRequest) bool {
			return req.UserID == testUserID.String() && req.Email == "viewer@example.com"
		})).Return(&billingsvc.CheckoutSession{
			ID:  "cs_test_123",
			URL: "https://checkout.stripe.com/c/pay/cs_test_123",
		}, nil)

		resp := f.do(t, http.MethodPost, "/billing/checkout", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assertJSONBody(t, resp, `{"url":"https://checkout.stripe.com/c/pay/cs_test_123"}`)
		f.provider.AssertExpectations(t)
	})

	t.Run("provider failure maps to 500", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		f.provider.On("CreateCheckoutSession", mock.Anything, mock.Anything).
			Return(nil, errors.New("stripe down"))

		resp := f.do(t, http.MethodPost, "/billing/checkout", "", nil)
		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestHandleCheckoutQR(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.provider.On("CreateCheckoutSession", mock.Anything, mock.Anything).
		Return(&billingsvc.CheckoutSession{
			ID:  "cs_test_qr",
			URL: "https://checkout.stripe.com/c/pay/cs_test_qr",
		}, nil)

	resp := f.do(t, http.MethodGet, "/billing/checkout/qr", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
}

func TestHandleWebhook(t *testing.T) {
	t.Parallel()

	t.Run("acknowledges processed event", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		f.provider.On("ParseWebhook", mock.Anything, mock.Anything, "sig").
			Return(&billingsvc.WebhookEvent{ID: "evt_1", Type: billingsvc.EventUnhandled}, nil)

		resp := f.do(t, http.MethodPost, "/billing/webhooks/stripe", `{"id":"evt_1"}`,
			http.Header{"Stripe-Signature": []string{"sig"}})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assertJSONBody(t, resp, `{"received":true}`)
	})

	t.Run("bad signature maps to 400", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		f.provider.On("ParseWebhook", mock.Anything, mock.Anything, "bad").
			Return(nil, billingsvc.ErrWebhookVerificationFailed)

		resp := f.do(t, http.MethodPost, "/billing/webhooks/stripe", `{}`,
			http.Header{"Stripe-Signature": []string{"bad"}})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("processing failure maps to 500 for redelivery", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		event := &billingsvc.WebhookEvent{
			ID:                "evt_2",
			Type:              billingsvc.EventCheckoutCompleted,
			UserID:            testUserID.String(),
			CheckoutSessionID: "cs_1",
			SubscriptionID:    "sub_1",
		}
		f.provider.On("ParseWebhook", mock.Anything, mock.Anything, "sig").Return(event, nil)
		f.provider.On("GetSubscription", mock.Anything, "sub_1").
			Return(nil, errors.New("api timeout"))

		resp := f.do(t, http.MethodPost, "/billing/webhooks/stripe", `{}`,
			http.Header{"Stripe-Signature": []string{"sig"}})
		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestHandleVerifySession(t *testing.T) {
	t.Parallel()

	t.Run("verifies paid session", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		f.provider.On("GetCheckoutSession", mock.Anything, "cs_paid").
			Return(&billingsvc.CheckoutSession{
				ID:             "cs_paid",
				PaymentStatus:  "paid",
				UserID:         testUserID.String(),
				CustomerID:     "cus_1",
				SubscriptionID: "sub_1",
			}, nil)
		f.store.On("GetByUserID", mock.Anything, testUserID).
			Return(nil, billingsvc.ErrSubscriptionNotFound)
		f.provider.On("GetSubscription", mock.Anything, "sub_1").
			Return(&billingsvc.ProviderSubscription{
				ID:               "sub_1",
				CustomerID:       "cus_1",
				Status:           billingsvc.StatusActive,
				CurrentPeriodEnd: time.Now().Add(30 * 24 * time.Hour),
			}, nil)
		f.store.On("Upsert", mock.Anything, mock.Anything).Return(nil)

		resp := f.do(t, http.MethodPost, "/billing/verify-session",
			`{"sessionId":"cs_paid"}`, jsonHeader())
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assertJSONBody(t, resp, `{"success":true}`)
	})

	t.Run("missing session id maps to 400", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		resp := f.do(t, http.MethodPost, "/billing/verify-session",
			`{"sessionId":""}`, jsonHeader())
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unpaid session maps to 400", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		f.provider.On("GetCheckoutSession", mock.Anything, "cs_unpaid").
			Return(&billingsvc.CheckoutSession{ID: "cs_unpaid", PaymentStatus: "unpaid"}, nil)

		resp := f.do(t, http.MethodPost, "/billing/verify-session",
			`{"sessionId":"cs_unpaid"}`, jsonHeader())
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("missing content type maps to 400", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		resp := f.do(t, http.MethodPost, "/billing/verify-session",
			`{"sessionId":"cs_1"}`, nil)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestHandleActivation(t *testing.T) {
	t.Parallel()

	t.Run("already active", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		f.store.On("GetActiveByUserID", mock.Anything, testUserID).
			Return(&billingsvc.Subscription{
				UserID: testUserID,
				Status: billingsvc.StatusActive,
			}, nil)

		resp := f.do(t, http.MethodGet, "/billing/activation?session_id=cs_1", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assertJSONBody(t, resp, `{"status":"active","attempts":0,"fallbackUsed":false}`)
	})

	t.Run("no session and no subscription", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		f.store.On("GetActiveByUserID", mock.Anything, testUserID).
			Return(nil, billingsvc.ErrSubscriptionNotFound)

		resp := f.do(t, http.MethodGet, "/billing/activation", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assertJSONBody(t, resp, `{"status":"checkout_required","attempts":0,"fallbackUsed":false,"redirectUrl":"/checkout"}`)
	})
}

func TestHandleGetSubscription(t *testing.T) {
	t.Parallel()

	t.Run("returns subscription", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		periodEnd := time.Date(2026, 9, 28, 12, 0, 0, 0, time.UTC)
		f.store.On("GetByUserID", mock.Anything, testUserID).
			Return(&billingsvc.Subscription{
				UserID:           testUserID,
				Status:           billingsvc.StatusActive,
				CurrentPeriodEnd: periodEnd,
			}, nil)

		resp := f.do(t, http.MethodGet, "/billing/subscription", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("not found maps to 404", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		f.store.On("GetByUserID", mock.Anything, testUserID).
			Return(nil, billingsvc.ErrSubscriptionNotFound)

		resp := f.do(t, http.MethodGet, "/billing/subscription", "", nil)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
