package billing_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamvault/streamvault/pkg/billing"
)

const testWebhookSecret = "whsec_test_secret"

func newTestStripeProvider(t *testing.T) *billing.StripeProvider {
	t.Helper()
	provider, err := billing.NewStripeProvider(billing.StripeConfig{
		SecretKey:     "sk_test_123",
		WebhookSecret: testWebhookSecret,
	})
	require.NoError(t, err)
	return provider
}

// signedPayload wraps an event object into a Stripe event envelope and signs it.
func signedPayload(t *testing.T, eventID, eventType, object string) ([]byte, string) {
	t.Helper()
	payload := fmt.Sprintf(`{"id":%q,"type":%q,"data":{"object":%s}}`, eventID, eventType, object)
	sp := stripe.GenerateTestSignedPayload(&stripe.UnsignedPayload{
		Payload: []byte(payload),
		Secret:  testWebhookSecret,
	})
	return sp.Payload, sp.Header
}

func TestNewStripeProvider_Config(t *testing.T) {
	t.Parallel()

	_, err := billing.NewStripeProvider(billing.StripeConfig{WebhookSecret: "whsec"})
	assert.ErrorIs(t, err, billing.ErrMissingAPIKey)

	_, err = billing.NewStripeProvider(billing.StripeConfig{SecretKey: "sk_test"})
	assert.ErrorIs(t, err, billing.ErrMissingWebhookSecret)
}

func TestStripeProvider_ParseWebhook(t *testing.T) {
	t.Parallel()

	t.Run("invalid signature", func(t *testing.T) {
		t.Parallel()

		provider := newTestStripeProvider(t)
		payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)

		event, err := provider.ParseWebhook(context.Background(), payload,
			"t=1234567890,v1=badbadbadbadbadbadbadbadbadbadbadbadbadbadbadbadbadbadbadbadbadb")
		require.ErrorIs(t, err, billing.ErrWebhookVerificationFailed)
		assert.Nil(t, event)
	})

	t.Run("missing signature", func(t *testing.T) {
		t.Parallel()

		provider := newTestStripeProvider(t)
		event, err := provider.ParseWebhook(context.Background(), []byte(`{"id":"evt_1"}`), "")
		require.ErrorIs(t, err, billing.ErrWebhookVerificationFailed)
		assert.Nil(t, event)
	})

	t.Run("checkout session completed", func(t *testing.T) {
		t.Parallel()

		provider := newTestStripeProvider(t)
		payload, header := signedPayload(t, "evt_1", "checkout.session.completed", `{
			"id": "cs_test_123",
			"mode": "subscription",
			"customer": "cus_123",
			"subscription": "sub_123",
			"customer_details": {"email": "user@example.com"},
			"metadata": {"user_id": "6ba7b810-9dad-11d1-80b4-00c04fd430c8"}
		}`)

		event, err := provider.ParseWebhook(context.Background(), payload, header)
		require.NoError(t, err)
		assert.Equal(t, billing.EventCheckoutCompleted, event.Type)
		assert.Equal(t, "evt_1", event.ID)
		assert.Equal(t, "cs_test_123", event.CheckoutSessionID)
		assert.Equal(t, "sub_123", event.SubscriptionID)
		assert.Equal(t, "cus_123", event.CustomerID)
		assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", event.UserID)
		assert.Equal(t, "user@example.com", event.CustomerEmail)
	})

	t.Run("payment mode checkout is unhandled", func(t *testing.T) {
		t.Parallel()

		provider := newTestStripeProvider(t)
		payload, header := signedPayload(t, "evt_2", "checkout.session.completed", `{
			"id": "cs_test_456",
			"mode": "payment"
		}`)

		event, err := provider.ParseWebhook(context.Background(), payload, header)
		require.NoError(t, err)
		assert.Equal(t, billing.EventUnhandled, event.Type)
	})

	t.Run("subscription updated carries period end", func(t *testing.T) {
		t.Parallel()

		provider := newTestStripeProvider(t)
		periodEnd := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
		payload, header := signedPayload(t, "evt_3", "customer.subscription.updated", fmt.Sprintf(`{
			"id": "sub_123",
			"customer": "cus_123",
			"status": "past_due",
			"current_period_end": %d
		}`, periodEnd.Unix()))

		event, err := provider.ParseWebhook(context.Background(), payload, header)
		require.NoError(t, err)
		assert.Equal(t, billing.EventSubscriptionUpdated, event.Type)
		assert.Equal(t, "sub_123", event.SubscriptionID)
		assert.Equal(t, string(billing.StatusPastDue), event.Status)
		assert.True(t, event.CurrentPeriodEnd.Equal(periodEnd))
	})

	t.Run("subscription updated reads item-level period end", func(t *testing.T) {
		t.Parallel()

		provider := newTestStripeProvider(t)
		periodEnd := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
		payload, header := signedPayload(t, "evt_4", "customer.subscription.updated", fmt.Sprintf(`{
			"id": "sub_123",
			"status": "active",
			"items": {"data": [{"current_period_end": %d}]}
		}`, periodEnd.Unix()))

		event, err := provider.ParseWebhook(context.Background(), payload, header)
		require.NoError(t, err)
		assert.True(t, event.CurrentPeriodEnd.Equal(periodEnd))
	})

	t.Run("subscription deleted normalizes to canceled", func(t *testing.T) {
		t.Parallel()

		provider := newTestStripeProvider(t)
		payload, header := signedPayload(t, "evt_5", "customer.subscription.deleted", `{
			"id": "sub_123",
			"status": "canceled"
		}`)

		event, err := provider.ParseWebhook(context.Background(), payload, header)
		require.NoError(t, err)
		assert.Equal(t, billing.EventSubscriptionCanceled, event.Type)
		assert.Equal(t, string(billing.StatusCanceled), event.Status)
	})

	t.Run("unrelated event type passes through as unhandled", func(t *testing.T) {
		t.Parallel()

		provider := newTestStripeProvider(t)
		payload, header := signedPayload(t, "evt_6", "invoice.paid", `{"id": "in_123"}`)

		event, err := provider.ParseWebhook(context.Background(), payload, header)
		require.NoError(t, err)
		assert.Equal(t, billing.EventUnhandled, event.Type)
		assert.Equal(t, "invoice.paid", event.ProviderEvent)
	})
}
