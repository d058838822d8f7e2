package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

// metadataUserIDKey is the session metadata key carrying the internal user ID.
const metadataUserIDKey = "user_id"

// StripeConfig holds configuration for the Stripe billing provider.
type StripeConfig struct {
	SecretKey     string `env:"STRIPE_SECRET_KEY,required"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET,required"`
}

// StripeProvider implements Provider for Stripe.
type StripeProvider struct {
	api    *client.API
	config StripeConfig
}

// NewStripeProvider creates a new Stripe billing provider.
func NewStripeProvider(config StripeConfig) (*StripeProvider, error) {
	if config.SecretKey == "" {
		return nil, fmt.Errorf("%w: stripe secret key", ErrMissingAPIKey)
	}
	if config.WebhookSecret == "" {
		return nil, fmt.Errorf("%w: stripe webhook secret", ErrMissingWebhookSecret)
	}

	api := &client.API{}
	api.Init(config.SecretKey, nil)

	return &StripeProvider{
		api:    api,
		config: config,
	}, nil
}

// CreateCheckoutSession creates a subscription-mode hosted checkout session.
// The internal user ID rides in both session metadata and the subscription's
// metadata so that later webhook events can be correlated back to the user.
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if req.PriceID == "" {
		return nil, ErrMissingPriceID
	}
	if req.UserID == "" {
		return nil, ErrMissingUserID
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.UserID),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{metadataUserIDKey: req.UserID},
		},
	}
	params.Context = ctx
	params.AddMetadata(metadataUserIDKey, req.UserID)
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}

	sess, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, errors.Join(ErrProviderError, fmt.Errorf("create checkout session: %w", err))
	}
	if sess.URL == "" {
		return nil, ErrNoCheckoutURL
	}

	return p.toCheckoutSession(sess), nil
}

// GetCheckoutSession fetches a checkout session by ID.
func (p *StripeProvider) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	if sessionID == "" {
		return nil, ErrMissingSessionID
	}

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := p.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, errors.Join(ErrProviderError, fmt.Errorf("get checkout session %s: %w", sessionID, err))
	}

	return p.toCheckoutSession(sess), nil
}

// GetSubscription fetches a subscription for its status and renewal date.
func (p *StripeProvider) GetSubscription(ctx context.Context, subscriptionID string) (*ProviderSubscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := p.api.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		return nil, errors.Join(ErrProviderError, fmt.Errorf("get subscription %s: %w", subscriptionID, err))
	}

	result := &ProviderSubscription{
		ID:     sub.ID,
		Status: mapStripeStatus(string(sub.Status)),
	}
	if sub.Customer != nil {
		result.CustomerID = sub.Customer.ID
	}
	// Stripe reports the billing period on the subscription items.
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		if end := sub.Items.Data[0].CurrentPeriodEnd; end > 0 {
			result.CurrentPeriodEnd = time.Unix(end, 0).UTC()
		}
	}

	return result, nil
}

// ParseWebhook validates the Stripe-Signature header and normalizes the
// event. Verification failure is the only error path; events of types the
// service does not care about come back as EventUnhandled so the receiver
// can acknowledge them without state changes.
func (p *StripeProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.config.WebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, errors.Join(ErrWebhookVerificationFailed, err)
	}

	normalized := &WebhookEvent{
		ID:            event.ID,
		Type:          EventUnhandled,
		ProviderEvent: string(event.Type),
		Raw:           json.RawMessage(event.Data.Raw),
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripeWebhookSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("decode checkout.session: %w", err)
		}
		// Only subscription-mode checkouts feed the subscription store.
		if sess.Mode != "" && sess.Mode != "subscription" {
			return normalized, nil
		}
		normalized.Type = EventCheckoutCompleted
		normalized.CheckoutSessionID = sess.ID
		normalized.SubscriptionID = sess.Subscription
		normalized.CustomerID = sess.Customer
		normalized.UserID = webhookSessionUserID(sess)
		normalized.CustomerEmail = sess.CustomerEmail
		if normalized.CustomerEmail == "" {
			normalized.CustomerEmail = sess.CustomerDetails.Email
		}

	case "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripeWebhookSubscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("decode subscription: %w", err)
		}
		if event.Type == "customer.subscription.deleted" {
			normalized.Type = EventSubscriptionCanceled
		} else {
			normalized.Type = EventSubscriptionUpdated
		}
		normalized.SubscriptionID = sub.ID
		normalized.CustomerID = sub.Customer
		normalized.UserID = sub.Metadata[metadataUserIDKey]
		normalized.Status = string(mapStripeStatus(sub.Status))
		if end := sub.PeriodEnd(); end > 0 {
			normalized.CurrentPeriodEnd = time.Unix(end, 0).UTC()
		}
	}

	return normalized, nil
}

// stripeWebhookSession is decoded straight from the event payload rather
// than through the SDK structs so that API version drift between the
// provider account and the SDK cannot break parsing.
type stripeWebhookSession struct {
	ID              string            `json:"id"`
	Mode            string            `json:"mode"`
	Customer        string            `json:"customer"`
	Subscription    string            `json:"subscription"`
	ClientReference string            `json:"client_reference_id"`
	CustomerEmail   string            `json:"customer_email"`
	CustomerDetails struct {
		Email string `json:"email"`
	} `json:"customer_details"`
	Metadata map[string]string `json:"metadata"`
}

type stripeWebhookSubscription struct {
	ID               string            `json:"id"`
	Customer         string            `json:"customer"`
	Status           string            `json:"status"`
	CurrentPeriodEnd int64             `json:"current_period_end"`
	Metadata         map[string]string `json:"metadata"`
	Items            struct {
		Data []struct {
			CurrentPeriodEnd int64 `json:"current_period_end"`
		} `json:"data"`
	} `json:"items"`
}

// PeriodEnd returns the billing period end, preferring the top-level field
// and falling back to the first subscription item for newer API versions.
func (s stripeWebhookSubscription) PeriodEnd() int64 {
	if s.CurrentPeriodEnd > 0 {
		return s.CurrentPeriodEnd
	}
	if len(s.Items.Data) > 0 {
		return s.Items.Data[0].CurrentPeriodEnd
	}
	return 0
}

func webhookSessionUserID(sess stripeWebhookSession) string {
	if id := sess.Metadata[metadataUserIDKey]; id != "" {
		return id
	}
	return sess.ClientReference
}

func (p *StripeProvider) toCheckoutSession(sess *stripe.CheckoutSession) *CheckoutSession {
	result := &CheckoutSession{
		ID:            sess.ID,
		URL:           sess.URL,
		PaymentStatus: string(sess.PaymentStatus),
		CustomerEmail: sess.CustomerEmail,
	}
	if id := sess.Metadata[metadataUserIDKey]; id != "" {
		result.UserID = id
	} else {
		result.UserID = sess.ClientReferenceID
	}
	if sess.Customer != nil {
		result.CustomerID = sess.Customer.ID
	}
	if sess.Subscription != nil {
		result.SubscriptionID = sess.Subscription.ID
	}
	if sess.CustomerDetails != nil && result.CustomerEmail == "" {
		result.CustomerEmail = sess.CustomerDetails.Email
	}
	if sess.ExpiresAt > 0 {
		result.ExpiresAt = time.Unix(sess.ExpiresAt, 0).UTC()
	}
	return result
}

// mapStripeStatus maps Stripe subscription status to internal Status.
// Trialing grants access like active; unknown statuses pass through.
func mapStripeStatus(stripeStatus string) Status {
	switch strings.ToLower(stripeStatus) {
	case "active", "trialing":
		return StatusActive
	case "past_due":
		return StatusPastDue
	case "canceled", "cancelled":
		return StatusCanceled
	case "incomplete", "incomplete_expired", "unpaid":
		return StatusPending
	default:
		return Status(stripeStatus)
	}
}
