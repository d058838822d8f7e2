package billing

import (
	"context"
	"encoding/json"
	"time"
)

// Provider defines the minimal interface for payment provider integrations.
// This abstraction allows support for different providers (Stripe, Paddle)
// while avoiding vendor lock-in. The provider handles all payment complexity
// through hosted checkouts, eliminating PCI compliance concerns.
//
// Implementations should use official provider SDKs and handle
// provider-specific quirks internally (e.g., Stripe's metadata fields,
// Paddle's transaction-based checkouts).
type Provider interface {
	// CreateCheckoutSession creates a hosted checkout session tagged with the
	// user's identifier in session metadata.
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)

	// GetCheckoutSession fetches an existing checkout session by its
	// provider-issued identifier.
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)

	// GetSubscription fetches the provider's subscription object, primarily
	// for its status and true renewal date.
	GetSubscription(ctx context.Context, subscriptionID string) (*ProviderSubscription, error)

	// ParseWebhook validates and parses incoming webhook data.
	// Must validate the signature to prevent webhook spoofing; a failed
	// verification returns ErrWebhookVerificationFailed and no event.
	ParseWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error)
}

// CheckoutRequest contains data needed to create a checkout session.
type CheckoutRequest struct {
	PriceID    string // Provider's price/plan identifier
	UserID     string // Internal user ID, carried in session metadata
	Email      string // Optional billing email to pre-fill
	SuccessURL string // Redirect after successful payment
	CancelURL  string // Redirect if customer cancels
}

// CheckoutSession represents a hosted checkout session, either freshly
// created or fetched back from the provider for verification.
type CheckoutSession struct {
	ID             string    // Provider's session identifier
	URL            string    // Hosted checkout URL (empty on fetched sessions)
	PaymentStatus  string    // Provider payment status; "paid" grants access
	UserID         string    // Internal user ID recovered from metadata
	CustomerID     string    // Provider's customer identifier
	SubscriptionID string    // Provider's subscription identifier, if any
	CustomerEmail  string    // Billing email, if the provider exposes it
	ExpiresAt      time.Time // Session expiration
}

// Paid reports whether the session's payment has been completed.
func (s *CheckoutSession) Paid() bool {
	return s.PaymentStatus == "paid"
}

// ProviderSubscription is the provider's view of a subscription.
type ProviderSubscription struct {
	ID               string
	CustomerID       string
	Status           Status
	CurrentPeriodEnd time.Time // Zero when the provider does not report one
}

// WebhookEvent represents a normalized webhook event from the billing provider.
type WebhookEvent struct {
	ID                string          // Provider event ID, used for dedupe
	Type              EventType       // Normalized event type
	ProviderEvent     string          // Original provider event name
	CheckoutSessionID string          // Set for checkout completion events
	SubscriptionID    string          // Provider's subscription ID
	CustomerID        string          // Provider's customer ID
	UserID            string          // Internal user ID from metadata, if present
	CustomerEmail     string          // Billing email, if present
	Status            string          // Provider subscription status
	CurrentPeriodEnd  time.Time       // Zero when the event does not carry one
	Raw               json.RawMessage // Full event object payload
}

// EventType represents the normalized billing event type.
// Each provider implementation maps their specific events to these types.
type EventType string

const (
	EventCheckoutCompleted    EventType = "checkout_completed"
	EventSubscriptionUpdated  EventType = "subscription_updated"
	EventSubscriptionCanceled EventType = "subscription_canceled"

	// EventUnhandled marks verified events the service acknowledges
	// without any state change.
	EventUnhandled EventType = "unhandled"
)
