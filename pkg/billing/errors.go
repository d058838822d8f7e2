package billing

import "errors"

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrProviderError        = errors.New("billing provider error")

	ErrMissingSessionID = errors.New("checkout session ID is required")
	ErrMissingUserID    = errors.New("user ID missing from checkout session metadata")
	ErrMissingPriceID   = errors.New("price ID is required")
	ErrSessionNotPaid   = errors.New("checkout session is not paid")
	ErrNoCheckoutURL    = errors.New("no checkout URL returned from provider")

	// Provider configuration errors
	ErrMissingAPIKey             = errors.New("billing provider API key is required")
	ErrMissingWebhookSecret      = errors.New("billing provider webhook secret is required")
	ErrWebhookVerificationFailed = errors.New("webhook signature verification failed")
)
