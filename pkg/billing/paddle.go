package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// PaddleConfig holds configuration for the Paddle billing provider.
type PaddleConfig struct {
	APIKey        string `env:"PADDLE_API_KEY,required"`
	WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET,required"`
	Environment   string `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
}

// PaddleProvider implements Provider for Paddle. Paddle has no separate
// checkout-session object; a transaction doubles as one, so transaction IDs
// serve as session IDs and a "completed" transaction counts as paid.
type PaddleProvider struct {
	client   *paddle.SDK
	verifier *paddle.WebhookVerifier
	config   PaddleConfig
}

// NewPaddleProvider creates a new Paddle billing provider.
func NewPaddleProvider(config PaddleConfig) (*PaddleProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("%w: paddle API key", ErrMissingAPIKey)
	}
	if config.WebhookSecret == "" {
		return nil, fmt.Errorf("%w: paddle webhook secret", ErrMissingWebhookSecret)
	}

	var client *paddle.SDK
	var err error

	switch strings.ToLower(config.Environment) {
	case "sandbox":
		client, err = paddle.NewSandbox(config.APIKey)
	case "production", "":
		client, err = paddle.New(config.APIKey)
	default:
		return nil, fmt.Errorf("invalid paddle environment: %s", config.Environment)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle client: %w", err)
	}

	return &PaddleProvider{
		client:   client,
		verifier: paddle.NewWebhookVerifier(config.WebhookSecret),
		config:   config,
	}, nil
}

// CreateCheckoutSession creates a hosted checkout transaction in Paddle.
func (p *PaddleProvider) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if req.PriceID == "" {
		return nil, ErrMissingPriceID
	}
	if req.UserID == "" {
		return nil, ErrMissingUserID
	}

	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  req.PriceID,
		Quantity: 1,
	})

	transactionReq := &paddle.CreateTransactionRequest{
		Items: []paddle.CreateTransactionItems{*item},
		CustomData: paddle.CustomData{
			metadataUserIDKey: req.UserID,
		},
	}
	if req.Email != "" {
		transactionReq.CustomData["email"] = req.Email
	}
	if req.SuccessURL != "" {
		transactionReq.Checkout = &paddle.TransactionCheckout{
			URL: paddle.PtrTo(req.SuccessURL),
		}
	}

	transaction, err := p.client.TransactionsClient.CreateTransaction(ctx, transactionReq)
	if err != nil {
		return nil, errors.Join(ErrProviderError, fmt.Errorf("create paddle transaction: %w", err))
	}

	var checkoutURL string
	if transaction.Checkout != nil && transaction.Checkout.URL != nil {
		checkoutURL = *transaction.Checkout.URL
	}
	if checkoutURL == "" {
		return nil, ErrNoCheckoutURL
	}

	return &CheckoutSession{
		ID:        transaction.ID,
		URL:       checkoutURL,
		UserID:    req.UserID,
		ExpiresAt: time.Now().Add(24 * time.Hour), // Paddle checkout links expire in 24 hours
	}, nil
}

// GetCheckoutSession fetches a transaction and presents it as a checkout
// session. A completed transaction maps to payment status "paid".
func (p *PaddleProvider) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	if sessionID == "" {
		return nil, ErrMissingSessionID
	}

	transaction, err := p.client.TransactionsClient.GetTransaction(ctx, &paddle.GetTransactionRequest{
		TransactionID: sessionID,
	})
	if err != nil {
		return nil, errors.Join(ErrProviderError, fmt.Errorf("get paddle transaction %s: %w", sessionID, err))
	}

	result := &CheckoutSession{
		ID:            transaction.ID,
		PaymentStatus: mapPaddleTransactionStatus(string(transaction.Status)),
	}
	if transaction.CustomerID != nil {
		result.CustomerID = *transaction.CustomerID
	}
	if transaction.SubscriptionID != nil {
		result.SubscriptionID = *transaction.SubscriptionID
	}
	if transaction.CustomData != nil {
		if userID, ok := transaction.CustomData[metadataUserIDKey].(string); ok {
			result.UserID = userID
		}
		if email, ok := transaction.CustomData["email"].(string); ok {
			result.CustomerEmail = email
		}
	}

	return result, nil
}

// GetSubscription fetches a Paddle subscription for its status and renewal date.
func (p *PaddleProvider) GetSubscription(ctx context.Context, subscriptionID string) (*ProviderSubscription, error) {
	sub, err := p.client.SubscriptionsClient.GetSubscription(ctx, &paddle.GetSubscriptionRequest{
		SubscriptionID: subscriptionID,
	})
	if err != nil {
		return nil, errors.Join(ErrProviderError, fmt.Errorf("get paddle subscription %s: %w", subscriptionID, err))
	}

	result := &ProviderSubscription{
		ID:         sub.ID,
		CustomerID: sub.CustomerID,
		Status:     mapPaddleStatus(string(sub.Status)),
	}
	if sub.CurrentBillingPeriod != nil {
		if end, err := time.Parse(time.RFC3339, sub.CurrentBillingPeriod.EndsAt); err == nil {
			result.CurrentPeriodEnd = end.UTC()
		}
	}

	return result, nil
}

// ParseWebhook validates and parses incoming webhook data from Paddle.
// The Paddle SDK verifies signatures against an http.Request, so one is
// reconstructed around the raw payload.
func (p *PaddleProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/webhook", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request for verification: %w", err)
	}
	req.Header.Set("Paddle-Signature", signature)

	valid, err := p.verifier.Verify(req)
	if err != nil {
		return nil, errors.Join(ErrWebhookVerificationFailed, err)
	}
	if !valid {
		return nil, ErrWebhookVerificationFailed
	}

	var paddleEvent struct {
		EventID   string          `json:"event_id"`
		EventType string          `json:"event_type"`
		Data      json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &paddleEvent); err != nil {
		return nil, fmt.Errorf("failed to parse webhook payload: %w", err)
	}

	normalized := &WebhookEvent{
		ID:            paddleEvent.EventID,
		Type:          mapPaddleEventType(paddleEvent.EventType),
		ProviderEvent: paddleEvent.EventType,
		Raw:           paddleEvent.Data,
	}
	if normalized.Type == EventUnhandled {
		return normalized, nil
	}

	switch {
	case strings.HasPrefix(paddleEvent.EventType, "transaction."):
		var txn struct {
			ID             string         `json:"id"`
			SubscriptionID string         `json:"subscription_id"`
			CustomerID     string         `json:"customer_id"`
			Status         string         `json:"status"`
			CustomData     map[string]any `json:"custom_data"`
		}
		if err := json.Unmarshal(paddleEvent.Data, &txn); err != nil {
			return nil, fmt.Errorf("decode paddle transaction event: %w", err)
		}
		normalized.CheckoutSessionID = txn.ID
		normalized.SubscriptionID = txn.SubscriptionID
		normalized.CustomerID = txn.CustomerID
		normalized.Status = txn.Status
		if userID, ok := txn.CustomData[metadataUserIDKey].(string); ok {
			normalized.UserID = userID
		}
		if email, ok := txn.CustomData["email"].(string); ok {
			normalized.CustomerEmail = email
		}

	case strings.HasPrefix(paddleEvent.EventType, "subscription."):
		var sub struct {
			ID                   string         `json:"id"`
			CustomerID           string         `json:"customer_id"`
			Status               string         `json:"status"`
			CustomData           map[string]any `json:"custom_data"`
			CurrentBillingPeriod struct {
				EndsAt string `json:"ends_at"`
			} `json:"current_billing_period"`
		}
		if err := json.Unmarshal(paddleEvent.Data, &sub); err != nil {
			return nil, fmt.Errorf("decode paddle subscription event: %w", err)
		}
		normalized.SubscriptionID = sub.ID
		normalized.CustomerID = sub.CustomerID
		normalized.Status = string(mapPaddleStatus(sub.Status))
		if userID, ok := sub.CustomData[metadataUserIDKey].(string); ok {
			normalized.UserID = userID
		}
		if end, err := time.Parse(time.RFC3339, sub.CurrentBillingPeriod.EndsAt); err == nil {
			normalized.CurrentPeriodEnd = end.UTC()
		}
	}

	return normalized, nil
}

// mapPaddleEventType maps Paddle event types to normalized EventTypes.
// transaction.completed is the Paddle analogue of a completed checkout.
func mapPaddleEventType(paddleEvent string) EventType {
	switch paddleEvent {
	case "transaction.completed":
		return EventCheckoutCompleted
	case "subscription.updated", "subscription.resumed":
		return EventSubscriptionUpdated
	case "subscription.canceled":
		return EventSubscriptionCanceled
	default:
		return EventUnhandled
	}
}

// mapPaddleTransactionStatus maps a Paddle transaction status to the
// checkout payment-status vocabulary.
func mapPaddleTransactionStatus(status string) string {
	switch strings.ToLower(status) {
	case "completed", "paid":
		return "paid"
	default:
		return strings.ToLower(status)
	}
}

// mapPaddleStatus maps Paddle subscription status to internal Status.
func mapPaddleStatus(paddleStatus string) Status {
	switch strings.ToLower(paddleStatus) {
	case "active", "trialing":
		return StatusActive
	case "past_due":
		return StatusPastDue
	case "canceled", "cancelled":
		return StatusCanceled
	case "paused":
		return StatusPending
	default:
		return Status(paddleStatus)
	}
}
