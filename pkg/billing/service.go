package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/streamvault/streamvault/pkg/email"
	"github.com/streamvault/streamvault/pkg/logger"
)

// Config holds checkout configuration shared across providers.
type Config struct {
	PriceID    string `env:"BILLING_PRICE_ID,required"`
	SuccessURL string `env:"BILLING_SUCCESS_URL,required"`
	CancelURL  string `env:"BILLING_CANCEL_URL,required"`
}

const (
	// fallbackPeriod is used when the provider's subscription object cannot
	// be fetched during session verification. A degraded but safe default:
	// the next webhook delivery corrects it.
	fallbackPeriod = 30 * 24 * time.Hour

	// pendingPeriod bounds the speculative subscription row created at
	// signup before any payment has happened.
	pendingPeriod = 7 * 24 * time.Hour

	// pendingIDPrefix marks placeholder billing identifiers on speculative
	// rows so they can never collide with real provider IDs.
	pendingIDPrefix = "pending_"
)

// Service coordinates the payment provider and the subscription store. All
// handlers are stateless; every invocation reads and writes only through the
// store, which is the single shared mutable resource.
type Service struct {
	provider Provider
	store    SubscriptionStore
	deduper  EventDeduper
	mailer   email.EmailSender
	log      *slog.Logger
	now      func() time.Time
	config   Config
}

// NewService creates a billing service. Panics if provider or store is nil
// to fail fast during initialization. Optional collaborators (webhook
// dedupe, activation email) are wired through options.
func NewService(provider Provider, store SubscriptionStore, config Config, opts ...ServiceOption) *Service {
	if provider == nil {
		panic("billing: Provider is required")
	}
	if store == nil {
		panic("billing: SubscriptionStore is required")
	}

	s := &Service{
		provider: provider,
		store:    store,
		log:      slog.Default(),
		now:      func() time.Time { return time.Now().UTC() },
		config:   config,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateCheckoutSession creates a hosted checkout session for the user and
// returns it, primarily for its redirect URL. The user ID is carried in
// session metadata so webhook events and session verification can correlate
// the payment back to the account.
func (s *Service) CreateCheckoutSession(ctx context.Context, userID uuid.UUID, billingEmail string) (*CheckoutSession, error) {
	sess, err := s.provider.CreateCheckoutSession(ctx, CheckoutRequest{
		PriceID:    s.config.PriceID,
		UserID:     userID.String(),
		Email:      billingEmail,
		SuccessURL: s.config.SuccessURL,
		CancelURL:  s.config.CancelURL,
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "checkout session created",
		logger.UserID(userID.String()),
		logger.CheckoutSessionID(sess.ID),
	)
	return sess, nil
}

// HandleWebhook processes a raw webhook delivery. The signature is verified
// before anything else; a verification failure returns
// ErrWebhookVerificationFailed and mutates nothing. Verified events the
// service does not care about, and redeliveries of already-processed
// events, are acknowledged without state changes. Any other error should
// surface as a server error so the provider redelivers.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.provider.ParseWebhook(ctx, payload, signature)
	if err != nil {
		return err
	}

	if s.deduper != nil && event.ID != "" {
		seen, err := s.deduper.Seen(ctx, event.ID)
		if err != nil {
			// Dedupe is an optimization; upserts are idempotent, so a
			// Redis failure downgrades to processing the event again.
			s.log.WarnContext(ctx, "webhook dedupe unavailable", logger.Event(event.ID), logger.Error(err))
		} else if seen {
			s.log.InfoContext(ctx, "webhook event already processed", logger.Event(event.ID))
			return nil
		}
	}

	switch event.Type {
	case EventCheckoutCompleted:
		return s.handleCheckoutCompleted(ctx, event)
	case EventSubscriptionUpdated:
		return s.handleSubscriptionUpdated(ctx, event)
	case EventSubscriptionCanceled:
		return s.handleSubscriptionCanceled(ctx, event)
	default:
		s.log.InfoContext(ctx, "webhook event ignored",
			logger.Event(event.ID),
			slog.String("provider_event", event.ProviderEvent),
		)
		return nil
	}
}

// handleCheckoutCompleted activates the subscription for the user named in
// the session metadata. The referenced subscription object is fetched for
// its authoritative status and renewal date; a fetch failure surfaces as an
// error so the provider redelivers once it resolves.
func (s *Service) handleCheckoutCompleted(ctx context.Context, event *WebhookEvent) error {
	userID, err := uuid.Parse(event.UserID)
	if err != nil {
		// Without a user linkage there is nothing safe to provision.
		// Acknowledge so the provider does not redeliver forever.
		s.log.WarnContext(ctx, "checkout completed without valid user linkage, refusing to provision",
			logger.Event(event.ID),
			logger.CheckoutSessionID(event.CheckoutSessionID),
		)
		return nil
	}

	status := StatusActive
	periodEnd := s.now().Add(fallbackPeriod)
	if event.SubscriptionID != "" {
		sub, err := s.provider.GetSubscription(ctx, event.SubscriptionID)
		if err != nil {
			return fmt.Errorf("fetch subscription for checkout %s: %w", event.CheckoutSessionID, err)
		}
		status = sub.Status
		if !sub.CurrentPeriodEnd.IsZero() {
			periodEnd = sub.CurrentPeriodEnd
		}
	}

	now := s.now()
	subscription := &Subscription{
		UserID:                userID,
		BillingCustomerID:     event.CustomerID,
		BillingSubscriptionID: event.SubscriptionID,
		Status:                status,
		CurrentPeriodEnd:      periodEnd,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := s.store.Upsert(ctx, subscription); err != nil {
		return fmt.Errorf("upsert subscription for user %s: %w", userID, err)
	}

	s.log.InfoContext(ctx, "subscription provisioned from webhook",
		logger.UserID(userID.String()),
		logger.SubscriptionID(event.SubscriptionID),
		slog.String("status", string(status)),
	)

	if subscription.IsActive() {
		s.sendActivationEmail(ctx, event.CustomerEmail)
	}
	return nil
}

func (s *Service) handleSubscriptionUpdated(ctx context.Context, event *WebhookEvent) error {
	var periodEnd *time.Time
	if !event.CurrentPeriodEnd.IsZero() {
		periodEnd = &event.CurrentPeriodEnd
	}

	status := Status(event.Status)
	err := s.store.UpdateByBillingSubscriptionID(ctx, event.SubscriptionID, status, periodEnd)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			// The row may simply not exist yet; the checkout event that
			// creates it will carry the current state anyway.
			s.log.WarnContext(ctx, "subscription update for unknown subscription",
				logger.SubscriptionID(event.SubscriptionID),
			)
			return nil
		}
		return fmt.Errorf("update subscription %s: %w", event.SubscriptionID, err)
	}

	s.log.InfoContext(ctx, "subscription updated from webhook",
		logger.SubscriptionID(event.SubscriptionID),
		slog.String("status", string(status)),
	)
	return nil
}

// handleSubscriptionCanceled marks the row canceled. CurrentPeriodEnd is
// left untouched: access persists until the date already on file.
func (s *Service) handleSubscriptionCanceled(ctx context.Context, event *WebhookEvent) error {
	err := s.store.UpdateByBillingSubscriptionID(ctx, event.SubscriptionID, StatusCanceled, nil)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			s.log.WarnContext(ctx, "cancellation for unknown subscription",
				logger.SubscriptionID(event.SubscriptionID),
			)
			return nil
		}
		return fmt.Errorf("cancel subscription %s: %w", event.SubscriptionID, err)
	}

	s.log.InfoContext(ctx, "subscription canceled from webhook",
		logger.SubscriptionID(event.SubscriptionID),
	)
	return nil
}

// VerifyCheckoutSession is the fallback activation path for when the
// webhook has not landed (or was lost). It re-derives subscription state
// from the provider's session object: the session's own payment status is
// the trust anchor, since the session ID alone is merely unguessable, not
// authenticated.
func (s *Service) VerifyCheckoutSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrMissingSessionID
	}

	sess, err := s.provider.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if !sess.Paid() {
		return ErrSessionNotPaid
	}

	userID, err := uuid.Parse(sess.UserID)
	if err != nil {
		return ErrMissingUserID
	}

	existing, err := s.store.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, ErrSubscriptionNotFound) {
		return fmt.Errorf("get subscription for user %s: %w", userID, err)
	}
	if existing != nil && existing.IsActive() {
		// The webhook already landed; nothing to do.
		return nil
	}

	// Prefer the true renewal date; fall back to a 30-day period when the
	// subscription object cannot be fetched.
	periodEnd := s.now().Add(fallbackPeriod)
	if sess.SubscriptionID != "" {
		if sub, err := s.provider.GetSubscription(ctx, sess.SubscriptionID); err == nil && !sub.CurrentPeriodEnd.IsZero() {
			periodEnd = sub.CurrentPeriodEnd
		} else if err != nil {
			s.log.WarnContext(ctx, "falling back to default period end",
				logger.CheckoutSessionID(sessionID),
				logger.Error(err),
			)
		}
	}

	now := s.now()
	subscription := &Subscription{
		UserID:                userID,
		BillingCustomerID:     sess.CustomerID,
		BillingSubscriptionID: sess.SubscriptionID,
		Status:                StatusActive,
		CurrentPeriodEnd:      periodEnd,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := s.store.Upsert(ctx, subscription); err != nil {
		return fmt.Errorf("upsert subscription for user %s: %w", userID, err)
	}

	s.log.InfoContext(ctx, "subscription activated via session verification",
		logger.UserID(userID.String()),
		logger.CheckoutSessionID(sessionID),
	)

	s.sendActivationEmail(ctx, sess.CustomerEmail)
	return nil
}

// EnsurePendingSubscription creates the speculative pending row at signup.
// Placeholder billing IDs keep the row from matching any webhook lookup;
// the first confirmed payment replaces them through the UserID-keyed upsert.
func (s *Service) EnsurePendingSubscription(ctx context.Context, userID uuid.UUID) error {
	now := s.now()
	return s.store.CreateIfAbsent(ctx, &Subscription{
		UserID:                userID,
		BillingCustomerID:     pendingIDPrefix + userID.String(),
		BillingSubscriptionID: pendingIDPrefix + userID.String(),
		Status:                StatusPending,
		CurrentPeriodEnd:      now.Add(pendingPeriod),
		CreatedAt:             now,
		UpdatedAt:             now,
	})
}

// GetSubscription returns the user's subscription row.
func (s *Service) GetSubscription(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	return s.store.GetByUserID(ctx, userID)
}

// HasActiveSubscription reports whether the user currently holds an active
// subscription.
func (s *Service) HasActiveSubscription(ctx context.Context, userID uuid.UUID) (bool, error) {
	_, err := s.store.GetActiveByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// sendActivationEmail notifies the subscriber that access is live. Failures
// are logged and swallowed: email is a courtesy, not part of the activation
// contract.
func (s *Service) sendActivationEmail(ctx context.Context, to string) {
	if s.mailer == nil || to == "" {
		return
	}
	err := s.mailer.SendEmail(ctx, email.SendEmailParams{
		SendTo:   to,
		Subject:  "Your StreamVault subscription is active",
		BodyHTML: activationEmailBody,
		Tag:      "subscription-activated",
	})
	if err != nil {
		s.log.ErrorContext(ctx, "failed to send activation email", logger.Error(err))
	}
}

const activationEmailBody = `<html><body>
<h1>Welcome to StreamVault</h1>
<p>Your subscription is active. The full library is now open - enjoy.</p>
</body></html>`
