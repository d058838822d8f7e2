package billing

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/streamvault/streamvault/pkg/logger"
)

// ActivationOutcome is the terminal result of an activation poll run.
type ActivationOutcome string

const (
	// OutcomeActive means an active subscription was observed.
	OutcomeActive ActivationOutcome = "active"
	// OutcomeBlocked means polling and the fallback verification both
	// failed to surface an active subscription.
	OutcomeBlocked ActivationOutcome = "blocked"
	// OutcomeCheckoutRequired means the user arrived without ever starting
	// checkout and holds no subscription.
	OutcomeCheckoutRequired ActivationOutcome = "checkout_required"
)

// ActivationResult reports how an activation run resolved.
type ActivationResult struct {
	Outcome      ActivationOutcome
	Attempts     int    // Poll attempts performed, excluding the initial check
	FallbackUsed bool   // True when the session verifier was invoked
	RedirectURL  string // Set for blocked and checkout_required outcomes
}

// SubscriptionChecker is the read side the poller needs.
type SubscriptionChecker interface {
	HasActiveSubscription(ctx context.Context, userID uuid.UUID) (bool, error)
}

// SessionVerifier is the fallback activation path the poller invokes after
// exhausting its polls.
type SessionVerifier interface {
	VerifyCheckoutSession(ctx context.Context, sessionID string) error
}

const (
	defaultPollInterval = 2 * time.Second
	defaultMaxAttempts  = 10

	checkoutPath        = "/checkout"
	checkoutBlockedPath = "/checkout?error=payment_pending"
)

// ActivationPoller waits for a freshly paid subscription to land in the
// store. After redirect back from the payment provider the webhook usually
// races the client; the poller bridges that gap with a bounded retry loop
// and a single verifier fallback, never an unbounded wait.
//
// The run is an explicit state progression: one immediate check, then up to
// maxAttempts polls at a fixed interval, then one fallback verification
// followed by a final check.
type ActivationPoller struct {
	checker  SubscriptionChecker
	verifier SessionVerifier
	interval time.Duration
	attempts int
	sleep    func(ctx context.Context, d time.Duration) error
	log      *slog.Logger
}

// PollerOption configures an ActivationPoller.
type PollerOption func(*ActivationPoller)

// WithPollInterval overrides the delay between polls.
func WithPollInterval(interval time.Duration) PollerOption {
	return func(p *ActivationPoller) {
		if interval > 0 {
			p.interval = interval
		}
	}
}

// WithMaxAttempts overrides the poll attempt bound.
func WithMaxAttempts(attempts int) PollerOption {
	return func(p *ActivationPoller) {
		if attempts > 0 {
			p.attempts = attempts
		}
	}
}

// WithSleepFunc overrides how the poller waits between attempts, letting
// tests run without real delays.
func WithSleepFunc(sleep func(ctx context.Context, d time.Duration) error) PollerOption {
	return func(p *ActivationPoller) {
		if sleep != nil {
			p.sleep = sleep
		}
	}
}

// WithPollerLogger sets the poller logger. Defaults to slog.Default.
func WithPollerLogger(log *slog.Logger) PollerOption {
	return func(p *ActivationPoller) {
		if log != nil {
			p.log = log
		}
	}
}

// NewActivationPoller creates a poller. Panics if checker or verifier is
// nil to fail fast during initialization.
func NewActivationPoller(checker SubscriptionChecker, verifier SessionVerifier, opts ...PollerOption) *ActivationPoller {
	if checker == nil {
		panic("billing: SubscriptionChecker is required")
	}
	if verifier == nil {
		panic("billing: SessionVerifier is required")
	}

	p := &ActivationPoller{
		checker:  checker,
		verifier: verifier,
		interval: defaultPollInterval,
		attempts: defaultMaxAttempts,
		sleep:    sleepContext,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run polls until the user's subscription activates or the budget runs
// out. sessionID may be empty when the user arrived without starting
// checkout; in that case no polling happens at all. The only error return
// is context cancellation; every other condition resolves to a tagged
// outcome.
func (p *ActivationPoller) Run(ctx context.Context, userID uuid.UUID, sessionID string) (*ActivationResult, error) {
	// Initial check: the webhook may already have won the race.
	active, err := p.checker.HasActiveSubscription(ctx, userID)
	if err != nil {
		p.log.WarnContext(ctx, "activation check failed", logger.UserID(userID.String()), logger.Error(err))
	}
	if active {
		return &ActivationResult{Outcome: OutcomeActive}, nil
	}

	if sessionID == "" {
		// Never started checkout and no subscription: nothing to wait for.
		return &ActivationResult{
			Outcome:     OutcomeCheckoutRequired,
			RedirectURL: checkoutPath,
		}, nil
	}

	result := &ActivationResult{}
	for attempt := 1; attempt <= p.attempts; attempt++ {
		if err := p.sleep(ctx, p.interval); err != nil {
			return nil, err
		}
		result.Attempts = attempt

		active, err := p.checker.HasActiveSubscription(ctx, userID)
		if err != nil {
			p.log.WarnContext(ctx, "activation poll failed",
				logger.UserID(userID.String()),
				slog.Int("attempt", attempt),
				logger.Error(err),
			)
			continue
		}
		if active {
			result.Outcome = OutcomeActive
			return result, nil
		}
	}

	// Poll budget exhausted: verify the session directly once, in case the
	// webhook was lost entirely, then look one last time.
	result.FallbackUsed = true
	if err := p.verifier.VerifyCheckoutSession(ctx, sessionID); err != nil {
		p.log.WarnContext(ctx, "fallback session verification failed",
			logger.UserID(userID.String()),
			logger.CheckoutSessionID(sessionID),
			logger.Error(err),
		)
	}

	active, err = p.checker.HasActiveSubscription(ctx, userID)
	if err != nil {
		p.log.WarnContext(ctx, "final activation check failed", logger.UserID(userID.String()), logger.Error(err))
	}
	if active {
		result.Outcome = OutcomeActive
		return result, nil
	}

	result.Outcome = OutcomeBlocked
	result.RedirectURL = checkoutBlockedPath
	return result, nil
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
