package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SubscriptionStore defines the interface for subscription persistence.
// Each user has at most one subscription, so UserID serves as the primary
// key for upserts; webhook events that only carry the provider's
// subscription id are correlated through BillingSubscriptionID.
type SubscriptionStore interface {
	// GetByUserID retrieves a subscription by user ID.
	// Returns ErrSubscriptionNotFound if no subscription exists.
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Subscription, error)

	// GetActiveByUserID retrieves a subscription with StatusActive for the user.
	// Returns ErrSubscriptionNotFound if the user has no active subscription.
	GetActiveByUserID(ctx context.Context, userID uuid.UUID) (*Subscription, error)

	// GetByBillingSubscriptionID retrieves a subscription by the provider's
	// subscription identifier.
	GetByBillingSubscriptionID(ctx context.Context, billingSubscriptionID string) (*Subscription, error)

	// Upsert creates or updates a subscription keyed by UserID.
	Upsert(ctx context.Context, subscription *Subscription) error

	// CreateIfAbsent inserts a subscription only when the user has no row yet.
	// Existing rows are left untouched.
	CreateIfAbsent(ctx context.Context, subscription *Subscription) error

	// UpdateByBillingSubscriptionID updates status and, when currentPeriodEnd
	// is non-nil, the period end of the row matched by the provider's
	// subscription id. Returns ErrSubscriptionNotFound when no row matches.
	UpdateByBillingSubscriptionID(ctx context.Context, billingSubscriptionID string, status Status, currentPeriodEnd *time.Time) error
}
