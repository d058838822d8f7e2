package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/streamvault/streamvault/pkg/pg"
)

// PGSubscriptionStore implements SubscriptionStore on Postgres. The
// subscriptions table carries a unique constraint on user_id, which the
// upsert leans on: every writer converges on the same row.
type PGSubscriptionStore struct {
	pool *pgxpool.Pool
}

// NewPGSubscriptionStore creates a Postgres-backed subscription store.
func NewPGSubscriptionStore(pool *pgxpool.Pool) *PGSubscriptionStore {
	if pool == nil {
		panic("billing: pgxpool.Pool is required")
	}
	return &PGSubscriptionStore{pool: pool}
}

const subscriptionColumns = `user_id, billing_customer_id, billing_subscription_id, status, current_period_end, created_at, updated_at`

func (s *PGSubscriptionStore) GetByUserID(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id = $1`,
		userID,
	)
	return scanSubscription(row)
}

func (s *PGSubscriptionStore) GetActiveByUserID(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id = $1 AND status = $2`,
		userID, StatusActive,
	)
	return scanSubscription(row)
}

func (s *PGSubscriptionStore) GetByBillingSubscriptionID(ctx context.Context, billingSubscriptionID string) (*Subscription, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE billing_subscription_id = $1`,
		billingSubscriptionID,
	)
	return scanSubscription(row)
}

// Upsert writes the subscription keyed by user_id. Last write wins; both
// activation paths derive consistent status/period pairs, so interleaved
// writers cannot produce a contradictory row.
func (s *PGSubscriptionStore) Upsert(ctx context.Context, sub *Subscription) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO subscriptions (`+subscriptionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (user_id) DO UPDATE SET
			billing_customer_id = EXCLUDED.billing_customer_id,
			billing_subscription_id = EXCLUDED.billing_subscription_id,
			status = EXCLUDED.status,
			current_period_end = EXCLUDED.current_period_end,
			updated_at = EXCLUDED.updated_at`,
		sub.UserID, sub.BillingCustomerID, sub.BillingSubscriptionID,
		sub.Status, sub.CurrentPeriodEnd, sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

func (s *PGSubscriptionStore) CreateIfAbsent(ctx context.Context, sub *Subscription) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO subscriptions (`+subscriptionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (user_id) DO NOTHING`,
		sub.UserID, sub.BillingCustomerID, sub.BillingSubscriptionID,
		sub.Status, sub.CurrentPeriodEnd, sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create subscription: %w", err)
	}
	return nil
}

func (s *PGSubscriptionStore) UpdateByBillingSubscriptionID(ctx context.Context, billingSubscriptionID string, status Status, currentPeriodEnd *time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE subscriptions SET
			status = $2,
			current_period_end = COALESCE($3, current_period_end),
			updated_at = now()
		 WHERE billing_subscription_id = $1`,
		billingSubscriptionID, status, currentPeriodEnd,
	)
	if err != nil {
		return fmt.Errorf("update subscription %s: %w", billingSubscriptionID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

// rowScanner covers pgx.Row for scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (*Subscription, error) {
	var sub Subscription
	err := row.Scan(
		&sub.UserID,
		&sub.BillingCustomerID,
		&sub.BillingSubscriptionID,
		&sub.Status,
		&sub.CurrentPeriodEnd,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("scan subscription: %w", err)
	}
	return &sub, nil
}
