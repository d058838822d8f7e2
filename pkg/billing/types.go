package billing

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the current state of a subscription. The vocabulary is
// provider-defined and passed through largely unvalidated; only the values
// below carry meaning for access control.
type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusPastDue  Status = "past_due"
	StatusCanceled Status = "canceled"
)

// Subscription represents a user's subscription. Each user has at most one
// row, keyed by UserID. Billing identifiers are opaque values issued by the
// payment provider and are used to correlate webhook events back to a user
// when the event does not carry the user id directly.
type Subscription struct {
	UserID                uuid.UUID `json:"user_id"`
	BillingCustomerID     string    `json:"-"`
	BillingSubscriptionID string    `json:"-"`
	Status                Status    `json:"status"`
	CurrentPeriodEnd      time.Time `json:"current_period_end"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// IsActive returns true if the subscription grants access to gated content.
func (s *Subscription) IsActive() bool {
	return s.Status == StatusActive
}

// IsCanceled returns true if the subscription has been canceled. Access
// persists until CurrentPeriodEnd regardless.
func (s *Subscription) IsCanceled() bool {
	return s.Status == StatusCanceled
}

// IsPending returns true for the speculative row created at signup before
// any payment has been confirmed.
func (s *Subscription) IsPending() bool {
	return s.Status == StatusPending
}
