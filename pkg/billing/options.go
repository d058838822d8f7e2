package billing

import (
	"log/slog"
	"time"

	"github.com/streamvault/streamvault/pkg/email"
)

// ServiceOption configures optional Service collaborators.
type ServiceOption func(*Service)

// WithDeduper enables webhook event deduplication.
func WithDeduper(deduper EventDeduper) ServiceOption {
	return func(s *Service) {
		s.deduper = deduper
	}
}

// WithActivationEmail enables the courtesy email sent when a subscription
// becomes active.
func WithActivationEmail(sender email.EmailSender) ServiceOption {
	return func(s *Service) {
		s.mailer = sender
	}
}

// WithLogger sets the service logger. Defaults to slog.Default.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock overrides the time source, used by tests for deterministic
// period-end derivation.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
