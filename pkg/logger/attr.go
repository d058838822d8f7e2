package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the user identifier under the key "user_id".
func UserID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("user_id", id)
}

// CheckoutSessionID records the provider checkout session id.
func CheckoutSessionID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("checkout_session_id", id)
}

// SubscriptionID records the provider subscription id.
func SubscriptionID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("billing_subscription_id", id)
}

// Event records the billing event type under the key "event".
func Event(eventType string) slog.Attr {
	if eventType == "" {
		return slog.Attr{}
	}
	return slog.String("event", eventType)
}
