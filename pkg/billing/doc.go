// Package billing implements the subscription-activation flow: hosted
// checkout creation, webhook-driven subscription state, a client-facing
// fallback verifier, and the bounded activation poller that bridges the
// race between the redirect back from the payment provider and the
// asynchronous webhook delivery.
//
// # Architecture
//
// The Provider interface abstracts the payment provider; StripeProvider is
// the primary implementation, PaddleProvider the alternate. All subscription
// state lives in a single Postgres row per user behind SubscriptionStore,
// written exclusively through idempotent upserts so at-least-once webhook
// delivery and the verifier fallback can interleave safely.
//
// Service ties the pieces together:
//
//   - CreateCheckoutSession starts a checkout tagged with the user ID.
//   - HandleWebhook verifies, dedupes, and dispatches provider events.
//   - VerifyCheckoutSession re-derives state from the session object when
//     the webhook has not landed.
//   - EnsurePendingSubscription seeds the speculative row at signup.
//
// ActivationPoller runs the client-side waiting logic as an explicit
// bounded loop (one check, up to ten 2-second polls, one fallback
// verification, one final check) returning a tagged ActivationResult
// instead of retrying forever.
package billing
