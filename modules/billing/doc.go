// Package billing exposes the billing HTTP surface: checkout session
// creation (JSON and QR code variants), the Stripe webhook receiver,
// manual checkout session verification, subscription lookup, and the
// blocking activation wait endpoint clients call after returning from
// checkout.
//
// Mount it under /billing:
//
//	r.Mount("/billing", billingHandler.Router(jwt.Middleware(jwtSvc)))
package billing
