// Package library exposes the gated video library over HTTP: category
// browsing, title lookup, and presigned playback URLs. Every route sits
// behind bearer auth and the RequireActiveSubscription gate.
package library
