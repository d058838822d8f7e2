// Package redis connects to a Redis server with retries and exposes a
// healthcheck probe. The client backs the billing webhook deduplication store.
package redis
