// Package pg bootstraps the PostgreSQL layer: a pgx/v5 connection pool with
// startup retries, goose schema migrations, a pool healthcheck, and helpers
// for classifying common PostgreSQL errors.
package pg
