// Package ratelimit implements fixed-window request limiting backed by
// Redis, shared across service replicas. It guards the credential
// endpoints against brute force; everything else runs unlimited.
package ratelimit
