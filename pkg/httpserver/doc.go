// Package httpserver runs an http.Server with sane timeouts, graceful
// shutdown on signals or context cancellation, and health probe handlers.
package httpserver
