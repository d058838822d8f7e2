// Package requestid provides HTTP middleware and helpers for request
// correlation identifiers.
//
// The Middleware attaches an X-Request-ID to every request, reusing a
// valid client-supplied value or generating a UUID. WithContext and
// FromContext move the ID through context.Context, and LoggerExtractor
// plugs it into the logger so every log record for a request carries the
// same ID.
//
//	mux := chi.NewRouter()
//	mux.Use(requestid.Middleware)
//
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
//
// The package does not return errors; invalid client-supplied IDs are
// silently replaced.
package requestid
