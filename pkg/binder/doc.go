// Package binder decodes HTTP request payloads into Go structs with strict
// validation of media types and body contents.
//
// Handlers call BindJSON directly:
//
//	var req verifyRequest
//	if err := binder.BindJSON(r, &req); err != nil {
//	    // respond with 400
//	}
//
// Binding failures are wrapped in sentinel errors (ErrInvalidJSON,
// ErrUnsupportedMediaType, ErrMissingContentType) so handlers can map
// them to status codes with errors.Is.
package binder
