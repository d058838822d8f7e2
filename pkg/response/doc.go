// Package response provides minimal JSON and image response writers shared
// by the HTTP modules. Errors follow a single envelope shape:
//
//	{"error": {"code": "subscription_required", "message": "..."}}
package response
