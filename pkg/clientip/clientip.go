// Package clientip resolves the originating client address of an HTTP
// request, looking through the proxy headers set by the load balancer
// before falling back to the socket address.
package clientip

import (
	"net"
	"net/http"
	"strings"
)

// FromRequest returns the client IP as a normalized string. Header order:
// X-Forwarded-For (first valid entry), then X-Real-IP, then RemoteAddr.
// Returns an empty string only when nothing parses as an IP.
func FromRequest(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		for _, part := range strings.Split(forwarded, ",") {
			if ip := normalize(strings.TrimSpace(part)); ip != "" {
				return ip
			}
		}
	}

	if ip := normalize(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port, likely already a bare IP.
		return normalize(r.RemoteAddr)
	}
	return normalize(host)
}

func normalize(s string) string {
	ip := net.ParseIP(strings.Trim(s, "[]"))
	if ip == nil {
		return ""
	}
	return ip.String()
}
