// Package metadata captures client provenance (IP, user-agent family) so
// detection runs can record who triggered them and from where.
package metadata

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"scrutiny/pkg/requestcontext"
)

// ClientMetadata extracts the client IP and user-agent family from the
// request and adds them to the context. Apply early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = requestcontext.WithClientIP(ctx, ClientIPFromRequest(r))
		ctx = requestcontext.WithUserAgent(ctx, AgentFamily(r.Header.Get("User-Agent")))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AgentFamily reduces a raw User-Agent header to "browser/os" so report
// provenance stays readable and free of full UA strings.
func AgentFamily(raw string) string {
	if raw == "" {
		return ""
	}
	ua := useragent.New(raw)
	name, version := ua.Browser()
	if name == "" {
		return "unknown"
	}
	family := name
	if version != "" {
		if idx := strings.Index(version, "."); idx != -1 {
			version = version[:idx]
		}
		family += "/" + version
	}
	if os := ua.OSInfo().Name; os != "" {
		family += " (" + os + ")"
	}
	return family
}

// ClientIPFromRequest extracts the real client IP, handling proxies and load
// balancers.
func ClientIPFromRequest(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs; the first is the client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}
	return host
}
