package clientip

import (
	"net"
	"net/http"
	"strings"
)

// proxyHeaders lists single-value headers in trust priority order.
var proxyHeaders = []string{
	"CF-Connecting-IP",
	"DO-Connecting-IP",
}

// GetIP returns the client IP address for the request, consulting proxy
// headers before falling back to the connection's remote address.
func GetIP(r *http.Request) string {
	for _, header := range proxyHeaders {
		if ip := normalize(r.Header.Get(header)); ip != "" {
			return ip
		}
	}

	// X-Forwarded-For may hold a chain "client, proxy1, proxy2"; the
	// leftmost entry is the original client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := normalize(first); ip != "" {
			return ip
		}
	}

	if ip := normalize(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		if ip := normalize(host); ip != "" {
			return ip
		}
	}
	if ip := normalize(r.RemoteAddr); ip != "" {
		return ip
	}

	return r.RemoteAddr
}

// normalize validates a candidate and returns its canonical form,
// or "" when the candidate is unusable.
func normalize(candidate string) string {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return ""
	}

	ip := net.ParseIP(candidate)
	if ip == nil || ip.IsUnspecified() {
		return ""
	}
	return ip.String()
}
