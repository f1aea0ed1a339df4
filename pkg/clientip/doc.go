// Package clientip extracts real client IP addresses from HTTP requests.
//
// The package handles common proxy headers in priority order to determine
// the actual client IP, which is what rate limiting, anomaly detection,
// and security logging key on when the service runs behind proxies, load
// balancers, or CDNs.
//
// # Header Priority
//
// Headers are checked in this order:
//  1. CF-Connecting-IP (Cloudflare)
//  2. DO-Connecting-IP (DigitalOcean)
//  3. X-Forwarded-For (leftmost entry is the original client)
//  4. X-Real-IP (nginx and other proxies)
//  5. RemoteAddr (direct connection)
//
// All candidates are parsed and normalized; malformed headers and the
// unspecified address 0.0.0.0 are skipped. If nothing valid is found the
// raw RemoteAddr is returned, so the result is always non-empty for a
// well-formed request. GetIP never panics.
package clientip
