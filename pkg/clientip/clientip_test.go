package clientip_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gatekeeperhq/gatekeeper/pkg/clientip"
)

func TestGetIP(t *testing.T) {
	t.Parallel()

	t.Run("remote addr fallback", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "203.0.113.7:54321"
		assert.Equal(t, "203.0.113.7", clientip.GetIP(r))
	})

	t.Run("cloudflare header wins over everything", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "10.0.0.1:1234"
		r.Header.Set("CF-Connecting-IP", "198.51.100.4")
		r.Header.Set("X-Forwarded-For", "192.0.2.9")
		assert.Equal(t, "198.51.100.4", clientip.GetIP(r))
	})

	t.Run("leftmost forwarded-for entry", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "10.0.0.1:1234"
		r.Header.Set("X-Forwarded-For", "192.0.2.9, 10.0.0.2, 10.0.0.3")
		assert.Equal(t, "192.0.2.9", clientip.GetIP(r))
	})

	t.Run("x-real-ip when forwarded-for absent", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "10.0.0.1:1234"
		r.Header.Set("X-Real-IP", "198.51.100.23")
		assert.Equal(t, "198.51.100.23", clientip.GetIP(r))
	})

	t.Run("malformed headers are skipped", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "203.0.113.7:443"
		r.Header.Set("X-Forwarded-For", "not-an-ip")
		r.Header.Set("X-Real-IP", "0.0.0.0")
		assert.Equal(t, "203.0.113.7", clientip.GetIP(r))
	})

	t.Run("ipv6 is normalized", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "10.0.0.1:1234"
		r.Header.Set("X-Forwarded-For", "2001:DB8::1")
		assert.Equal(t, "2001:db8::1", clientip.GetIP(r))
	})
}
