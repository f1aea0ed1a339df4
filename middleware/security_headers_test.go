package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatekeeperhq/gatekeeper/middleware"
)

func serveWithHeaders(cfg middleware.SecurityHeadersConfig, path string) *httptest.ResponseRecorder {
	handler := middleware.SecurityHeadersWithConfig(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
	return rec
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	t.Run("balanced defaults", func(t *testing.T) {
		t.Parallel()

		rec := serveWithHeaders(middleware.BalancedSecurity, "/")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "SAMEORIGIN", rec.Header().Get("X-Frame-Options"))
		assert.Contains(t, rec.Header().Get("Strict-Transport-Security"), "max-age=")
		assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
	})

	t.Run("development disables hsts", func(t *testing.T) {
		t.Parallel()

		rec := serveWithHeaders(middleware.DevelopmentSecurity, "/")
		assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	})

	t.Run("custom headers are appended", func(t *testing.T) {
		t.Parallel()

		cfg := middleware.BalancedSecurity
		cfg.CustomHeaders = map[string]string{"X-Robots-Tag": "noindex"}
		rec := serveWithHeaders(cfg, "/")
		assert.Equal(t, "noindex", rec.Header().Get("X-Robots-Tag"))
	})

	t.Run("skip leaves the response untouched", func(t *testing.T) {
		t.Parallel()

		cfg := middleware.StrictSecurity
		cfg.Skip = func(r *http.Request) bool { return r.URL.Path == "/embed" }
		rec := serveWithHeaders(cfg, "/embed")
		assert.Empty(t, rec.Header().Get("X-Frame-Options"))
	})
}
