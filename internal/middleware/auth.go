package middleware

import (
	"net/http"

	"github.com/rs/zerolog"
)

// AdminAuth guards the admin cache-clear route with a shared secret
// (§6: header X-Admin-Key). An unset key fails every request with 500
// rather than silently disabling auth (§6's ADMIN_API_KEY row).
func AdminAuth(adminKey string, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if adminKey == "" {
				logger.Error().Msg("admin route called with ADMIN_API_KEY unset")
				writeJSONError(w, http.StatusInternalServerError, "internal", "admin API key is not configured")
				return
			}
			if r.Header.Get("X-Admin-Key") != adminKey {
				writeJSONError(w, http.StatusForbidden, "forbidden", "invalid admin key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
