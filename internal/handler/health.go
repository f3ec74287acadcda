package handler

import "net/http"

// Health handles GET /health (§6): unauthenticated liveness probe.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "dupcheck"})
}
