package handler

import (
	"net/http"

	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/cache"
)

// AdminHandler serves the admin routes (§6). Auth (X-Admin-Key) is
// enforced by middleware, not here.
type AdminHandler struct {
	cache *cache.Cache
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(respCache *cache.Cache) *AdminHandler {
	return &AdminHandler{cache: respCache}
}

// ClearCache handles POST /admin/cache/clear (§6), returning the number
// of entries removed (§4.6).
func (h *AdminHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	n := h.cache.Clear()
	writeJSON(w, http.StatusOK, map[string]int{"entries_removed": n})
}
