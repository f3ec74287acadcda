package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/cache"
	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/config"
	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/detect"
	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/minhash"
	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/model"
	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/ratelimit"
	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/recruiter"
)

type noopFetcher struct{}

func (noopFetcher) FetchMetadata(ctx context.Context, nodeID string) (model.Metadata, error) {
	return model.Metadata{}, http.ErrNotSupported
}

type noopRecruiter struct{}

func (noopRecruiter) Recruit(ctx context.Context, source model.Metadata, fields []model.Field, maxCandidates int) recruiter.Result {
	return recruiter.Result{}
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{
		Addr:            ":8080",
		Env:             "development",
		MaxCandidates:   40,
		RateLimitRPM:    100,
		RequestDeadline: 5 * time.Second,
		AdminAPIKey:     "secret",
	}
	pipeline := detect.New(noopFetcher{}, noopRecruiter{}, minhash.NewEngine(), zerolog.Nop())
	respCache := cache.New(time.Minute, 100, zerolog.Nop())
	limiter := ratelimit.New(cfg.RateLimitRPM)
	return New(cfg, zerolog.Nop(), pipeline, respCache, limiter)
}

func TestHealthRoute(t *testing.T) {
	r := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestOpenAPIRoute(t *testing.T) {
	r := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/openapi.json", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestAdminRouteRequiresKey(t *testing.T) {
	r := testRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/admin/cache/clear", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403 without an admin key", w.Code)
	}
}

func TestAdminRouteWithValidKey(t *testing.T) {
	r := testRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/admin/cache/clear", nil)
	req.Header.Set("X-Admin-Key", "secret")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 with a valid admin key", w.Code)
	}
}

func TestDetectRouteRejectsMissingNodeID(t *testing.T) {
	r := testRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/detect/hash/by-node", strings.NewReader(`{}`))
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for a by-node request missing node_id", w.Code)
	}
}
