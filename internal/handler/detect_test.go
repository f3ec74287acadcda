package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/cache"
	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/detect"
	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/minhash"
	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/model"
	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/recruiter"
)

type stubMetadataFetcher struct {
	byNode map[string]model.Metadata
}

func (s *stubMetadataFetcher) FetchMetadata(ctx context.Context, nodeID string) (model.Metadata, error) {
	m, ok := s.byNode[nodeID]
	if !ok {
		return model.Metadata{}, http.ErrNoLocation
	}
	return m, nil
}

type stubRecruiter struct{}

func (stubRecruiter) Recruit(ctx context.Context, source model.Metadata, fields []model.Field, maxCandidates int) recruiter.Result {
	return recruiter.Result{}
}

func newTestHandler() *DetectHandler {
	pipeline := detect.New(&stubMetadataFetcher{byNode: map[string]model.Metadata{
		"n1": {Title: "Existing Node"},
	}}, stubRecruiter{}, minhash.NewEngine(), zerolog.Nop())
	c := cache.New(time.Minute, 100, zerolog.Nop())
	return NewDetectHandler(pipeline, c, 40, zerolog.Nop())
}

func TestByNodeMissingNodeIDReturns400(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/detect/hash/by-node", bytes.NewBufferString(`{}`))
	w := httptest.NewRecorder()

	h.ByNode(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestByNodeHappyPath(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/detect/hash/by-node", bytes.NewBufferString(`{"node_id":"n1"}`))
	w := httptest.NewRecorder()

	h.ByNode(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", w.Code, w.Body.String())
	}
	var resp model.DetectionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if resp.SourceMetadata.Title != "Existing Node" {
		t.Errorf("source_metadata.title = %q, want Existing Node", resp.SourceMetadata.Title)
	}
}

func TestByMetadataRejectsOutOfRangeThreshold(t *testing.T) {
	h := newTestHandler()
	body := `{"metadata":{"title":"Something"},"similarity_threshold":1.5}`
	req := httptest.NewRequest(http.MethodPost, "/detect/hash/by-metadata", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	h.ByMetadata(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestByMetadataRejectsUnknownSearchField(t *testing.T) {
	h := newTestHandler()
	body := `{"metadata":{"title":"Something"},"search_fields":["bogus"]}`
	req := httptest.NewRequest(http.MethodPost, "/detect/hash/by-metadata", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	h.ByMetadata(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestByMetadataCachesSecondCallHit(t *testing.T) {
	h := newTestHandler()
	body := `{"metadata":{"title":"Cacheable Title"}}`

	req1 := httptest.NewRequest(http.MethodPost, "/detect/hash/by-metadata", bytes.NewBufferString(body))
	w1 := httptest.NewRecorder()
	h.ByMetadata(w1, req1)
	if w1.Code != http.StatusOK {
		t.Fatalf("first call status = %d, want 200", w1.Code)
	}

	req2 := httptest.NewRequest(http.MethodPost, "/detect/hash/by-metadata", bytes.NewBufferString(body))
	w2 := httptest.NewRecorder()
	h.ByMetadata(w2, req2)
	if w2.Code != http.StatusOK {
		t.Fatalf("second call status = %d, want 200", w2.Code)
	}

	hits, _ := h.cache.Stats()
	if hits == 0 {
		t.Error("expected the second identical by-metadata request to hit the cache")
	}
}

func TestByMetadataMaxCandidatesClampedToCeiling(t *testing.T) {
	h := newTestHandler()
	req, err := h.buildRequest(nil, nil, intPtr(1000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.MaxCandidates != h.maxCandidates {
		t.Errorf("MaxCandidates = %d, want clamped to %d", req.MaxCandidates, h.maxCandidates)
	}
}

func intPtr(i int) *int { return &i }
