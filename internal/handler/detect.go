// Package handler implements the HTTP surface described in spec §6:
// health, the two detection entry points, and the admin cache-clear
// route.
package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/apperr"
	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/cache"
	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/detect"
	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/model"
)

const (
	defaultThreshold     = 0.9
	defaultMaxCandidates = 40
)

// DetectHandler serves the two /detect/* routes.
type DetectHandler struct {
	pipeline      *detect.Pipeline
	cache         *cache.Cache
	maxCandidates int
	logger        zerolog.Logger
}

// NewDetectHandler creates a DetectHandler. ceiling is the configured
// MAX_CANDIDATES value (§6), clamping any client-supplied max_candidates.
func NewDetectHandler(pipeline *detect.Pipeline, respCache *cache.Cache, ceiling int, logger zerolog.Logger) *DetectHandler {
	return &DetectHandler{pipeline: pipeline, cache: respCache, maxCandidates: ceiling, logger: logger}
}

type byNodeRequest struct {
	NodeID              string   `json:"node_id"`
	SimilarityThreshold *float64 `json:"similarity_threshold,omitempty"`
	SearchFields        []string `json:"search_fields,omitempty"`
	MaxCandidates       *int     `json:"max_candidates,omitempty"`
}

type byMetadataRequest struct {
	Metadata            rawMetadata `json:"metadata"`
	SimilarityThreshold *float64    `json:"similarity_threshold,omitempty"`
	SearchFields        []string    `json:"search_fields,omitempty"`
	MaxCandidates       *int        `json:"max_candidates,omitempty"`
}

type rawMetadata struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	URL         string   `json:"url,omitempty"`
}

// ByNode handles POST /detect/hash/by-node (§6).
func (h *DetectHandler) ByNode(w http.ResponseWriter, r *http.Request) {
	var body byNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperr.New(apperr.KindInvalidRequest, "malformed request body"))
		return
	}
	if strings.TrimSpace(body.NodeID) == "" {
		writeError(w, apperr.New(apperr.KindInvalidRequest, "node_id is required"))
		return
	}

	req, err := h.buildRequest(body.SimilarityThreshold, body.SearchFields, body.MaxCandidates)
	if err != nil {
		writeError(w, err)
		return
	}
	req.NodeID = body.NodeID

	resp, err := h.pipeline.DetectByNode(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ByMetadata handles POST /detect/hash/by-metadata (§6), consulting and
// populating the response cache (§4.6) since by-metadata results are
// pure functions of the request.
func (h *DetectHandler) ByMetadata(w http.ResponseWriter, r *http.Request) {
	var body byMetadataRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperr.New(apperr.KindInvalidRequest, "malformed request body"))
		return
	}

	req, err := h.buildRequest(body.SimilarityThreshold, body.SearchFields, body.MaxCandidates)
	if err != nil {
		writeError(w, err)
		return
	}
	req.Metadata = model.Metadata{
		Title:       body.Metadata.Title,
		Description: body.Metadata.Description,
		Keywords:    body.Metadata.Keywords,
		URL:         body.Metadata.URL,
	}

	key := cache.HashKey(cache.Key{
		Metadata:            req.Metadata,
		SimilarityThreshold: req.SimilarityThreshold,
		SearchFields:        req.SearchFields,
		MaxCandidates:       req.MaxCandidates,
	})
	if cached, ok := h.cache.Get(key); ok {
		h.logger.Debug().Msg("cache hit")
		writeJSON(w, http.StatusOK, cached)
		return
	}

	resp, err := h.pipeline.DetectByMetadata(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	h.cache.Set(key, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (h *DetectHandler) buildRequest(threshold *float64, fields []string, maxCandidates *int) (detect.Request, error) {
	t := defaultThreshold
	if threshold != nil {
		t = *threshold
		if t < 0.0 || t > 1.0 {
			return detect.Request{}, apperr.New(apperr.KindInvalidRequest, "similarity_threshold must be in [0.0, 1.0]")
		}
	}

	var active []model.Field
	if len(fields) > 0 {
		for _, f := range fields {
			switch model.Field(f) {
			case model.FieldTitle, model.FieldDescription, model.FieldURL, model.FieldKeywords:
				active = append(active, model.Field(f))
			default:
				return detect.Request{}, apperr.New(apperr.KindInvalidRequest, "unknown search_fields entry: "+f)
			}
		}
	} else {
		active = model.DefaultFields()
	}

	mc := defaultMaxCandidates
	if maxCandidates != nil {
		mc = *maxCandidates
		if mc < 1 {
			return detect.Request{}, apperr.New(apperr.KindInvalidRequest, "max_candidates must be positive")
		}
	}
	if mc > h.maxCandidates {
		mc = h.maxCandidates
	}

	return detect.Request{
		SimilarityThreshold: t,
		SearchFields:        active,
		MaxCandidates:       mc,
	}, nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	writeJSON(w, apperr.HTTPStatus(kind), map[string]interface{}{
		"error": map[string]string{
			"type":    string(kind),
			"message": err.Error(),
		},
	})
}
