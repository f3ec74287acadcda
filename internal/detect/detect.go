// Package detect orchestrates the duplicate-detection pipeline: metadata
// acquisition, candidate recruitment, at-most-once enrichment, the
// URL-exact pass, MinHash similarity scoring, and result assembly
// (spec §4.5).
package detect

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/apperr"
	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/minhash"
	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/model"
	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/normalize"
	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/recruiter"
)

// enrichmentFloor is the minimum title similarity a candidate must reach
// to be eligible as an enrichment source (§4.5 Phase 3).
const enrichmentFloor = 0.7

// descriptionScoreLen is the prefix length of description used when
// building the Phase 5 scoring text (§4.5).
const descriptionScoreLen = 200

// MetadataFetcher is the subset of upstream.Client used for by-node-id
// requests.
type MetadataFetcher interface {
	FetchMetadata(ctx context.Context, nodeID string) (model.Metadata, error)
}

// Recruiter is the subset of recruiter.Recruiter the pipeline depends on.
type Recruiter interface {
	Recruit(ctx context.Context, source model.Metadata, fields []model.Field, maxCandidates int) recruiter.Result
}

// Pipeline runs the detection pipeline described in §4.5.
type Pipeline struct {
	metadata  MetadataFetcher
	recruiter Recruiter
	engine    *minhash.Engine
	logger    zerolog.Logger
}

// New creates a Pipeline.
func New(metadata MetadataFetcher, rec Recruiter, engine *minhash.Engine, logger zerolog.Logger) *Pipeline {
	return &Pipeline{metadata: metadata, recruiter: rec, engine: engine, logger: logger}
}

// Request is one detection request, already validated and defaulted by
// the handler layer.
type Request struct {
	NodeID              string // empty for by-metadata requests
	Metadata            model.Metadata
	SimilarityThreshold float64
	SearchFields        []model.Field
	MaxCandidates       int
}

// DetectByNode runs the pipeline for a by-node-id request (§4.5 Phase 1
// "by-node-id" entry point).
func (p *Pipeline) DetectByNode(ctx context.Context, req Request) (model.DetectionResponse, error) {
	p.logger.Debug().Str("node_id", req.NodeID).Msg("INIT")
	meta, err := p.metadata.FetchMetadata(ctx, req.NodeID)
	if err != nil {
		return model.DetectionResponse{}, err
	}
	req.Metadata = meta
	return p.run(ctx, req)
}

// DetectByMetadata runs the pipeline for a by-metadata request (§4.5
// Phase 1 "by-metadata" entry point).
func (p *Pipeline) DetectByMetadata(ctx context.Context, req Request) (model.DetectionResponse, error) {
	return p.run(ctx, req)
}

func (p *Pipeline) run(ctx context.Context, req Request) (model.DetectionResponse, error) {
	source := req.Metadata
	if !source.Searchable() {
		return model.DetectionResponse{}, apperr.New(apperr.KindInvalidRequest, "metadata is not searchable")
	}
	p.logger.Debug().Msg("METADATA_READY")

	fields := req.SearchFields
	if len(fields) == 0 {
		fields = model.DefaultFields()
	}

	// Phase 2 — initial recruitment.
	merged := newCandidateSet()
	res := p.recruiter.Recruit(ctx, source, activeNonEmptyFields(source, fields), req.MaxCandidates)
	merged.absorb(res.Candidates)
	p.logger.Debug().Int("candidates", len(merged.order)).Msg("RECRUITED")

	if res.QueriesIssued > 0 && res.QueriesFailed == res.QueriesIssued {
		return model.DetectionResponse{}, apperr.New(apperr.KindUpstreamFatal, "all recruitment queries failed")
	}

	// Phase 3 — enrichment (at most one pass).
	var enrichment *model.EnrichmentReport
	if empty := source.EmptyFields(); len(empty) > 0 {
		if src, rep := selectEnrichmentSource(source, merged.candidates(), p.engine); rep != nil {
			source = applyEnrichment(source, src, rep)
			enrichment = rep
			p.logger.Debug().Strs("fields_added", rep.FieldsAdded).Msg("ENRICHED_AND_RE_RECRUITED")

			res = p.recruiter.Recruit(ctx, source, activeNonEmptyFields(source, fields), req.MaxCandidates)
			merged.absorb(res.Candidates)
		} else {
			p.logger.Debug().Msg("SKIP_ENRICH")
		}
	} else {
		p.logger.Debug().Msg("SKIP_ENRICH")
	}

	// Phase 4 — URL-exact pass.
	sourceURLKey := normalize.URL(source.URL)
	for _, id := range merged.order {
		c := merged.candidates()[id]
		if sourceURLKey != "" && normalize.URLExact(source.URL, c.Metadata.URL) {
			c.MatchSource = model.MatchURLExact
			merged.set(c)
		}
	}
	p.logger.Debug().Msg("URL_CHECKED")

	// Phase 5 — similarity scoring.
	sourceScoreText := scoringText(source)
	scores := make(map[string]float64, len(merged.order))
	maxSimByField := map[model.Field]float64{}

	for _, id := range merged.order {
		c := merged.candidates()[id]
		if c.MatchSource == model.MatchURLExact {
			scores[id] = 1.0
			continue
		}
		sim := p.engine.Similarity(sourceScoreText, scoringText(c.Metadata))
		scores[id] = sim
		if sim > maxSimByField[c.DiscoveryField] {
			maxSimByField[c.DiscoveryField] = sim
		}
	}
	p.logger.Debug().Msg("SCORED")

	// Phase 6 — assembly.
	var duplicates []model.Duplicate
	for _, id := range merged.order {
		if id == req.NodeID {
			continue
		}
		c := merged.candidates()[id]
		score := scores[id]
		if c.MatchSource != model.MatchURLExact && score < req.SimilarityThreshold {
			continue
		}
		duplicates = append(duplicates, model.Duplicate{Candidate: c, SimilarityScore: score})
	}
	sort.SliceStable(duplicates, func(i, j int) bool {
		a, b := duplicates[i], duplicates[j]
		aExact := a.MatchSource == model.MatchURLExact
		bExact := b.MatchSource == model.MatchURLExact
		if aExact != bExact {
			return aExact
		}
		if a.SimilarityScore != b.SimilarityScore {
			return a.SimilarityScore > b.SimilarityScore
		}
		return a.NodeID < b.NodeID
	})
	p.logger.Debug().Int("duplicates", len(duplicates)).Msg("ASSEMBLED")

	for i := range res.FieldStats {
		res.FieldStats[i].MaxSimilarity = maxSimByField[res.FieldStats[i].Field]
	}

	return model.DetectionResponse{
		SourceMetadata:         source,
		Threshold:              req.SimilarityThreshold,
		Enrichment:             enrichment,
		CandidateSearchResults: res.FieldStats,
		TotalCandidatesChecked: len(merged.order),
		Duplicates:             duplicates,
	}, nil
}

// activeNonEmptyFields restricts the active field set to fields whose
// source value is non-empty (§4.5 Phase 2: "whichever of {...} are
// non-empty AND in the active field set").
func activeNonEmptyFields(source model.Metadata, fields []model.Field) []model.Field {
	var active []model.Field
	for _, f := range fields {
		switch f {
		case model.FieldTitle:
			if strings.TrimSpace(source.Title) != "" {
				active = append(active, f)
			}
		case model.FieldDescription:
			if strings.TrimSpace(source.Description) != "" {
				active = append(active, f)
			}
		case model.FieldURL:
			if strings.TrimSpace(source.URL) != "" {
				active = append(active, f)
			}
		case model.FieldKeywords:
			if len(source.Keywords) > 0 {
				active = append(active, f)
			}
		}
	}
	return active
}

// scoringText builds the Phase 5 comparison text: title concatenated
// with the first descriptionScoreLen characters of description.
func scoringText(m model.Metadata) string {
	desc := m.Description
	if r := []rune(desc); len(r) > descriptionScoreLen {
		desc = string(r[:descriptionScoreLen])
	}
	return strings.TrimSpace(m.Title + " " + desc)
}

// selectEnrichmentSource picks the Phase 3 enrichment source, in priority
// order: any url_exact candidate, else the highest-similarity
// title-sourced candidate at or above enrichmentFloor, tie-broken by
// lexicographically smallest node_id (§4.5, §9 open question).
func selectEnrichmentSource(source model.Metadata, candidates map[string]model.Candidate, engine *minhash.Engine) (model.Candidate, *model.EnrichmentReport) {
	sourceURLKey := normalize.URL(source.URL)
	if sourceURLKey != "" {
		for _, c := range candidates {
			if normalize.URLExact(source.URL, c.Metadata.URL) {
				return finalizeEnrichment(source, c, "url")
			}
		}
	}

	var best model.Candidate
	bestScore := -1.0
	found := false
	for _, c := range candidates {
		if c.DiscoveryField != model.FieldTitle || strings.TrimSpace(c.Metadata.Title) == "" {
			continue
		}
		sim := engine.Similarity(source.Title, c.Metadata.Title)
		if sim < enrichmentFloor {
			continue
		}
		if !found || sim > bestScore || (sim == bestScore && c.NodeID < best.NodeID) {
			best, bestScore, found = c, sim, true
		}
	}
	if !found {
		return model.Candidate{}, nil
	}
	return finalizeEnrichment(source, best, "title")
}

func finalizeEnrichment(source model.Metadata, c model.Candidate, via string) (model.Candidate, *model.EnrichmentReport) {
	var added []string
	if strings.TrimSpace(source.Title) == "" && strings.TrimSpace(c.Metadata.Title) != "" {
		added = append(added, "title")
	}
	if strings.TrimSpace(source.Description) == "" && strings.TrimSpace(c.Metadata.Description) != "" {
		added = append(added, "description")
	}
	if strings.TrimSpace(source.URL) == "" && strings.TrimSpace(c.Metadata.URL) != "" {
		added = append(added, "url")
	}
	if len(added) == 0 {
		return model.Candidate{}, nil
	}
	return c, &model.EnrichmentReport{SourceNodeID: c.NodeID, SourceField: via, FieldsAdded: added}
}

// applyEnrichment copies the source candidate's non-empty fields into
// dst for fields dst currently lacks (§4.5 Phase 3).
func applyEnrichment(dst model.Metadata, from model.Candidate, rep *model.EnrichmentReport) model.Metadata {
	for _, f := range rep.FieldsAdded {
		switch f {
		case "title":
			dst.Title = from.Metadata.Title
		case "description":
			dst.Description = from.Metadata.Description
		case "url":
			dst.URL = from.Metadata.URL
		}
	}
	return dst
}

// candidateSet accumulates candidates across Phase 2's (possibly two)
// recruitment rounds, keyed on node_id with first-discovery-wins
// semantics except for a url_exact upgrade (§3, §4.4).
type candidateSet struct {
	byID  map[string]model.Candidate
	order []string
}

func newCandidateSet() *candidateSet {
	return &candidateSet{byID: make(map[string]model.Candidate)}
}

func (s *candidateSet) absorb(cands []model.Candidate) {
	for _, c := range cands {
		if _, exists := s.byID[c.NodeID]; exists {
			continue
		}
		s.byID[c.NodeID] = c
		s.order = append(s.order, c.NodeID)
	}
}

func (s *candidateSet) set(c model.Candidate) {
	s.byID[c.NodeID] = c
}

func (s *candidateSet) candidates() map[string]model.Candidate {
	return s.byID
}
