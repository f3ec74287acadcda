package detect

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/apperr"
	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/minhash"
	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/model"
	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/recruiter"
)

type fakeMetadataFetcher struct {
	byNode map[string]model.Metadata
	err    error
}

func (f *fakeMetadataFetcher) FetchMetadata(ctx context.Context, nodeID string) (model.Metadata, error) {
	if f.err != nil {
		return model.Metadata{}, f.err
	}
	m, ok := f.byNode[nodeID]
	if !ok {
		return model.Metadata{}, apperr.New(apperr.KindNotFound, "no such node")
	}
	return m, nil
}

// fakeRecruiter returns a canned Result on every call, recording how many
// times it was invoked so re-recruitment after enrichment can be asserted.
type fakeRecruiter struct {
	results []recruiter.Result
	calls   int
}

func (f *fakeRecruiter) Recruit(ctx context.Context, source model.Metadata, fields []model.Field, maxCandidates int) recruiter.Result {
	i := f.calls
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	f.calls++
	return f.results[i]
}

func newPipeline(fetcher MetadataFetcher, rec Recruiter) *Pipeline {
	return New(fetcher, rec, minhash.NewEngine(), zerolog.Nop())
}

func TestRunRejectsUnsearchableMetadata(t *testing.T) {
	rec := &fakeRecruiter{results: []recruiter.Result{{}}}
	p := newPipeline(&fakeMetadataFetcher{}, rec)

	_, err := p.DetectByMetadata(context.Background(), Request{
		Metadata:            model.Metadata{},
		SimilarityThreshold: 0.9,
	})
	if apperr.KindOf(err) != apperr.KindInvalidRequest {
		t.Fatalf("expected invalid_request for unsearchable metadata, got %v", err)
	}
}

func TestRunAllQueriesFailedIsUpstreamFatal(t *testing.T) {
	rec := &fakeRecruiter{results: []recruiter.Result{
		{QueriesIssued: 3, QueriesFailed: 3},
	}}
	p := newPipeline(&fakeMetadataFetcher{}, rec)

	_, err := p.DetectByMetadata(context.Background(), Request{
		Metadata:            model.Metadata{Title: "Something"},
		SimilarityThreshold: 0.9,
	})
	if apperr.KindOf(err) != apperr.KindUpstreamFatal {
		t.Fatalf("expected upstream_fatal when every query fails, got %v", err)
	}
}

func TestRunURLExactAlwaysIncludedRegardlessOfThreshold(t *testing.T) {
	rec := &fakeRecruiter{results: []recruiter.Result{
		{
			Candidates: []model.Candidate{
				{NodeID: "n1", Metadata: model.Metadata{Title: "Totally Different Text", URL: "https://example.com/a"}, DiscoveryField: model.FieldURL},
			},
		},
	}}
	p := newPipeline(&fakeMetadataFetcher{}, rec)

	resp, err := p.DetectByMetadata(context.Background(), Request{
		Metadata:            model.Metadata{Title: "Source Title", URL: "https://example.com/a"},
		SimilarityThreshold: 0.99,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Duplicates) != 1 {
		t.Fatalf("expected the url-exact candidate to survive a near-1.0 threshold, got %d duplicates", len(resp.Duplicates))
	}
	if resp.Duplicates[0].MatchSource != model.MatchURLExact {
		t.Errorf("expected match_source url_exact, got %s", resp.Duplicates[0].MatchSource)
	}
	if resp.Duplicates[0].SimilarityScore != 1.0 {
		t.Errorf("expected url_exact similarity score of 1.0, got %v", resp.Duplicates[0].SimilarityScore)
	}
}

func TestRunBelowThresholdExcluded(t *testing.T) {
	rec := &fakeRecruiter{results: []recruiter.Result{
		{
			Candidates: []model.Candidate{
				{NodeID: "n1", Metadata: model.Metadata{Title: "Completely unrelated content about cooking"}, DiscoveryField: model.FieldTitle},
			},
		},
	}}
	p := newPipeline(&fakeMetadataFetcher{}, rec)

	resp, err := p.DetectByMetadata(context.Background(), Request{
		Metadata:            model.Metadata{Title: "Introduction to algebra for beginners"},
		SimilarityThreshold: 0.95,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Duplicates) != 0 {
		t.Errorf("expected no duplicates below threshold, got %d", len(resp.Duplicates))
	}
}

func TestRunEnrichmentFillsEmptyFieldsAndRerecruits(t *testing.T) {
	rec := &fakeRecruiter{results: []recruiter.Result{
		{
			Candidates: []model.Candidate{
				{NodeID: "n1", Metadata: model.Metadata{Title: "Source Title", Description: "A full description of the topic"}, DiscoveryField: model.FieldTitle},
			},
		},
		{
			Candidates: []model.Candidate{
				{NodeID: "n1", Metadata: model.Metadata{Title: "Source Title", Description: "A full description of the topic"}, DiscoveryField: model.FieldTitle},
				{NodeID: "n2", Metadata: model.Metadata{Title: "Unrelated"}, DiscoveryField: model.FieldTitle},
			},
		},
	}}
	p := newPipeline(&fakeMetadataFetcher{}, rec)

	resp, err := p.DetectByMetadata(context.Background(), Request{
		Metadata:            model.Metadata{Title: "Source Title"},
		SimilarityThreshold: 0.9,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Enrichment == nil {
		t.Fatal("expected enrichment to have occurred")
	}
	if resp.SourceMetadata.Description == "" {
		t.Error("expected enrichment to fill the empty description field")
	}
	if rec.calls != 2 {
		t.Errorf("expected exactly one re-recruitment after enrichment, got %d total calls", rec.calls)
	}
}

func TestRunSkipsEnrichmentWhenNoFieldsEmpty(t *testing.T) {
	rec := &fakeRecruiter{results: []recruiter.Result{{}}}
	p := newPipeline(&fakeMetadataFetcher{}, rec)

	resp, err := p.DetectByMetadata(context.Background(), Request{
		Metadata:            model.Metadata{Title: "Title", Description: "Description", URL: "https://example.com"},
		SimilarityThreshold: 0.9,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Enrichment != nil {
		t.Error("expected no enrichment when source already has every field")
	}
	if rec.calls != 1 {
		t.Errorf("expected exactly one recruitment call, got %d", rec.calls)
	}
}

func TestRunExcludesSourceNodeFromDuplicates(t *testing.T) {
	rec := &fakeRecruiter{results: []recruiter.Result{
		{
			Candidates: []model.Candidate{
				{NodeID: "self", Metadata: model.Metadata{Title: "Source Title"}, DiscoveryField: model.FieldTitle},
			},
		},
	}}
	p := newPipeline(&fakeMetadataFetcher{byNode: map[string]model.Metadata{
		"self": {Title: "Source Title"},
	}}, rec)

	resp, err := p.DetectByNode(context.Background(), Request{
		NodeID:              "self",
		SimilarityThreshold: 0.9,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, d := range resp.Duplicates {
		if d.NodeID == "self" {
			t.Error("the source node itself must never appear among duplicates")
		}
	}
}

func TestRunSortOrderURLExactFirstThenSimilarityThenNodeID(t *testing.T) {
	rec := &fakeRecruiter{results: []recruiter.Result{
		{
			Candidates: []model.Candidate{
				{NodeID: "zzz", Metadata: model.Metadata{Title: "Introduction to algebra for beginners today"}, DiscoveryField: model.FieldTitle},
				{NodeID: "aaa", Metadata: model.Metadata{URL: "https://example.com/match"}, DiscoveryField: model.FieldURL},
			},
		},
	}}
	p := newPipeline(&fakeMetadataFetcher{}, rec)

	resp, err := p.DetectByMetadata(context.Background(), Request{
		Metadata:            model.Metadata{Title: "Introduction to algebra for beginners today", URL: "https://example.com/match"},
		SimilarityThreshold: 0.5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Duplicates) != 2 {
		t.Fatalf("expected both candidates to qualify, got %d", len(resp.Duplicates))
	}
	if resp.Duplicates[0].NodeID != "aaa" || resp.Duplicates[0].MatchSource != model.MatchURLExact {
		t.Errorf("expected the url_exact candidate first, got %+v", resp.Duplicates[0])
	}
}
