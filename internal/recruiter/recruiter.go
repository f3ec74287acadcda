// Package recruiter fans a source metadata record out into per-field
// upstream searches and merges the results into a deduplicated candidate
// set (spec §4.4).
package recruiter

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/model"
	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/normalize"
	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/upstream"
)

// workerLimit bounds concurrent in-flight upstream queries to 10 across
// every field and variant (§4.4, §5).
const workerLimit = 10

// descriptionQueryLen is the prefix length used for the description field
// query (§4.4).
const descriptionQueryLen = 100

// Searcher is the subset of upstream.Client the recruiter depends on.
type Searcher interface {
	Search(ctx context.Context, field model.Field, query string, maxResults int) ([]upstream.SearchHit, error)
}

// Recruiter runs the candidate recruitment phase.
type Recruiter struct {
	client Searcher
}

// New creates a Recruiter over client.
func New(client Searcher) *Recruiter {
	return &Recruiter{client: client}
}

// query is one generated search: a field plus a query string, tagged as
// the "original" or "normalized" form for §3's per-field statistics.
type query struct {
	field      model.Field
	text       string
	isOriginal bool
}

// queryOutcome is a query paired with whatever the upstream call returned.
// A failed query (swallowed per §7 UpstreamTransient) simply contributes
// no hits.
type queryOutcome struct {
	q    query
	hits []upstream.SearchHit
}

// Result is the recruiter's output: the merged candidate set plus one
// FieldSearchResult per active field.
type Result struct {
	Candidates []model.Candidate
	FieldStats []model.FieldSearchResult
	// QueriesIssued and QueriesFailed let the caller decide whether every
	// upstream call failed (§7 UpstreamFatal).
	QueriesIssued int
	QueriesFailed int
}

// Recruit runs every query generated from source over the active fields,
// fanned out to a bounded pool of workerLimit concurrent upstream calls,
// and merges the results (§4.4). maxCandidates is the per-query limit
// (already clamped to the configured ceiling by the caller).
func (r *Recruiter) Recruit(ctx context.Context, source model.Metadata, fields []model.Field, maxCandidates int) Result {
	queries := buildQueries(source, fields)
	outcomes := make([]queryOutcome, len(queries))
	failed := make([]bool, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerLimit)

	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			hits, err := r.client.Search(gctx, q.field, q.text, maxCandidates)
			if err != nil {
				// Per-query failures never fail the group — only the
				// caller's all-failed check (§7) treats this as fatal.
				failed[i] = true
				outcomes[i] = queryOutcome{q: q}
				return nil
			}
			outcomes[i] = queryOutcome{q: q, hits: hits}
			return nil
		})
	}
	_ = g.Wait()

	failedCount := 0
	for _, f := range failed {
		if f {
			failedCount++
		}
	}

	result := merge(outcomes)
	result.QueriesIssued = len(queries)
	result.QueriesFailed = failedCount
	return result
}

// buildQueries generates the query set for the active fields (§4.4).
func buildQueries(source model.Metadata, fields []model.Field) []query {
	active := make(map[model.Field]bool, len(fields))
	for _, f := range fields {
		active[f] = true
	}

	var queries []query

	if active[model.FieldTitle] && strings.TrimSpace(source.Title) != "" {
		normTitle := normalize.Title(source.Title)
		seen := map[string]bool{strings.ToLower(strings.TrimSpace(source.Title)): true}
		queries = append(queries, query{field: model.FieldTitle, text: source.Title, isOriginal: true})

		if key := strings.ToLower(normTitle); !seen[key] {
			seen[key] = true
			queries = append(queries, query{field: model.FieldTitle, text: normTitle})
		}
		for _, v := range normalize.Variants(normTitle) {
			key := strings.ToLower(v)
			if seen[key] {
				continue
			}
			seen[key] = true
			queries = append(queries, query{field: model.FieldTitle, text: v})
		}
	}

	if active[model.FieldDescription] && strings.TrimSpace(source.Description) != "" {
		desc := source.Description
		if len(desc) > descriptionQueryLen {
			desc = desc[:descriptionQueryLen]
		}
		queries = append(queries, query{field: model.FieldDescription, text: desc, isOriginal: true})
	}

	if active[model.FieldKeywords] && len(source.Keywords) > 0 {
		joined := strings.Join(source.Keywords, " ")
		if strings.TrimSpace(joined) != "" {
			queries = append(queries, query{field: model.FieldKeywords, text: joined, isOriginal: true})
		}
	}

	if active[model.FieldURL] && strings.TrimSpace(source.URL) != "" {
		queries = append(queries, query{field: model.FieldURL, text: source.URL, isOriginal: true})
		normURL := normalize.URL(source.URL)
		if normURL != strings.ToLower(strings.TrimSuffix(source.URL, "/")) {
			queries = append(queries, query{field: model.FieldURL, text: normURL})
		}
	}

	return queries
}

// merge accumulates per-query hits into a node_id-keyed candidate map and
// per-field statistics (§4.4, §3), in query order — this runs after
// g.Wait() returns, so no locking is needed.
func merge(outcomes []queryOutcome) Result {
	candidateOrder := make([]string, 0)
	candidates := make(map[string]model.Candidate)
	statsByField := make(map[model.Field]*model.FieldSearchResult)

	for _, o := range outcomes {
		stat, ok := statsByField[o.q.field]
		if !ok {
			stat = &model.FieldSearchResult{Field: o.q.field}
			statsByField[o.q.field] = stat
		}
		if o.q.isOriginal {
			stat.OriginalQuery = o.q.text
			stat.OriginalHits = len(o.hits)
		} else {
			if stat.NormalizedQuery == "" {
				stat.NormalizedQuery = o.q.text
			}
			stat.NormalizedHits += len(o.hits)
		}

		for _, h := range o.hits {
			if _, exists := candidates[h.NodeID]; exists {
				continue
			}
			candidates[h.NodeID] = model.Candidate{
				NodeID:         h.NodeID,
				Metadata:       h.Metadata,
				MatchSource:    model.MatchSource(o.q.field),
				DiscoveryField: o.q.field,
			}
			candidateOrder = append(candidateOrder, h.NodeID)
			stat.CandidatesAdded++
		}
	}

	ordered := make([]model.Candidate, 0, len(candidateOrder))
	for _, id := range candidateOrder {
		ordered = append(ordered, candidates[id])
	}

	stats := make([]model.FieldSearchResult, 0, len(statsByField))
	for _, f := range []model.Field{model.FieldTitle, model.FieldDescription, model.FieldURL, model.FieldKeywords} {
		if s, ok := statsByField[f]; ok {
			stats = append(stats, *s)
		}
	}

	return Result{Candidates: ordered, FieldStats: stats}
}
