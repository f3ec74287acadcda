// Package model holds the request-scoped data types shared by the
// duplicate-detection pipeline (spec §3 "Data model").
package model

import "strings"

// Metadata is a learning-object metadata record. All fields are optional;
// a record is Searchable iff at least one field is non-empty after
// trimming (§3).
type Metadata struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	URL         string   `json:"url,omitempty"`
	RedirectURL string   `json:"redirect_url,omitempty"`
}

// Searchable reports whether the record has at least one non-empty field.
func (m Metadata) Searchable() bool {
	if strings.TrimSpace(m.Title) != "" {
		return true
	}
	if strings.TrimSpace(m.Description) != "" {
		return true
	}
	if strings.TrimSpace(m.URL) != "" {
		return true
	}
	for _, k := range m.Keywords {
		if strings.TrimSpace(k) != "" {
			return true
		}
	}
	return false
}

// EmptyFields returns which of {title, description, url} are empty after
// trimming — the set Phase 3 enrichment may fill in.
func (m Metadata) EmptyFields() []string {
	var empty []string
	if strings.TrimSpace(m.Title) == "" {
		empty = append(empty, "title")
	}
	if strings.TrimSpace(m.Description) == "" {
		empty = append(empty, "description")
	}
	if strings.TrimSpace(m.URL) == "" {
		empty = append(empty, "url")
	}
	return empty
}

// MatchSource is the closed tagged union of ways a candidate can be
// discovered, per §3.
type MatchSource string

const (
	MatchURLExact    MatchSource = "url_exact"
	MatchTitle       MatchSource = "title"
	MatchDescription MatchSource = "description"
	MatchKeywords    MatchSource = "keywords"
	MatchURL         MatchSource = "url"
)

// Field is the set of fields the recruiter can search over (§4.4).
type Field string

const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldKeywords    Field = "keywords"
	FieldURL         Field = "url"
)

// DefaultFields is the recruiter's default active field set (§4.4):
// keywords is off by default.
func DefaultFields() []Field {
	return []Field{FieldTitle, FieldDescription, FieldURL}
}

// Candidate is a repository node discovered during recruitment (§3).
type Candidate struct {
	NodeID         string      `json:"node_id"`
	Metadata       Metadata    `json:"metadata"`
	MatchSource    MatchSource `json:"match_source"`
	DiscoveryField Field       `json:"discovery_field"`
}

// Duplicate is a Candidate that passed the Phase 5 acceptance rule (§4.5).
type Duplicate struct {
	Candidate
	SimilarityScore float64 `json:"similarity_score"`
}

// FieldSearchResult is the per-field recruitment statistics record (§3).
type FieldSearchResult struct {
	Field            Field   `json:"field"`
	OriginalQuery    string  `json:"original_query"`
	OriginalHits     int     `json:"original_hits"`
	NormalizedQuery  string  `json:"normalized_query,omitempty"`
	NormalizedHits   int     `json:"normalized_hits"`
	CandidatesAdded  int     `json:"candidates_added"`
	MaxSimilarity    float64 `json:"max_similarity"`
}

// EnrichmentReport records a Phase 3 enrichment event (§3). The zero value
// represents "no enrichment occurred".
type EnrichmentReport struct {
	SourceNodeID string   `json:"source_node_id"`
	SourceField  string   `json:"source_field"` // "url" or "title"
	FieldsAdded  []string `json:"fields_added"`
}

// IsEmpty reports whether enrichment did not occur.
func (e EnrichmentReport) IsEmpty() bool {
	return len(e.FieldsAdded) == 0
}

// DetectionResponse is the full response described in §3/§6.
type DetectionResponse struct {
	SourceMetadata         Metadata            `json:"source_metadata"`
	Threshold              float64             `json:"threshold"`
	Enrichment             *EnrichmentReport   `json:"enrichment"`
	CandidateSearchResults []FieldSearchResult `json:"candidate_search_results"`
	TotalCandidatesChecked int                 `json:"total_candidates_checked"`
	Duplicates             []Duplicate         `json:"duplicates"`
}
