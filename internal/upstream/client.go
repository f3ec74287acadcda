// Package upstream wraps the learning-object repository's REST API: a
// node-metadata endpoint and a field-scoped search endpoint (spec §4.3,
// §6 "Upstream contract").
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/apperr"
	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/model"
)

const pageSize = 100

var backoffBase = 250 * time.Millisecond
var backoffCap = 2 * time.Second

// Client is the upstream repository client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	logger     zerolog.Logger
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// New creates an upstream Client with its own pooled transport, following
// the teacher's per-provider connector pattern of one dedicated
// http.Client per collaborator rather than sharing http.DefaultClient.
func New(cfg Config, logger zerolog.Logger) *Client {
	transport := &http.Transport{
		MaxIdleConns:        64,
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		maxRetries: cfg.MaxRetries,
		logger:     logger,
	}
}

// FetchMetadata retrieves the metadata record for node_id (§4.3). A
// missing node surfaces as apperr.KindNotFound.
func (c *Client) FetchMetadata(ctx context.Context, nodeID string) (model.Metadata, error) {
	var out nodeMetadataResponse
	err := c.doJSON(ctx, http.MethodGet, "/nodes/"+url.PathEscape(nodeID), nil, &out)
	if err != nil {
		if kErr, ok := err.(*apperr.Error); ok && kErr.Kind == apperr.KindNotFound {
			return model.Metadata{}, err
		}
		return model.Metadata{}, apperr.Wrap(apperr.KindUpstreamFatal, "fetch_metadata failed", err)
	}
	return model.Metadata{
		Title:       out.Title,
		Description: out.Description,
		Keywords:    out.Keywords,
		URL:         out.URL,
	}, nil
}

// SearchHit is one (node_id, metadata) pair returned by Search.
type SearchHit struct {
	NodeID   string
	Metadata model.Metadata
}

// Search queries field for query, transparently paginating in pages of
// 100 when maxResults exceeds a single page (§4.3). Individual-query
// failures are the caller's concern: Search returns the typed error and
// lets the recruiter decide whether to treat it as an empty result.
func (c *Client) Search(ctx context.Context, field model.Field, query string, maxResults int) ([]SearchHit, error) {
	if maxResults <= 0 {
		return nil, nil
	}

	var hits []SearchHit
	offset := 0
	for len(hits) < maxResults {
		want := maxResults - len(hits)
		if want > pageSize {
			want = pageSize
		}

		var page searchResponse
		q := url.Values{}
		q.Set("field", string(field))
		q.Set("query", query)
		q.Set("limit", strconv.Itoa(want))
		q.Set("offset", strconv.Itoa(offset))

		if err := c.doJSON(ctx, http.MethodGet, "/search?"+q.Encode(), nil, &page); err != nil {
			return hits, err
		}

		for _, r := range page.Results {
			hits = append(hits, SearchHit{
				NodeID: r.NodeID,
				Metadata: model.Metadata{
					Title:       r.Title,
					Description: r.Description,
					Keywords:    r.Keywords,
					URL:         r.URL,
				},
			})
		}

		if len(page.Results) < pageSize {
			break
		}
		offset += pageSize
	}
	return hits, nil
}

// CheckRedirect follows redirects for rawURL and returns the final
// location, best-effort. On any failure it returns the original URL
// unchanged rather than blocking the pipeline (§4.3).
func (c *Client) CheckRedirect(ctx context.Context, rawURL string) string {
	if rawURL == "" {
		return rawURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return rawURL
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return rawURL
	}
	defer resp.Body.Close()
	if loc := resp.Request.URL; loc != nil {
		return loc.String()
	}
	return rawURL
}

// doJSON issues a request with retry/backoff (§4.3) and decodes a JSON
// response into out. 4xx responses are never retried: a 404 becomes
// apperr.KindNotFound and any other 4xx an upstream_transient error.
func (c *Client) doJSON(ctx context.Context, method, path string, body io.Reader, out interface{}) error {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := backoff(attempt)
			select {
			case <-ctx.Done():
				return apperr.Wrap(apperr.KindUpstreamFatal, "request cancelled", ctx.Err())
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, "build upstream request", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			c.logger.Debug().Err(err).Str("path", path).Int("attempt", attempt).Msg("upstream request failed, retrying")
			continue
		}

		status := resp.StatusCode
		if status == http.StatusNotFound {
			resp.Body.Close()
			return apperr.New(apperr.KindNotFound, "node not found upstream")
		}
		if status >= 500 {
			b, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("upstream status %d: %s", status, string(b))
			c.logger.Debug().Int("status", status).Str("path", path).Int("attempt", attempt).Msg("upstream 5xx, retrying")
			continue
		}
		if status >= 400 {
			b, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return apperr.New(apperr.KindUpstreamTransient, fmt.Sprintf("upstream status %d: %s", status, string(b)))
		}

		defer resp.Body.Close()
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return apperr.Wrap(apperr.KindUpstreamTransient, "decode upstream response", err)
		}
		return nil
	}

	return apperr.Wrap(apperr.KindUpstreamTransient, "upstream request exhausted retries", lastErr)
}

// backoff returns the exponential delay for a retry attempt, capped at
// backoffCap, with up to 20% jitter to avoid thundering-herd retries.
func backoff(attempt int) time.Duration {
	d := backoffBase << uint(attempt-1)
	if d > backoffCap || d <= 0 {
		d = backoffCap
	}
	jitter := time.Duration(rand.Int63n(int64(d) / 5 + 1))
	return d + jitter
}

type nodeMetadataResponse struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	URL         string   `json:"url"`
}

type searchResponse struct {
	Results []searchResultItem `json:"results"`
}

type searchResultItem struct {
	NodeID      string   `json:"node_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	URL         string   `json:"url"`
}
