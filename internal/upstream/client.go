// Package upstream talks to the processing pipeline's HTTP services:
// job status, media listings, chunk-level sentence metadata, and
// search. Payloads arrive snake_case with optional aliases and are
// normalized into canonical domain records here, in one place, so no
// consumer ever threads alias resolution through its own logic.
package upstream

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/readalongapp/readalong-server/internal/config"
	"github.com/readalongapp/readalong-server/internal/domain"
	apperrors "github.com/readalongapp/readalong-server/internal/errors"
)

// Client provides access to the pipeline API. All calls share one
// outbound rate limiter so a burst of chunk-metadata fetches cannot
// starve the rest.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	baseURL     string
	logger      *slog.Logger
}

// NewClient creates a pipeline client from configuration.
func NewClient(cfg config.UpstreamConfig, logger *slog.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 10
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 5
	}

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		rateLimiter: rate.NewLimiter(rate.Limit(rps), burst),
		baseURL:     cfg.BaseURL,
		logger:      logger,
	}
}

// wait blocks until the rate limiter allows a request.
func (c *Client) wait(ctx context.Context) error {
	return c.rateLimiter.Wait(ctx)
}

// getJSON performs a rate-limited GET and decodes the response body.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	if err := c.wait(ctx); err != nil {
		return apperrors.Wrap(err, apperrors.CodeUpstream, "rate limit")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeUpstream, "create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrapf(err, apperrors.CodeUpstream, "request %s", path)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.NotFoundf("upstream resource not found: %s", path)
	case resp.StatusCode != http.StatusOK:
		return apperrors.Upstreamf("upstream %s returned status %d", path, resp.StatusCode)
	}

	if err := json.UnmarshalRead(resp.Body, out); err != nil {
		return apperrors.Wrapf(err, apperrors.CodeMalformedMetadata, "parse response from %s", path)
	}
	return nil
}

// ChunkMetadata fetches sentence-level metadata for one chunk. A
// payload without a sentences field yields an empty list, not an
// error; a payload that fails to parse returns a malformed-metadata
// error so the caller can degrade to the chunk's boundary data.
func (c *Client) ChunkMetadata(ctx context.Context, jobID, chunkID string) ([]domain.SentenceMetadata, error) {
	path := fmt.Sprintf("/jobs/%s/chunks/%s/metadata", url.PathEscape(jobID), url.PathEscape(chunkID))

	var dto chunkMetadataDTO
	if err := c.getJSON(ctx, path, &dto); err != nil {
		return nil, err
	}

	sentences := make([]domain.SentenceMetadata, 0, len(dto.Sentences))
	for i := range dto.Sentences {
		sentences = append(sentences, dto.Sentences[i].toDomain())
	}
	c.logger.Debug("fetched chunk metadata",
		"job_id", jobID,
		"chunk_id", chunkID,
		"sentences", len(sentences),
	)
	return sentences, nil
}

// MediaLists fetches the per-category media listings for a job.
func (c *Client) MediaLists(ctx context.Context, jobID string) (map[domain.MediaCategory][]domain.MediaItem, error) {
	path := fmt.Sprintf("/jobs/%s/media", url.PathEscape(jobID))

	var dto mediaListsDTO
	if err := c.getJSON(ctx, path, &dto); err != nil {
		return nil, err
	}
	return dto.toDomain(), nil
}

// JobStatus fetches a job's pipeline status and its chunk manifest.
func (c *Client) JobStatus(ctx context.Context, jobID string) (domain.Job, []domain.Chunk, error) {
	path := fmt.Sprintf("/jobs/%s", url.PathEscape(jobID))

	var dto jobStatusDTO
	if err := c.getJSON(ctx, path, &dto); err != nil {
		return domain.Job{}, nil, err
	}

	chunks := make([]domain.Chunk, 0, len(dto.Chunks))
	for i := range dto.Chunks {
		chunks = append(chunks, dto.Chunks[i].toDomain())
	}
	return dto.toDomain(), chunks, nil
}

// Search queries the search service. Deliberately lenient: a failed
// request or undecodable payload degrades to zero results rather than
// surfacing a hard error, since callers present "no matches" anyway.
func (c *Client) Search(ctx context.Context, jobID, query string) ([]domain.SearchResult, error) {
	if err := c.wait(ctx); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeUpstream, "rate limit")
	}

	params := url.Values{}
	params.Set("q", query)
	if jobID != "" {
		params.Set("job_id", jobID)
	}
	searchURL := c.baseURL + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeUpstream, "create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeUpstream, "search request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("search returned non-OK status, degrading to empty results",
			"status", resp.StatusCode,
			"query", query,
		)
		return []domain.SearchResult{}, nil
	}

	var dto searchResponseDTO
	if err := json.UnmarshalRead(resp.Body, &dto); err != nil {
		c.logger.Warn("search response failed to decode, degrading to empty results",
			"error", err,
			"query", query,
		)
		return []domain.SearchResult{}, nil
	}

	results := make([]domain.SearchResult, 0, len(dto.Results))
	for i := range dto.Results {
		results = append(results, dto.Results[i].toDomain())
	}
	return results, nil
}
