// Package jira is the gateway to the Jira Agile backend: it owns every
// outbound HTTP call, classifies outcomes into the service error taxonomy,
// retries transient failures with jittered exponential backoff, and caches
// idempotent reads with a time-to-live.
package jira

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/vilaca/sprint-api/internal/apperr"
	"github.com/vilaca/sprint-api/internal/cache"
	"github.com/vilaca/sprint-api/internal/domain"
	"github.com/vilaca/sprint-api/internal/reqid"
)

const (
	userAgent = "sprint-api/0.1.0"

	// listPageSize is the page size used when aggregating a board's sprints.
	listPageSize = 50

	// maxListOffset is the pagination safety bound: aggregation stops once
	// the next offset would exceed it. Sprints beyond the bound are dropped,
	// so hitting it is logged as a warning rather than silently absorbed.
	maxListOffset = 10000

	// maxBodySnippet bounds how much upstream response text is captured as
	// an error detail.
	maxBodySnippet = 800
)

// transientStatus holds the HTTP statuses classified as retryable.
var transientStatus = map[int]bool{
	http.StatusRequestTimeout:      true,
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// HTTPClient interface for HTTP operations (allows mocking in tests).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds the gateway's static configuration.
type Config struct {
	BaseURL    string
	AuthScheme string // "bearer" or "basic"
	Token      string
	Username   string // required for basic auth

	MaxRetries int // retries after the initial attempt
	BackoffMin time.Duration
	BackoffMax time.Duration
}

// Client talks to the Jira Agile REST API. It is the only component in the
// service that performs I/O, and is safe for concurrent use.
type Client struct {
	baseURL    string
	authScheme string
	token      string
	username   string

	maxRetries int
	backoffMin time.Duration
	backoffMax time.Duration

	httpClient HTTPClient
	cache      *cache.Cache // nil when caching is disabled
	flight     singleflight.Group
	log        *zap.Logger
}

// NewClient creates a gateway client. cache may be nil to disable caching,
// in which case every call reaches the network.
func NewClient(cfg Config, httpClient HTTPClient, c *cache.Cache, log *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		authScheme: strings.ToLower(cfg.AuthScheme),
		token:      cfg.Token,
		username:   cfg.Username,
		maxRetries: cfg.MaxRetries,
		backoffMin: cfg.BackoffMin,
		backoffMax: cfg.BackoffMax,
		httpClient: httpClient,
		cache:      c,
		log:        log,
	}
}

// GetSprint fetches one sprint by id.
func (c *Client) GetSprint(ctx context.Context, sprintID int) (domain.Sprint, error) {
	var sprint domain.Sprint
	path := fmt.Sprintf("/rest/agile/1.0/sprint/%d", sprintID)
	if err := c.doRequest(ctx, path, nil, &sprint); err != nil {
		return domain.Sprint{}, err
	}
	return sprint, nil
}

// ListSprints fetches one page of a board's sprints. A state of "all" (or
// empty) sends the unfiltered query; any other value is passed through to
// the backend unchanged.
func (c *Client) ListSprints(ctx context.Context, boardID int, state domain.State, startAt, maxResults int) (SprintsPage, error) {
	params := url.Values{}
	params.Set("startAt", strconv.Itoa(startAt))
	params.Set("maxResults", strconv.Itoa(maxResults))
	if state != "" && state != domain.StateAll {
		params.Set("state", string(state))
	}

	var page SprintsPage
	path := fmt.Sprintf("/rest/agile/1.0/board/%d/sprint", boardID)
	if err := c.doRequest(ctx, path, params, &page); err != nil {
		return SprintsPage{}, err
	}
	return page, nil
}

// ListAllSprints aggregates every page of a board's sprints, advancing the
// offset by each page's own reported size until the backend flags the last
// page or the pagination safety bound is reached. The aggregate is cached
// per (board, state); concurrent misses for the same key collapse into one
// upstream flight.
func (c *Client) ListAllSprints(ctx context.Context, boardID int, state domain.State) ([]domain.Sprint, error) {
	key := fmt.Sprintf("sprints:%d:%s", boardID, state)
	if cached, ok := c.cache.Get(key); ok {
		return cached.([]domain.Sprint), nil
	}

	v, err, _ := c.flight.Do(key, func() (any, error) {
		all := []domain.Sprint{}
		startAt := 0
		for {
			page, err := c.ListSprints(ctx, boardID, state, startAt, listPageSize)
			if err != nil {
				return nil, err
			}
			all = append(all, page.Values...)
			if page.IsLast {
				break
			}
			pageSize := page.MaxResults
			if pageSize == 0 {
				pageSize = listPageSize
			}
			startAt = page.StartAt + pageSize
			if startAt > maxListOffset {
				c.log.Warn("sprint listing truncated at pagination safety bound",
					zap.Int("board_id", boardID),
					zap.String("state", string(state)),
					zap.Int("offset", startAt),
					zap.Int("collected", len(all)),
				)
				break
			}
		}
		c.cache.Set(key, all)
		return all, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Sprint), nil
}

// GetFields fetches the full field catalog, cached.
func (c *Client) GetFields(ctx context.Context) ([]Field, error) {
	const key = "fields"
	if cached, ok := c.cache.Get(key); ok {
		return cached.([]Field), nil
	}

	var fields []Field
	if err := c.doRequest(ctx, "/rest/api/2/field", nil, &fields); err != nil {
		return nil, err
	}
	c.cache.Set(key, fields)
	return fields, nil
}

// DiscoverSprintFieldID locates the custom field named "sprint" in the
// field catalog (case-insensitive, trimmed, exact) and returns its backend
// identifier. The tracker names this field dynamically per instance, so it
// has to be discovered rather than hardcoded.
func (c *Client) DiscoverSprintFieldID(ctx context.Context) (string, error) {
	const key = "sprint_field_id"
	if cached, ok := c.cache.Get(key); ok {
		return cached.(string), nil
	}

	fields, err := c.GetFields(ctx)
	if err != nil {
		return "", err
	}
	for _, f := range fields {
		if strings.EqualFold(strings.TrimSpace(f.Name), "sprint") && f.ID != "" {
			c.cache.Set(key, f.ID)
			return f.ID, nil
		}
	}
	return "", apperr.NotFound("Could not discover 'Sprint' field id in Jira", nil)
}

// GetIssueSprintField resolves the sprint field id, fetches only that field
// for the given issue, and decodes the loosely typed payload.
func (c *Client) GetIssueSprintField(ctx context.Context, issueKey string) (IssueSprintField, error) {
	fieldID, err := c.DiscoverSprintFieldID(ctx)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("fields", fieldID)

	var payload struct {
		Fields map[string]json.RawMessage `json:"fields"`
	}
	path := fmt.Sprintf("/rest/api/2/issue/%s", url.PathEscape(issueKey))
	if err := c.doRequest(ctx, path, params, &payload); err != nil {
		return nil, err
	}
	return decodeSprintField(payload.Fields[fieldID]), nil
}

// doRequest performs a GET against the backend, decoding the JSON response
// into out. Outcomes classified as upstream errors are retried with
// jittered exponential backoff up to the configured ceiling; auth and
// not-found outcomes are never retried.
func (c *Client) doRequest(ctx context.Context, path string, params url.Values, out any) error {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		lastErr = c.attempt(ctx, fullURL, out)
		if lastErr == nil {
			return nil
		}
		if !apperr.Is(lastErr, apperr.CodeUpstream) || attempt >= c.maxRetries {
			return lastErr
		}
		if err := c.wait(ctx, c.backoff(attempt)); err != nil {
			return lastErr
		}
	}
}

// attempt performs a single HTTP call and classifies the outcome.
func (c *Client) attempt(ctx context.Context, fullURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return apperr.Upstream("Jira request failed", map[string]any{"url": fullURL})
	}
	if err := c.setHeaders(ctx, req); err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	durMS := time.Since(start).Milliseconds()
	if err != nil {
		c.log.Info("jira_http",
			zap.String("url", fullURL),
			zap.Int64("duration_ms", durMS),
			zap.Error(err),
		)
		return apperr.Upstream("Jira request failed", map[string]any{"url": fullURL})
	}
	defer resp.Body.Close()

	c.log.Info("jira_http",
		zap.String("url", fullURL),
		zap.Int("status", resp.StatusCode),
		zap.Int64("duration_ms", durMS),
	)

	switch {
	case transientStatus[resp.StatusCode]:
		return apperr.Upstream("Transient Jira error", map[string]any{
			"status_code": resp.StatusCode, "url": fullURL,
		})
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return apperr.Auth("Jira authentication/authorization failed", map[string]any{
			"status_code": resp.StatusCode,
		})
	case resp.StatusCode == http.StatusNotFound:
		return apperr.NotFound("Jira resource not found", map[string]any{"url": fullURL})
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySnippet+1))
		return apperr.Upstream("Jira returned error", map[string]any{
			"status_code": resp.StatusCode, "url": fullURL, "body": safeText(string(body)),
		})
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Upstream("Jira returned malformed JSON", map[string]any{"url": fullURL})
	}
	return nil
}

func (c *Client) setHeaders(ctx context.Context, req *http.Request) error {
	switch c.authScheme {
	case "", "bearer":
		req.Header.Set("Authorization", "Bearer "+c.token)
	case "basic":
		if c.username == "" {
			return apperr.Config("JIRA_USERNAME is required for basic auth", nil)
		}
		creds := base64.StdEncoding.EncodeToString([]byte(c.username + ":" + c.token))
		req.Header.Set("Authorization", "Basic "+creds)
	default:
		return apperr.Config("Unsupported JIRA_AUTH_SCHEME", map[string]any{"scheme": c.authScheme})
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(reqid.Header, reqid.FromContext(ctx))
	return nil
}

// backoff returns a wait drawn uniformly at random between the configured
// minimum and an exponentially growing cap. The jitter keeps concurrent
// callers from retrying in lockstep.
func (c *Client) backoff(attempt int) time.Duration {
	upper := c.backoffMin << uint(attempt+1)
	if upper > c.backoffMax || upper <= 0 {
		upper = c.backoffMax
	}
	if upper <= c.backoffMin {
		return c.backoffMin
	}
	return c.backoffMin + rand.N(upper-c.backoffMin)
}

func (c *Client) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// safeText flattens and truncates upstream response text for diagnostics.
func safeText(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	if len(s) > maxBodySnippet {
		s = s[:maxBodySnippet]
	}
	return s
}
