// Package n8n is a read-only client for the REST API of remote n8n
// instances. It normalizes pasted base URLs, walks cursor pagination and
// keeps the two response shapes of the API apart: listing endpoints wrap
// their payload in a {data, nextCursor} envelope, the execution detail
// endpoint does not.
package n8n

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/flowcommand/flowcommand/pkg/models"
)

const (
	apiKeyHeader = "X-N8N-API-KEY"
	basePath     = "/api/v1"

	// workflowPageSize is the page size for the exhaustive workflow walk;
	// 250 is the maximum most server versions accept.
	workflowPageSize = 250

	defaultTimeout = 30 * time.Second

	snippetLength = 100
	bodyLogLimit  = 200
)

// uiPathSuffixes are browser-URL path segments users paste along with the
// instance root. They are stripped so both the UI root and a deep UI link
// normalize to the same API base.
var uiPathSuffixes = []string{
	"/home/workflows",
	"/home",
	"/workflows",
	"/credentials",
	"/executions",
}

// NormalizeBaseURL reduces a configured instance URL to the bare server
// root. It is idempotent and leaves URLs that already point at the root
// untouched.
func NormalizeBaseURL(raw string) string {
	normalized := strings.TrimSuffix(raw, "/")

	for _, suffix := range uiPathSuffixes {
		normalized = strings.TrimSuffix(normalized, suffix)
	}

	return strings.TrimSuffix(normalized, "/")
}

// Client issues authenticated calls against a single remote instance.
type Client struct {
	instance   models.Instance
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client for the given instance. The instance credential
// is attached to every request.
func NewClient(instance models.Instance, logger *slog.Logger) *Client {
	return &Client{
		instance:   instance,
		baseURL:    NormalizeBaseURL(instance.URL),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger: logger.With(
			"module", "n8n_client",
			"instance_id", instance.ID,
		),
	}
}

// get performs an authenticated GET and returns the raw body. Non-2xx
// responses become an APIError carrying the status and full body.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	endpoint := c.baseURL + basePath + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", path, err)
	}

	req.Header.Set(apiKeyHeader, c.instance.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", path, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.logger.DebugContext(ctx, "Remote API returned an error",
			"path", path,
			"status", resp.StatusCode,
			"body", truncate(string(body), bodyLogLimit),
		)

		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}

// envelope is the pagination wrapper used by all listing endpoints.
type envelope[T any] struct {
	Data       []T    `json:"data"`
	NextCursor string `json:"nextCursor"`
}

func decodeEnvelope[T any](body []byte) ([]T, string, error) {
	var page envelope[T]
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, "", &ParseError{Snippet: truncate(string(body), snippetLength), Err: err}
	}

	return page.Data, page.NextCursor, nil
}

// ListWorkflowsPage fetches one page of workflows.
func (c *Client) ListWorkflowsPage(ctx context.Context, cursor string, limit int) ([]models.Workflow, string, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))

	if cursor != "" {
		query.Set("cursor", cursor)
	}

	body, err := c.get(ctx, "/workflows", query)
	if err != nil {
		return nil, "", err
	}

	return decodeEnvelope[models.Workflow](body)
}

// ListWorkflows walks cursor pagination to exhaustion and returns every
// workflow on the instance. Downstream code builds a workflow-id to name
// lookup from the result, so a failure on any page fails the whole call
// rather than returning a partial list.
func (c *Client) ListWorkflows(ctx context.Context) ([]models.Workflow, error) {
	var (
		all    []models.Workflow
		cursor string
	)

	for {
		page, next, err := c.ListWorkflowsPage(ctx, cursor, workflowPageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to list workflows: %w", err)
		}

		all = append(all, page...)

		if next == "" {
			return all, nil
		}

		cursor = next
	}
}

// ListExecutionsPage fetches one page of execution summaries. status is an
// optional remote-side filter; pass the empty string to disable it.
func (c *Client) ListExecutionsPage(ctx context.Context, cursor string, limit int, status string) ([]models.Execution, string, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))

	if cursor != "" {
		query.Set("cursor", cursor)
	}

	if status != "" {
		query.Set("status", status)
	}

	body, err := c.get(ctx, "/executions", query)
	if err != nil {
		return nil, "", err
	}

	return decodeEnvelope[models.Execution](body)
}

// ExecutionDetail fetches a single execution with its full nested result
// data. Unlike the listing endpoints this response is NOT wrapped in the
// {data, nextCursor} envelope; the body is the execution itself. That
// asymmetry is a documented contract of the remote API, not something to
// paper over with a shared decoder.
func (c *Client) ExecutionDetail(ctx context.Context, executionID string) (*models.ExecutionDetail, error) {
	query := url.Values{}
	query.Set("includeData", "true")

	body, err := c.get(ctx, "/executions/"+url.PathEscape(executionID), query)
	if err != nil {
		return nil, err
	}

	var detail models.ExecutionDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, &ParseError{Snippet: truncate(string(body), snippetLength), Err: err}
	}

	return &detail, nil
}

// HealthCheck probes the instance by requesting the first page of a real
// listing call. A dedicated liveness endpoint exists on some server versions
// but not all, so the authenticated listing is the reliable probe. Any
// failure means unhealthy; this never returns an error.
func (c *Client) HealthCheck(ctx context.Context) bool {
	_, _, err := c.ListWorkflowsPage(ctx, "", 1)
	if err != nil {
		c.logger.WarnContext(ctx, "Health check failed", "error", err)

		return false
	}

	return true
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}

	return s[:limit] + "..."
}
