package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/coachplan/internal/models"
	"github.com/claude/coachplan/internal/storage"
	"github.com/google/uuid"
)

// HTTPClient implements DataSource by calling the coachplan REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// WithAPIKey sends key on every request so the server lets the client read
// any client's plans, not just those of the calling tailnet node.
func (c *HTTPClient) WithAPIKey(key string) *HTTPClient {
	c.apiKey = key
	return c
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return fmt.Errorf("httpclient: %s: %w", path, storage.ErrNotFound)
	default:
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func timeParams(start, end time.Time) url.Values {
	v := url.Values{}
	v.Set("start", start.Format(time.RFC3339))
	v.Set("end", end.Format(time.RFC3339))
	return v
}

func clientPath(clientID int, rest string) string {
	return "/api/v1/clients/" + strconv.Itoa(clientID) + rest
}

func (c *HTTPClient) ListPlans(ctx context.Context, clientID int, kind models.PlanKind, start, end *time.Time) ([]models.PlanRow, error) {
	params := url.Values{}
	if kind != "" {
		params.Set("kind", string(kind))
	}
	if start != nil {
		params.Set("start", start.Format(time.RFC3339))
	}
	if end != nil {
		params.Set("end", end.Format(time.RFC3339))
	}

	var plans []models.PlanRow
	if err := c.get(ctx, clientPath(clientID, "/plans"), params, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

func (c *HTTPClient) GetPlan(ctx context.Context, id uuid.UUID) (*models.PlanDetail, error) {
	var detail models.PlanDetail
	if err := c.get(ctx, "/api/v1/plans/"+id.String(), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (c *HTTPClient) QueryActivityLogs(ctx context.Context, clientID int, start, end time.Time) ([]models.ActivityLogRow, error) {
	var logs []models.ActivityLogRow
	if err := c.get(ctx, clientPath(clientID, "/logs"), timeParams(start, end), &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func (c *HTTPClient) GetDataStats(ctx context.Context, clientID int) (*storage.DataStats, error) {
	var stats storage.DataStats
	if err := c.get(ctx, clientPath(clientID, "/stats"), nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *HTTPClient) GetAdherence(ctx context.Context, clientID int, start, end time.Time, bucket string) ([]storage.AdherencePeriod, error) {
	params := timeParams(start, end)
	if bucket != "" {
		params.Set("bucket", bucket)
	}

	var periods []storage.AdherencePeriod
	if err := c.get(ctx, clientPath(clientID, "/adherence"), params, &periods); err != nil {
		return nil, err
	}
	return periods, nil
}
