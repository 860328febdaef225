package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/claude/coachplan/internal/models"
)

// Result mirrors ingest.Result without importing the ingest package
// (which would pull in pgx and other server-side dependencies).
type Result struct {
	DaysReceived    int      `json:"days_received"`
	PlansInserted   int      `json:"plans_inserted"`
	EntriesInserted int64    `json:"entries_inserted"`
	DayIDs          []string `json:"day_ids"`
	Message         string   `json:"message,omitempty"`
}

// Client sends plans to the coachplan server over HTTP.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
	backoff    time.Duration
}

// NewClient creates a new HTTP client for the coachplan server.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		backoff: time.Second,
	}
}

// UploadPlan POSTs one HTML plan to the client's ingest endpoint.
// Retries up to 3 times with exponential backoff on network errors and 5xx
// responses; a 4xx response is returned immediately.
func (c *Client) UploadPlan(ctx context.Context, clientID int, kind models.PlanKind, html []byte) (*Result, error) {
	url := c.serverURL + "/api/v1/clients/" + strconv.Itoa(clientID) + "/plans/" + string(kind) + "?source=upload"

	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			select {
			case <-time.After(c.backoff << uint(attempt-1)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(html))
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "text/html; charset=utf-8")
		req.Header.Set("X-API-Key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			var result Result
			if err := json.Unmarshal(body, &result); err != nil {
				return nil, fmt.Errorf("decoding upload result: %w", err)
			}
			return &result, nil
		case resp.StatusCode < 500:
			return nil, fmt.Errorf("upload rejected (status %d): %s", resp.StatusCode, body)
		}
		lastErr = fmt.Errorf("upload failed (status %d): %s", resp.StatusCode, body)
	}

	return nil, fmt.Errorf("after 3 attempts: %w", lastErr)
}
