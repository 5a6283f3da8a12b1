package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tripdesk/backend/internal/types"
)

// Client talks to the tripdesk backend's ingest and dashboard endpoints
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// IngestResult is the backend's reply to an ingest request
type IngestResult struct {
	Accepted int      `json:"accepted"`
	IDs      []string `json:"ids"`
}

// NewClient creates a new backend client. token may be empty for the
// internal ingest routes.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// PostLeads sends a batch of leads to the ingest endpoint
func (c *Client) PostLeads(ctx context.Context, leads []types.Lead) (*IngestResult, error) {
	return c.post(ctx, "/internal/leads", leads)
}

// PostEngagements sends a batch of engagements to the ingest endpoint
func (c *Client) PostEngagements(ctx context.Context, engagements []types.Engagement) (*IngestResult, error) {
	return c.post(ctx, "/internal/engagements", engagements)
}

// PostAttendance sends a batch of attendance days to the ingest endpoint
func (c *Client) PostAttendance(ctx context.Context, days []types.AttendanceDay) (*IngestResult, error) {
	return c.post(ctx, "/internal/attendance", days)
}

// Dashboard fetches the dashboard visible to the client's token
func (c *Client) Dashboard(ctx context.Context) (*types.DashboardSnapshot, error) {
	var snap types.DashboardSnapshot
	if err := c.get(ctx, "/api/dashboard", &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Health checks if the backend is healthy
func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, "/health", nil)
}

func (c *Client) post(ctx context.Context, path string, body interface{}) (*IngestResult, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var result IngestResult
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s: unexpected status code: %d, body: %s",
			req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", req.URL.Path, err)
	}
	return nil
}
