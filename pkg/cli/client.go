package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"qs-governance/internal/domain"
)

// APIError is a structured error returned by the governance API.
type APIError struct {
	HTTPStatus int    `json:"http_status"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.HTTPStatus, e.Message)
}

// Client is an HTTP client for the governance admin API.
type Client struct {
	BaseURL string
	APIKey  string
	Token   string
	http    *http.Client
}

// NewClient creates an API client for the given host.
func NewClient(baseURL, apiKey, token string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Token:   token,
		// Governance runs are synchronous and can take minutes: every record
		// fans out into remote API calls behind a rate limiter.
		http: &http.Client{Timeout: 15 * time.Minute},
	}
}

// RunReportResult is the response of a run trigger: the report plus the
// run-level error, if any.
type RunReportResult struct {
	Report *domain.RunReport `json:"report"`
	Error  string            `json:"error,omitempty"`
}

// TriggerRun starts a governance run of the given kind ("users" or "assets").
func (c *Client) TriggerRun(ctx context.Context, kind string) (*RunReportResult, error) {
	body, status, err := c.do(ctx, http.MethodPost, "/v1/runs/"+kind, nil)
	if err != nil {
		return nil, err
	}

	// A failed run returns 502 with {"error": ..., "report": ...}.
	if status == http.StatusBadGateway {
		var result RunReportResult
		if err := json.Unmarshal(body, &result); err == nil && result.Report != nil {
			return &result, nil
		}
	}
	if status != http.StatusOK {
		return nil, apiError(status, body)
	}

	var report domain.RunReport
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, fmt.Errorf("decode run report: %w", err)
	}
	return &RunReportResult{Report: &report}, nil
}

// Collect triggers manifest collection and returns the record count.
func (c *Client) Collect(ctx context.Context) (int, error) {
	body, status, err := c.do(ctx, http.MethodPost, "/v1/collect", nil)
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK {
		return 0, apiError(status, body)
	}
	var resp struct {
		Records int `json:"records"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("decode collect response: %w", err)
	}
	return resp.Records, nil
}

// ListRuns returns recent run reports, newest first.
func (c *Client) ListRuns(ctx context.Context) ([]*domain.RunReport, error) {
	body, status, err := c.do(ctx, http.MethodGet, "/v1/runs", nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, apiError(status, body)
	}
	var resp struct {
		Runs []*domain.RunReport `json:"runs"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode runs: %w", err)
	}
	return resp.Runs, nil
}

// GetRun returns a single run report by ID.
func (c *Client) GetRun(ctx context.Context, id string) (*domain.RunReport, error) {
	body, status, err := c.do(ctx, http.MethodGet, "/v1/runs/"+id, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, apiError(status, body)
	}
	var report domain.RunReport
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, fmt.Errorf("decode run report: %w", err)
	}
	return &report, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	} else if c.APIKey != "" {
		req.Header.Set("X-API-Key", c.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return body, resp.StatusCode, nil
}

func apiError(status int, body []byte) error {
	var e struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	msg := string(body)
	if err := json.Unmarshal(body, &e); err == nil {
		if e.Message != "" {
			msg = e.Message
		} else if e.Error != "" {
			msg = e.Error
		}
	}
	return &APIError{HTTPStatus: status, Message: msg}
}
