// Package worker is the HTTP client for the external digest generation
// service. Content extraction, summarization, and text-to-speech live there;
// this client only asks it to start a run.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

type Client struct {
	baseURL   string
	accessKey string
	client    HTTPDoer
}

func NewClient(baseURL, accessKey string, client HTTPDoer) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		accessKey: accessKey,
		client:    client,
	}
}

// Configured reports whether a worker endpoint was set at deployment time.
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

type generateRequest struct {
	AccountID string `json:"account_id"`
}

type generateResponse struct {
	JobID string `json:"job_id"`
}

// RequestGeneration asks the worker to build a digest for the account from
// its pending queue items. Returns the worker-assigned job id.
func (c *Client) RequestGeneration(ctx context.Context, accountID string) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("worker URL is not configured")
	}

	body, err := json.Marshal(generateRequest{AccountID: accountID})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/jobs", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.accessKey != "" {
		req.Header.Set("X-API-Key", c.accessKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("worker request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("worker returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("failed to decode worker response: %w", err)
	}

	return decoded.JobID, nil
}
