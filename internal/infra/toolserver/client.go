// Package toolserver calls the Splunk tool server's REST surface directly:
//   - GET  /tools/splunk/indexes
//   - GET  /tools/splunk/search?query=
//   - GET  /tools/splunk/results?sid=
//   - POST /tools/splunk/event
//
// Bodies are returned as text, unmodified.
package toolserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	pathIndexes = "/tools/splunk/indexes"
	pathSearch  = "/tools/splunk/search"
	pathResults = "/tools/splunk/results"
	pathEvent   = "/tools/splunk/event"

	mimeJSON = "application/json"
)

// maxBodyBytes caps how much of a tool server response is read.
const maxBodyBytes = 8 << 20

var ErrUnexpectedStatus = errors.New("tool server returned unexpected status")

// StatusError carries the status and body of a non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("toolserver %s %s: status %d", e.Method, e.Path, e.Code)
}

func (e *StatusError) Unwrap() error { return ErrUnexpectedStatus }

// Client talks to one tool server base URL, e.g. http://localhost:8080/mcp.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a Client. A zero timeout means 30s.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) ListIndexes(ctx context.Context) (string, error) {
	return c.do(ctx, http.MethodGet, pathIndexes, nil, nil)
}

// Search submits an SPL query, e.g. "search index=main earliest=-24h".
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	return c.do(ctx, http.MethodGet, pathSearch, url.Values{"query": {query}}, nil)
}

// Results fetches the results of a previously created search job.
func (c *Client) Results(ctx context.Context, sid string) (string, error) {
	return c.do(ctx, http.MethodGet, pathResults, url.Values{"sid": {sid}}, nil)
}

// SendEvent posts params as a JSON object.
func (c *Client) SendEvent(ctx context.Context, params map[string]any) (string, error) {
	if params == nil {
		params = map[string]any{}
	}
	body, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("toolserver send event: marshal: %w", err)
	}
	return c.do(ctx, http.MethodPost, pathEvent, nil, body)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte) (string, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return "", fmt.Errorf("toolserver %s %s: build request: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", mimeJSON)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("toolserver %s %s: %w", method, path, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("toolserver %s %s: read body: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: string(raw)}
	}
	return string(raw), nil
}
