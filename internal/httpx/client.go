// Package httpx holds the HTTP client shared by every outbound integration
// and the JSON call shape the report's REST collaborators use.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultExternalHTTPTimeout = 90 * time.Second
	errorBodyLimit             = 200
)

var externalHTTPClient = &http.Client{
	Timeout: defaultExternalHTTPTimeout,
}

// ConfigureExternalHTTPClient sets the timeout for Salesforce report runs and
// LLM gateway calls. Zero or negative keeps the default.
func ConfigureExternalHTTPClient(timeoutSeconds int) time.Duration {
	timeout := defaultExternalHTTPTimeout
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds) * time.Second
	}
	externalHTTPClient.Timeout = timeout
	return timeout
}

func Client() *http.Client {
	return externalHTTPClient
}

// Request is one JSON call to an external API.
type Request struct {
	// Service names the API in errors, e.g. "salesforce" or "gateway".
	Service string
	Method  string
	URL     string
	// Token is sent as a bearer token when set.
	Token string
	// Body is JSON-encoded when non-nil.
	Body any
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s status %d: %s", e.Service, e.StatusCode, e.Body)
}

// DoJSON sends req and decodes a 2xx response body into out. A nil client
// uses the shared one; a nil out discards the body.
func DoJSON(ctx context.Context, client *http.Client, req Request, out any) error {
	if client == nil {
		client = externalHTTPClient
	}
	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("encoding %s request: %w", req.Service, err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return fmt.Errorf("creating %s request: %w", req.Service, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s request: %w", req.Service, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s response: %w", req.Service, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Service: req.Service, StatusCode: resp.StatusCode, Body: truncate(string(data), errorBodyLimit)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing %s response: %w", req.Service, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
