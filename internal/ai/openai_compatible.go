package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultHTTPTimeout = 60 * time.Second

// StatusError is a non-2xx response from a model service.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s response status %d: %s", e.Service, e.StatusCode, e.Body)
}

// postJSON sends body as JSON to url and decodes a 2xx response into out.
func postJSON(ctx context.Context, client *http.Client, service, url string, headers map[string]string, body, out any) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s request failed: %w", service, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("build %s request failed: %w", service, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", service, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response failed: %w", service, err)
	}
	if resp.StatusCode >= 300 {
		return &StatusError{Service: service, StatusCode: resp.StatusCode, Body: truncate(string(raw), 512)}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse %s json failed: %w", service, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
