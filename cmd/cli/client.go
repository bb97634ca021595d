package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/iho/movledger/internal/adapter/http/dto"
	"github.com/iho/movledger/internal/adapter/http/middleware"
)

// apiClient talks to the movledger HTTP API.
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string, timeout time.Duration) *apiClient {
	return &apiClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// apiError is a non-2xx API response.
type apiError struct {
	Status int
	Body   dto.ErrorResponse
}

func (e *apiError) Error() string {
	msg := e.Body.Error
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Body.Message != "" {
		msg += ": " + e.Body.Message
	}
	if e.Body.Kind != "" {
		return fmt.Sprintf("%s (status %d, kind %s)", msg, e.Status, e.Body.Kind)
	}
	return fmt.Sprintf("%s (status %d)", msg, e.Status)
}

type requestOptions struct {
	query          url.Values
	body           any
	idempotencyKey string
}

// do sends a request and decodes a 2xx JSON body into out. Non-2xx responses
// return *apiError; when out is non-nil the body is decoded into it too.
func (c *apiClient) do(ctx context.Context, method, path string, opts requestOptions, out any) error {
	target := c.baseURL + path
	if len(opts.query) > 0 {
		target += "?" + opts.query.Encode()
	}

	var body io.Reader
	if opts.body != nil {
		payload, err := json.Marshal(opts.body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	if opts.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if opts.idempotencyKey != "" {
		req.Header.Set(middleware.IdempotencyKeyHeader, opts.idempotencyKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &apiError{Status: resp.StatusCode}
		_ = json.Unmarshal(raw, &apiErr.Body)
		if out != nil {
			_ = json.Unmarshal(raw, out)
		}
		return apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
