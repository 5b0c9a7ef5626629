// ABOUTME: HTTP-backed primary provider calling the hosted generative API.
// ABOUTME: Classifies failures, retries transient ones, and validates output.

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// maxResponseSize bounds the response body read to prevent memory
// exhaustion from a misbehaving endpoint.
const maxResponseSize = 4 * 1024 * 1024 // 4MB

// RetryConfig controls transient-failure retries inside the HTTP provider.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts per call.
	MaxAttempts int

	// BackoffBase is the initial backoff duration, doubled per retry.
	BackoffBase time.Duration
}

// DefaultRetryConfig returns retry defaults suited to a generative call
// that is already bounded by the orchestrator's timeout.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 2,
		BackoffBase: 500 * time.Millisecond,
	}
}

// HTTPProvider calls the external generative suggestion service.
type HTTPProvider struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
	retry      RetryConfig
	logger     *slog.Logger
}

// HTTPOption configures an HTTPProvider.
type HTTPOption func(*HTTPProvider)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(p *HTTPProvider) {
		p.httpClient = c
	}
}

// WithRetryConfig sets the retry configuration.
func WithRetryConfig(cfg RetryConfig) HTTPOption {
	return func(p *HTTPProvider) {
		p.retry = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) HTTPOption {
	return func(p *HTTPProvider) {
		p.logger = logger
	}
}

// WithModel sets the model identifier sent with each request.
func WithModel(model string) HTTPOption {
	return func(p *HTTPProvider) {
		p.model = model
	}
}

// NewHTTPProvider creates a provider for the given endpoint. The apiKey
// is sent as a bearer token; pass "" for unauthenticated endpoints.
func NewHTTPProvider(endpoint, apiKey string, opts ...HTTPOption) *HTTPProvider {
	p := &HTTPProvider{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		apiKey:   apiKey,
		retry:    DefaultRetryConfig(),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: slog.Default().With("component", "provider"),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the provider identifier.
func (p *HTTPProvider) Name() string {
	return "http"
}

// wireRequest is the request body sent to the generative endpoint.
type wireRequest struct {
	Model string `json:"model,omitempty"`
	*Request
}

// Generate calls the suggestion endpoint, retrying transient failures.
func (p *HTTPProvider) Generate(ctx context.Context, req *Request) (*Result, error) {
	var lastErr error

	for attempt := 1; attempt <= p.retry.MaxAttempts; attempt++ {
		res, err := p.doRequest(ctx, req)
		if err == nil {
			return res, nil
		}

		lastErr = err
		if IsFatal(err) {
			return nil, err
		}

		if attempt < p.retry.MaxAttempts {
			backoff := p.retry.BackoffBase * time.Duration(1<<(attempt-1))
			p.logger.Debug("suggestion request failed, retrying",
				"attempt", attempt,
				"backoff", backoff,
				"error", err)

			select {
			case <-ctx.Done():
				return nil, NewTransientError(ctx.Err())
			case <-time.After(backoff):
			}
		}
	}

	return nil, lastErr
}

// doRequest executes a single call against the endpoint.
func (p *HTTPProvider) doRequest(ctx context.Context, req *Request) (*Result, error) {
	body, err := json.Marshal(wireRequest{Model: p.model, Request: req})
	if err != nil {
		return nil, NewFatalError(fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/v1/suggestions", bytes.NewReader(body))
	if err != nil {
		return nil, NewFatalError(fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	p.logger.Debug("requesting suggestions",
		"city", req.CityName,
		"places", len(req.SavedPlaces))

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		// Network errors and timeouts are transient
		return nil, NewTransientError(fmt.Errorf("http request: %w", err))
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, NewTransientError(fmt.Errorf("read response: %w", err))
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, ClassifyHTTPError(httpResp.StatusCode, respBody)
	}

	return parseResult(respBody)
}

// parseResult decodes and validates the service response. Incomplete or
// unparseable payloads are transient: the model may do better next time.
func parseResult(body []byte) (*Result, error) {
	payload := ExtractJSON(string(body))
	if payload == "" {
		return nil, NewTransientError(fmt.Errorf("no JSON object in response"))
	}

	var res Result
	if err := json.Unmarshal([]byte(payload), &res); err != nil {
		return nil, NewTransientError(fmt.Errorf("parse response: %w", err))
	}

	if len(res.Suggestions) == 0 {
		return nil, NewTransientError(fmt.Errorf("response contains no suggestions"))
	}
	for i, s := range res.Suggestions {
		if s.Name == "" {
			return nil, NewTransientError(fmt.Errorf("suggestion %d has no name", i))
		}
	}

	if res.GeneratedAt.IsZero() {
		res.GeneratedAt = time.Now().UTC()
	}
	return &res, nil
}
