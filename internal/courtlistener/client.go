// Package courtlistener talks to the CourtListener REST API: the keyword
// search endpoint and the single-opinion endpoint.
package courtlistener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ppiankov/casewatch/internal/model"
	"github.com/ppiankov/casewatch/internal/util"
	"github.com/ppiankov/casewatch/internal/worker"
	"go.uber.org/zap"
)

// ErrMissingAPIKey is returned before any request when no token is configured
var ErrMissingAPIKey = errors.New("CourtListener API key is missing (set COURTLISTENER_API_KEY)")

// StatusError is a non-200 API response
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.Code, e.Body)
}

// Client is a CourtListener API client
type Client struct {
	baseURL    string
	apiKey     string
	filedAfter string
	userAgent  string
	maxBytes   int64
	httpClient *http.Client
	limiter    *worker.Limiter
	logger     *zap.Logger
}

// NewClient creates a client. limiter may be nil to disable pacing.
func NewClient(cfg model.CourtListenerConfig, httpCfg model.HTTPConfig, limiter *worker.Limiter, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limiter == nil {
		limiter = worker.NewLimiter(0, 1)
	}

	maxBytes := httpCfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 20_000_000
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		filedAfter: cfg.FiledAfter,
		userAgent:  httpCfg.UserAgent,
		maxBytes:   maxBytes,
		httpClient: util.NewHTTPClient(httpCfg),
		limiter:    limiter,
		logger:     logger.Named("courtlistener"),
	}
}

// getJSON performs an authenticated GET and decodes the body into out
func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	if c.apiKey == "" {
		return ErrMissingAPIKey
	}

	if err := c.limiter.Wait(ctx, rawURL); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode, Body: truncate(string(body), 500)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
