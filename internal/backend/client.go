// Package backend implements the HTTP client for the remote inference
// endpoint. The endpoint accepts one turn request per call and replies with
// the generated text plus the model and domain that produced it.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/domainchat-dev/domainchat/pkg/chat"
)

const defaultTimeout = 60 * time.Second

// ErrUnexpectedStatus is returned for any non-2xx backend response. The
// response body is not trusted for user display.
var ErrUnexpectedStatus = errors.New("unexpected response status")

// Config configures a Client.
type Config struct {
	// BaseURL is the API base, e.g. https://api.example.com/prod.
	BaseURL string

	// Timeout bounds each round-trip at the transport level. The caller
	// usually also bounds the call with a context deadline. Default: 60s.
	Timeout time.Duration

	// Tokens optionally supplies a bearer credential per request.
	Tokens TokenProvider

	// RequestsPerSecond enables client-side rate limiting when positive.
	RequestsPerSecond float64

	// Burst is the rate limiter burst size. Default: 1 when limiting.
	Burst int

	// HTTPClient overrides the default HTTP client (test seam).
	HTTPClient *http.Client
}

// Client performs turn round-trips against the chat endpoint. It
// implements chat.Backend.
type Client struct {
	baseURL string
	client  *http.Client
	tokens  TokenProvider
	limiter *rate.Limiter
}

// NewClient creates a backend client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("backend: base URL is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{
		baseURL: cfg.BaseURL,
		client:  httpClient,
		tokens:  cfg.Tokens,
		limiter: limiter,
	}, nil
}

// Send performs one turn round-trip. A successful HTTP response with an
// incomplete body is reported as an error, not as a partial success.
func (c *Client) Send(ctx context.Context, req chat.TurnRequest) (*chat.TurnResponse, error) {
	var resp chat.TurnResponse
	if err := c.post(ctx, "/chat", req, &resp); err != nil {
		return nil, err
	}
	if resp.Response == "" || resp.ModelUsed == "" {
		return nil, errors.New("backend: incomplete response body")
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if err := c.attachToken(ctx, httpReq); err != nil {
		return err
	}

	return c.do(httpReq, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if err := c.attachToken(ctx, httpReq); err != nil {
		return err
	}

	return c.do(httpReq, out)
}

func (c *Client) attachToken(ctx context.Context, req *http.Request) error {
	if c.tokens == nil {
		return nil
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("acquire token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused; the body itself is
		// untrusted and never surfaced.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
