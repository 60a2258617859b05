package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Gobusters/ectologger"
)

const (
	// DefaultTimeout is the default request timeout
	DefaultTimeout = 10 * time.Second

	// MaxResponseSize is the maximum response body size (5MB)
	MaxResponseSize = 5 * 1024 * 1024
)

// Client wraps the HTTP client with logging and size limits
type Client struct {
	client *http.Client
	logger ectologger.Logger
}

// Config holds HTTP client configuration
type Config struct {
	Timeout         time.Duration
	MaxIdleConns    int
	IdleConnTimeout time.Duration
}

// DefaultConfig returns default HTTP client configuration
func DefaultConfig() Config {
	return Config{
		Timeout:         DefaultTimeout,
		MaxIdleConns:    100,
		IdleConnTimeout: 90 * time.Second,
	}
}

// NewClient creates a new HTTP client
func NewClient(cfg Config, logger ectologger.Logger) *Client {
	transport := &http.Transport{
		MaxIdleConns:    cfg.MaxIdleConns,
		IdleConnTimeout: cfg.IdleConnTimeout,
	}

	return &Client{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		logger: logger,
	}
}

// Response represents an HTTP response
type Response struct {
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// Do executes an HTTP request and returns the response
func (c *Client) Do(ctx context.Context, req *http.Request) (*Response, error) {
	start := time.Now()

	resp, err := c.client.Do(req.WithContext(ctx))
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Errorf("HTTP request failed: %s %s", req.Method, req.URL.String())
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	duration := time.Since(start)

	limitedReader := io.LimitReader(resp.Body, MaxResponseSize+1)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if len(body) > MaxResponseSize {
		return nil, fmt.Errorf("response body too large: %d bytes (max %d)", len(body), MaxResponseSize)
	}

	c.logger.WithContext(ctx).Debugf("HTTP %s %s -> %d (%s)",
		req.Method, req.URL.String(), resp.StatusCode, duration)

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
		Duration:   duration,
	}, nil
}

// Get performs a GET request
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return c.Do(ctx, req)
}
