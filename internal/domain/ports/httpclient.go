package ports

import (
	"net/http"
	"time"
)

// HTTPClient abstracts HTTP operations for testability
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPClientConfig holds configuration for HTTP client
type HTTPClientConfig struct {
	Timeout   time.Duration
	UserAgent string
}

// RealHTTPClient implements HTTPClient using standard HTTP client.
// Retries are layered on top by decorators, not here.
type RealHTTPClient struct {
	client *http.Client
	config HTTPClientConfig
}

// NewRealHTTPClient creates a new real HTTP client implementation
func NewRealHTTPClient(config HTTPClientConfig) *RealHTTPClient {
	return &RealHTTPClient{
		client: &http.Client{Timeout: config.Timeout},
		config: config,
	}
}

// Do executes an HTTP request
func (c *RealHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if c.config.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	return c.client.Do(req)
}
