// Package httpfetch downloads certificates referenced by URL, such as the
// id-ad-caIssuers location in an Authority Information Access extension.
package httpfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/certwatch-app/cw-certshow/internal/version"
)

// ErrStatus is returned for responses outside the 2xx range
var ErrStatus = errors.New("unexpected http status")

// maxBodySize bounds the size of a downloaded certificate
const maxBodySize = 1 << 20

// Config holds HTTP client settings
type Config struct {
	ConnectTimeout time.Duration
	Timeout        time.Duration
}

// Fetcher downloads the body at url
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Client is the default Fetcher backed by net/http
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a new Client
func New(cfg Config, logger *zap.Logger) *Client {
	dialer := &net.Dialer{
		Timeout: cfg.ConnectTimeout,
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = dialer.DialContext

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		logger: logger,
	}
}

// NewWithHTTPClient wraps an existing http.Client
func NewWithHTTPClient(c *http.Client, logger *zap.Logger) *Client {
	return &Client{httpClient: c, logger: logger}
}

// Get issues a GET request and returns the response body.
// Any non-2xx response is an error wrapping ErrStatus.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", fmt.Sprintf("cw-certshow/%s", version.GetVersion()))
	req.Header.Set("Accept", "application/pkix-cert, application/octet-stream, */*")

	c.logger.Debug("fetching certificate",
		zap.String("url", url),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug("received response",
		zap.Int("status", resp.StatusCode),
		zap.Int("body_length", len(body)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned %d", ErrStatus, url, resp.StatusCode)
	}

	return body, nil
}
