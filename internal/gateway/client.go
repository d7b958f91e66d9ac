// Package gateway stores API keys as key-auth credentials in a Kong gateway.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jinxlo/api-dashboard/internal/config"
	"github.com/jinxlo/api-dashboard/internal/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const maxErrorBody = 4 << 10

// Client talks to the Kong Admin API
type Client struct {
	adminURL  string
	http      *http.Client
	timeout   time.Duration
	consumers *lru.Cache[string, struct{}]
	group     singleflight.Group
}

// NewClient creates a Kong Admin API client
func NewClient(cfg config.GatewayConfig, httpClient *http.Client) (*Client, error) {
	adminURL := strings.TrimRight(strings.TrimSpace(cfg.AdminURL), "/")
	if adminURL == "" {
		return nil, &domain.NotConfiguredError{Message: "Kong Admin API is not configured"}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	size := cfg.ConsumerCacheSize
	if size <= 0 {
		size = 1024
	}
	consumers, err := lru.New[string, struct{}](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer cache: %w", err)
	}

	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		adminURL:  adminURL,
		http:      httpClient,
		timeout:   timeout,
		consumers: consumers,
	}, nil
}

// Ping checks that the Admin API answers
func (c *Client) Ping(ctx context.Context) error {
	status, _, err := c.do(ctx, http.MethodGet, "/status", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return c.upstream(http.MethodGet, "/status", status, nil)
	}
	return nil
}

// do sends one request and returns the status and body. Only transport failures are errors.
func (c *Client) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	target := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		target = c.adminURL + path
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		log.Error().Err(err).Str("method", method).Str("path", path).Msg("Kong request failed")
		return 0, nil, fmt.Errorf("kong %s %s: %w", method, path, domain.ErrUpstream)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error().Err(err).Str("method", method).Str("path", path).Msg("Failed to read Kong response")
		return 0, nil, fmt.Errorf("kong %s %s: %w", method, path, domain.ErrUpstream)
	}

	return resp.StatusCode, data, nil
}

// upstream logs an unexpected response and returns the opaque error callers see
func (c *Client) upstream(method, path string, status int, body []byte) error {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	log.Error().
		Str("method", method).
		Str("path", path).
		Int("status", status).
		Str("body", string(body)).
		Msg("Kong returned an unexpected status")
	return fmt.Errorf("kong %s %s returned %d: %w", method, path, status, domain.ErrUpstream)
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
