package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/roamnet/rover/internal/domain"
)

// Client announces a host into the registry.
type Client struct {
	registryURL string
	http        *http.Client
	logger      *slog.Logger
}

// NewClient creates an announce client for the registry at registryURL.
func NewClient(registryURL string, logger *slog.Logger) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = nil // suppress default logging

	return &Client{
		registryURL: registryURL,
		http:        retryClient.StandardClient(),
		logger:      logger,
	}
}

// Announce publishes or refreshes the host record.
func (c *Client) Announce(ctx context.Context, info domain.HostInfo) error {
	body, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshal host info: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.registryURL+"/hosts", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("announce: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("announce returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// AnnounceLoop announces immediately and then re-announces on every tick
// until the context is cancelled. Failures are logged and retried on the
// next tick; a host that cannot reach the registry simply ages out of
// discovery until it can.
func (c *Client) AnnounceLoop(ctx context.Context, info domain.HostInfo, interval time.Duration) {
	if err := c.Announce(ctx, info); err != nil {
		c.logger.Warn("registry announce failed", "err", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Announce(ctx, info); err != nil {
				c.logger.Warn("registry announce failed", "err", err)
			}
		}
	}
}
