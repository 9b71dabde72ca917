// Package discovery queries the registry service for currently available
// hosts. The client holds live HTTP state, so a migrated agent builds a
// fresh one on arrival instead of carrying it in its snapshot.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/roamnet/rover/internal/domain"
)

// Client looks up hosts in the registry.
type Client struct {
	registryURL string
	maxResults  int
	http        *http.Client
	logger      *slog.Logger
}

// New creates a discovery client for the registry at registryURL,
// returning at most maxResults hosts per query. A malformed registry URL
// is the one unrecoverable construction fault: without it the agent can
// never find anything, so it aborts startup.
func New(registryURL string, maxResults int, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(registryURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid registry url %q", registryURL)
	}
	if maxResults < 0 {
		maxResults = 0
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.RetryWaitMin = 200 * time.Millisecond
	retryClient.RetryWaitMax = 1 * time.Second
	retryClient.Logger = nil // suppress default logging

	return &Client{
		registryURL: registryURL,
		maxResults:  maxResults,
		http:        retryClient.StandardClient(),
		logger:      logger,
	}, nil
}

// FindHosts performs a single registry query. The result is ordered,
// bounded by the configured maximum, and possibly empty. A registry
// fault is reported as an error; the caller decides whether to retry.
func (c *Client) FindHosts(ctx context.Context) ([]domain.HostInfo, error) {
	u := c.registryURL + "/hosts?max=" + strconv.Itoa(c.maxResults)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry lookup: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("registry lookup returned %d: %s", resp.StatusCode, string(respBody))
	}

	var envelope struct {
		OK   bool `json:"ok"`
		Data struct {
			Hosts []domain.HostInfo `json:"hosts"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("unmarshal lookup response: %w", err)
	}
	if !envelope.OK {
		return nil, fmt.Errorf("registry lookup: ok=false")
	}
	return envelope.Data.Hosts, nil
}

// WaitForHosts queries the registry until it returns at least one host,
// sleeping retrySleep between empty or failed attempts. An empty registry
// is never fatal, only ever retried; the only way out without a result is
// context cancellation.
func (c *Client) WaitForHosts(ctx context.Context, retrySleep time.Duration) ([]domain.HostInfo, error) {
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			c.logger.Debug("no hosts detected, sleeping", "retry_sleep", retrySleep)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retrySleep):
			}
		}

		hosts, err := c.FindHosts(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Debug("registry query failed", "err", err)
			continue
		}
		if len(hosts) > 0 {
			return hosts, nil
		}
	}
}
