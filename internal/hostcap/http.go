package hostcap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/roamnet/rover/internal/domain"
)

// Client is the HTTP implementation of the Host capability contract.
//
// Read-only calls (ping, safe, residents) go through a retrying client;
// mutating calls (add, remove, tag, migrate) are sent exactly once, since
// none of them are idempotent from the host's point of view.
type Client struct {
	info   domain.HostInfo
	get    *http.Client
	send   *http.Client
	logger *slog.Logger
}

// NewClient creates a capability client for the host described by info.
func NewClient(info domain.HostInfo, logger *slog.Logger) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.RetryWaitMin = 200 * time.Millisecond
	retryClient.RetryWaitMax = 1 * time.Second
	retryClient.Logger = nil // suppress default logging

	return &Client{
		info:   info,
		get:    retryClient.StandardClient(),
		send:   &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

// Info returns the registry record this client was built from.
func (c *Client) Info() domain.HostInfo {
	return c.info
}

func (c *Client) Addr() string {
	return c.info.Addr
}

func (c *Client) Ping(ctx context.Context) (string, error) {
	var data struct {
		Message string `json:"message"`
	}
	if err := c.doGet(ctx, "/ping", &data); err != nil {
		return "", err
	}
	return data.Message, nil
}

func (c *Client) IsSafe(ctx context.Context) (bool, error) {
	var data struct {
		Safe bool `json:"safe"`
	}
	if err := c.doGet(ctx, "/safe", &data); err != nil {
		return false, err
	}
	return data.Safe, nil
}

func (c *Client) NumResidents(ctx context.Context) (int, error) {
	var data struct {
		Count int `json:"count"`
	}
	if err := c.doGet(ctx, "/residents/count", &data); err != nil {
		return 0, err
	}
	return data.Count, nil
}

func (c *Client) ResidentIDs(ctx context.Context) ([]uuid.UUID, error) {
	var data struct {
		IDs []uuid.UUID `json:"ids"`
	}
	if err := c.doGet(ctx, "/residents", &data); err != nil {
		return nil, err
	}
	return data.IDs, nil
}

func (c *Client) AddResident(ctx context.Context, snap domain.Snapshot) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = c.doSend(ctx, http.MethodPost, "/residents", body)
	return err
}

func (c *Client) RemoveResident(ctx context.Context, id uuid.UUID) error {
	_, err := c.doSend(ctx, http.MethodDelete, "/residents/"+id.String(), nil)
	return err
}

func (c *Client) TagResident(ctx context.Context, id uuid.UUID) (bool, error) {
	raw, err := c.doSend(ctx, http.MethodPost, "/residents/"+id.String()+"/tag", nil)
	if err != nil {
		return false, err
	}
	var data struct {
		Accepted bool `json:"accepted"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return false, fmt.Errorf("unmarshal tag response: %w", err)
	}
	return data.Accepted, nil
}

func (c *Client) Migrate(ctx context.Context, req domain.MigrateRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return domain.ErrMigrationFault{Addr: c.info.Addr, Err: err}
	}
	if _, err := c.doSend(ctx, http.MethodPost, "/migrate", body); err != nil {
		return domain.ErrMigrationFault{Addr: c.info.Addr, Err: err}
	}
	return nil
}

// --- internal ---

func (c *Client) doGet(ctx context.Context, path string, data any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.info.Addr+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.get.Do(req)
	if err != nil {
		return domain.ErrHostUnreachable{Addr: c.info.Addr, Err: err}
	}
	defer resp.Body.Close()

	raw, err := decodeEnvelope(resp)
	if err != nil {
		c.logger.Debug("host call failed", "addr", c.info.Addr, "path", path, "err", err)
		return domain.ErrHostUnreachable{Addr: c.info.Addr, Err: err}
	}
	if data == nil {
		return nil
	}
	if err := json.Unmarshal(raw, data); err != nil {
		return fmt.Errorf("unmarshal %s response: %w", path, err)
	}
	return nil
}

func (c *Client) doSend(ctx context.Context, method, path string, body []byte) (json.RawMessage, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.info.Addr+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.send.Do(req)
	if err != nil {
		return nil, domain.ErrHostUnreachable{Addr: c.info.Addr, Err: err}
	}
	defer resp.Body.Close()

	raw, err := decodeEnvelope(resp)
	if err != nil {
		c.logger.Debug("host call failed", "addr", c.info.Addr, "method", method, "path", path, "err", err)
		return nil, domain.ErrHostUnreachable{Addr: c.info.Addr, Err: err}
	}
	return raw, nil
}

// decodeEnvelope reads the host's {"ok":..,"data":..,"error":..} envelope
// and returns the raw data payload, or an error for non-2xx statuses and
// ok=false bodies.
func decodeEnvelope(resp *http.Response) (json.RawMessage, error) {
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	var envelope struct {
		OK    bool            `json:"ok"`
		Data  json.RawMessage `json:"data"`
		Error string          `json:"error"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !envelope.OK {
		msg := envelope.Error
		if msg == "" {
			msg = string(respBody)
		}
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, msg)
	}
	return envelope.Data, nil
}
