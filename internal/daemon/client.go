package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	requestTimeout = 5 * time.Second
	maxBodySize    = 4 << 20 // 4 MB
	userAgent      = "cashcast-client/1.0"
)

var (
	// ErrNoData indicates the daemon has no transactions to forecast from.
	ErrNoData = errors.New("daemon: no transaction history")
	// ErrUnavailable indicates the daemon could not be reached.
	ErrUnavailable = errors.New("daemon: unavailable")
)

// Client reads the daemon's HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for a daemon listening on addr ("host:port" or
// a full URL). Returns nil if addr is empty.
func NewClient(addr string) *Client {
	addr = strings.TrimRight(strings.TrimSpace(addr), "/")
	if addr == "" {
		return nil
	}
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	return &Client{baseURL: addr, http: &http.Client{}}
}

// Healthy reports whether /healthz answers.
func (c *Client) Healthy(ctx context.Context) bool {
	_, err := c.get(ctx, "/healthz")
	return err == nil
}

// Status fetches the daemon's refresh status and latest snapshot.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var st Status
	if err := c.getJSON(ctx, "/v1/status", &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Budgets fetches the current month's budget outlook.
func (c *Client) Budgets(ctx context.Context) (*BudgetsReport, error) {
	var rep BudgetsReport
	if err := c.getJSON(ctx, "/v1/budgets", &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

// Events returns the buffered events, oldest first.
func (c *Client) Events(ctx context.Context) ([]Event, error) {
	var evs []Event
	if err := c.getJSON(ctx, "/v1/events", &evs); err != nil {
		return nil, err
	}
	return evs, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	body, err := c.get(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("daemon: parsing %s: %w", path, err)
	}
	return nil
}

// get performs a GET request and returns the response body.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("daemon: creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	//nolint:gosec // URL is the locally configured daemon address
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("daemon: reading response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound && strings.HasPrefix(path, "/v1/"):
		return nil, ErrNoData
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("daemon: unexpected status %d: %s", resp.StatusCode, apiError(body))
	}
	return body, nil
}

// apiError extracts the {"error": ...} message from a failed response.
func apiError(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}
