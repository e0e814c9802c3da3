package sidecar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"log/slog"

	"github.com/sethvargo/go-retry"
)

// ErrKeyNotFound reports that no value exists at the requested key.
var ErrKeyNotFound = errors.New("sidecar: key not found")

// Client speaks the sidecar state-store protocol for a single named store:
// a key/value endpoint for get/set/delete and a query endpoint for filtered
// reads. It holds no state between calls and is safe for concurrent use.
type Client struct {
	baseURL    string
	store      string
	httpClient *http.Client
	logger     *slog.Logger
	maxRetries uint64
}

// Option customises client instantiation.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithLogger attaches a logger for transport-level warnings.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithBaseURL points the client at an explicit sidecar address instead of
// localhost with a port.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.baseURL = base
		}
	}
}

// WithMaxRetries bounds how many times transient failures are retried.
func WithMaxRetries(n uint64) Option {
	return func(c *Client) { c.maxRetries = n }
}

// New constructs a Client for the store reachable on the local sidecar port.
func New(port int, store string, opts ...Option) *Client {
	c := &Client{
		baseURL:    fmt.Sprintf("http://localhost:%d", port),
		store:      store,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		maxRetries: 2,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) stateURL() string {
	return fmt.Sprintf("%s/v1.0/state/%s", c.baseURL, c.store)
}

func (c *Client) queryURL() string {
	return fmt.Sprintf("%s/v1.0-alpha1/state/%s/query", c.baseURL, c.store)
}

// Get fetches the value stored at key into v. Missing keys, empty bodies, and
// bodies that do not decode into v all report ErrKeyNotFound.
func (c *Client) Get(ctx context.Context, key string, v any) error {
	body, err := c.roundTrip(ctx, http.MethodGet, c.stateURL()+"/"+url.PathEscape(key), nil)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return ErrKeyNotFound
	}
	if err := json.Unmarshal(body, v); err != nil {
		// An undecodable record is treated the same as an absent one.
		c.warn("undecodable state record", "key", key, "error", err)
		return ErrKeyNotFound
	}
	return nil
}

type kvPair struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Set upserts value at key. The protocol has no separate create operation;
// callers needing create-only semantics must check existence first.
func (c *Client) Set(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal([]kvPair{{Key: key, Value: value}})
	if err != nil {
		return fmt.Errorf("encode state payload: %w", err)
	}
	_, err = c.roundTrip(ctx, http.MethodPost, c.stateURL(), payload)
	return err
}

// Delete removes the value stored at key.
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.roundTrip(ctx, http.MethodDelete, c.stateURL()+"/"+url.PathEscape(key), nil)
	if err != nil && !errors.Is(err, ErrKeyNotFound) {
		return err
	}
	return nil
}

// Query runs filter against the store and returns the raw data payload of
// every result. A body that does not decode degrades to zero results.
func (c *Client) Query(ctx context.Context, filter Filter) ([]json.RawMessage, error) {
	payload, err := json.Marshal(struct {
		Filter Filter `json:"filter"`
	}{Filter: filter})
	if err != nil {
		return nil, fmt.Errorf("encode query payload: %w", err)
	}
	body, err := c.roundTrip(ctx, http.MethodPost, c.queryURL(), payload)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var decoded struct {
		Results []struct {
			Data json.RawMessage `json:"data"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		c.warn("undecodable query response", "error", err)
		return nil, nil
	}
	out := make([]json.RawMessage, 0, len(decoded.Results))
	for _, entry := range decoded.Results {
		out = append(out, entry.Data)
	}
	return out, nil
}

// Health pings the sidecar's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1.0/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sidecar health: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sidecar health: status %d", resp.StatusCode)
	}
	return nil
}

// roundTrip performs one request with bounded retries on transient failures
// (network errors and 5xx responses). 404 and 204 map to ErrKeyNotFound.
func (c *Client) roundTrip(ctx context.Context, method, endpoint string, payload []byte) ([]byte, error) {
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewFibonacci(50*time.Millisecond))
	var body []byte
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("sidecar request: %w", err))
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= http.StatusInternalServerError:
			return retry.RetryableError(fmt.Errorf("sidecar: status %d on %s %s", resp.StatusCode, method, endpoint))
		case resp.StatusCode == http.StatusNotFound:
			return ErrKeyNotFound
		case resp.StatusCode >= http.StatusBadRequest:
			return fmt.Errorf("sidecar: status %d on %s %s", resp.StatusCode, method, endpoint)
		case resp.StatusCode == http.StatusNoContent:
			// Successful writes and absent keys both come back 204 with an
			// empty body; callers distinguish by operation.
			body = nil
			return nil
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("read response: %w", err))
		}
		body = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
