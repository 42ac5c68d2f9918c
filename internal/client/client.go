// Package client talks to a running tripgate daemon over its HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/tripgate/internal/daemon"
	"github.com/theirongolddev/tripgate/internal/gateway"
	"github.com/theirongolddev/tripgate/internal/model"
	"github.com/theirongolddev/tripgate/internal/quota"
	"github.com/theirongolddev/tripgate/internal/router"
)

const (
	requestTimeout = 10 * time.Second
	maxBodySize    = 1 << 20 // 1 MB
	userAgent      = "tripgate-cli/1.0"
)

var (
	// ErrUnavailable indicates the daemon is down or could not verify usage.
	ErrUnavailable = errors.New("tripgate: daemon unavailable")
	// ErrBadRequest indicates the daemon rejected the request body.
	ErrBadRequest = errors.New("tripgate: bad request")
)

// Client is a tripgate daemon API client.
type Client struct {
	base string
	http *http.Client
}

// New returns a client for addr, which may be host:port or a full URL.
func New(addr string) *Client {
	addr = strings.TrimRight(strings.TrimSpace(addr), "/")
	if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
		addr = "http://" + addr
	}
	return &Client{base: addr, http: &http.Client{}}
}

// Health returns nil when the daemon answers /healthz.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/healthz", nil)
	return err
}

// Status returns the daemon runtime status.
func (c *Client) Status(ctx context.Context) (daemon.Status, error) {
	var st daemon.Status
	return st, c.getJSON(ctx, "/v1/status", &st)
}

// Events returns the buffered event history.
func (c *Client) Events(ctx context.Context) ([]daemon.Event, error) {
	var evs []daemon.Event
	return evs, c.getJSON(ctx, "/v1/events", &evs)
}

// Catalog lists the models the daemon routes to.
func (c *Client) Catalog(ctx context.Context) ([]router.ModelConfig, error) {
	var models []router.ModelConfig
	return models, c.getJSON(ctx, "/v1/catalog", &models)
}

// Classify classifies a message remotely.
func (c *Client) Classify(ctx context.Context, message string, contextTokens int64) (router.Classification, error) {
	var out router.Classification
	err := c.postJSON(ctx, "/v1/classify", daemon.ClassifyRequest{Message: message, ContextTokens: contextTokens}, &out)
	return out, err
}

// Route asks the daemon for a routing decision.
func (c *Client) Route(ctx context.Context, req router.Request) (router.Decision, error) {
	var out router.Decision
	return out, c.postJSON(ctx, "/v1/route", req, &out)
}

// CheckQuota checks a user's quota. When the daemon cannot verify usage
// the denied decision is returned together with ErrUnavailable.
func (c *Client) CheckQuota(ctx context.Context, userID, callerTier string) (quota.Decision, error) {
	var out quota.Decision
	return out, c.postJSON(ctx, "/v1/quota/check", daemon.QuotaCheckRequest{UserID: userID, Tier: callerTier}, &out)
}

// PeekQuota reads a user's quota state without claiming a strict-mode slot.
func (c *Client) PeekQuota(ctx context.Context, userID, callerTier string) (quota.Decision, error) {
	var out quota.Decision
	return out, c.postJSON(ctx, "/v1/quota/check", daemon.QuotaCheckRequest{UserID: userID, Tier: callerTier, Peek: true}, &out)
}

// Admit routes and quota-checks a request in one call.
func (c *Client) Admit(ctx context.Context, req gateway.AdmitRequest) (gateway.Admission, error) {
	var out gateway.Admission
	return out, c.postJSON(ctx, "/v1/admit", req, &out)
}

// RecordUsage reports a completed AI call.
func (c *Client) RecordUsage(ctx context.Context, e gateway.UsageEntry) (daemon.UsageAccepted, error) {
	var out daemon.UsageAccepted
	return out, c.postJSON(ctx, "/v1/usage", e, &out)
}

// UserStats returns a user's usage summary for the trailing days.
func (c *Client) UserStats(ctx context.Context, userID string, days int) (model.UserStats, error) {
	var out model.UserStats
	path := fmt.Sprintf("/v1/users/%s/stats?days=%s", url.PathEscape(userID), strconv.Itoa(days))
	return out, c.getJSON(ctx, path, &out)
}

// TripStats returns a trip's usage summary.
func (c *Client) TripStats(ctx context.Context, tripID string) (model.TripStats, error) {
	var out model.TripStats
	return out, c.getJSON(ctx, "/v1/trips/"+url.PathEscape(tripID)+"/stats", &out)
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return decode(path, body, v)
}

// postJSON decodes the response into v even for 503 so callers see the
// fail-closed decision.
func (c *Client) postJSON(ctx context.Context, path string, in, v any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("tripgate: encoding %s: %w", path, err)
	}
	body, err := c.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		if errors.Is(err, ErrUnavailable) && len(body) > 0 {
			_ = json.Unmarshal(body, v)
		}
		return err
	}
	return decode(path, body, v)
}

func decode(path string, body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("tripgate: parsing %s: %w", path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return nil, fmt.Errorf("tripgate: creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("tripgate: reading response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusServiceUnavailable:
		return body, ErrUnavailable
	case resp.StatusCode == http.StatusBadRequest:
		return body, fmt.Errorf("%w: %s", ErrBadRequest, errorMessage(body))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return body, fmt.Errorf("tripgate: unexpected status %d: %s", resp.StatusCode, errorMessage(body))
	}
	return body, nil
}

func errorMessage(body []byte) string {
	var er daemon.ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error != "" {
		return er.Error
	}
	return strings.TrimSpace(string(body))
}
