package goBearer

import (
	"context"
	"errors"
	"net/http"
)

// Client is the public facade over the pipeline: it exposes the Transport for
// wiring into http clients, read-through token accessors, and the observation
// surfaces (metrics snapshot, audit drop counter).
type Client struct {
	cfg       Config
	store     TokenStore
	transport *Transport
	audit     *auditDispatcher
	metrics   *Metrics
}

// Transport returns the pipeline RoundTripper for use in an http.Client.
func (c *Client) Transport() *Transport {
	if c == nil {
		return nil
	}
	return c.transport
}

// HTTPClient returns a ready-to-use http.Client routed through the pipeline.
func (c *Client) HTTPClient() *http.Client {
	if c == nil {
		return nil
	}
	return &http.Client{Transport: c.transport}
}

// GetAccessToken reads the stored access token. ok is false when no token is
// stored; err reports backend failures.
func (c *Client) GetAccessToken(ctx context.Context) (token string, ok bool, err error) {
	if c == nil {
		return "", false, ErrClientNotReady
	}
	return c.store.Get(ctx, c.cfg.Tokens.AccessTokenKey)
}

// GetRefreshToken reads the stored refresh token.
func (c *Client) GetRefreshToken(ctx context.Context) (token string, ok bool, err error) {
	if c == nil {
		return "", false, ErrClientNotReady
	}
	return c.store.Get(ctx, c.cfg.Tokens.RefreshTokenKey)
}

// ClearTokens deletes both stored entries. Each delete is attempted even if
// the other fails.
func (c *Client) ClearTokens(ctx context.Context) error {
	if c == nil {
		return ErrClientNotReady
	}
	return errors.Join(
		c.store.Delete(ctx, c.cfg.Tokens.AccessTokenKey),
		c.store.Delete(ctx, c.cfg.Tokens.RefreshTokenKey),
	)
}

// MetricsSnapshot returns a point-in-time copy of the internal counters.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	if c == nil || c.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return c.metrics.Snapshot()
}

// AuditDropped reports audit events discarded under backpressure.
func (c *Client) AuditDropped() uint64 {
	if c == nil || c.audit == nil {
		return 0
	}
	return c.audit.Dropped()
}

// Close drains and stops the audit dispatcher. The Transport remains usable;
// further audit events are discarded.
func (c *Client) Close() {
	if c == nil {
		return
	}
	if c.audit != nil {
		c.audit.Close()
	}
}
