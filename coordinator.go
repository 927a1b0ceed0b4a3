package goBearer

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/MrEthical07/goBearer/internal/flows"
)

// refreshFlightKey is the single-flight key: exactly one token pair is
// managed, so every refresh attempt coalesces onto one key.
const refreshFlightKey = "refresh"

// refreshCoordinator serializes concurrent refresh demands into one network
// call. The first caller becomes the leader and drives the cycle; callers
// arriving while it runs become followers and share its outcome. The
// check-and-transition that guards "is a refresh already running" is atomic
// inside the singleflight group, and every waiter is resolved exactly once
// before the group forgets the key.
type refreshCoordinator struct {
	cfg     Config
	store   TokenStore
	group   singleflight.Group
	audit   *auditDispatcher
	metrics *Metrics
}

func newRefreshCoordinator(cfg Config, store TokenStore, audit *auditDispatcher, metrics *Metrics) *refreshCoordinator {
	return &refreshCoordinator{
		cfg:     cfg,
		store:   store,
		audit:   audit,
		metrics: metrics,
	}
}

// Refresh obtains a fresh access token, joining an in-flight cycle when one
// exists. ok is false when the cycle resolved to "no token" or when ctx was
// cancelled while waiting; in the latter case the leader keeps running for
// the benefit of the remaining waiters.
func (c *refreshCoordinator) Refresh(ctx context.Context) (token string, ok bool) {
	led := false
	ch := c.group.DoChan(refreshFlightKey, func() (any, error) {
		led = true
		return c.lead(requestIDFromContext(ctx)), nil
	})

	select {
	case res := <-ch:
		if !led {
			c.metrics.Inc(MetricRefreshFollower)
		}
		token, _ := res.Val.(string)
		return token, token != ""
	case <-ctx.Done():
		return "", false
	}
}

// lead runs one refresh cycle detached from any caller's context, bounded by
// the configured timeout. It returns the new access token or "" for the
// "no token" outcome; the distinction between failure kinds never travels
// past this point — callers fall back to their original response.
func (c *refreshCoordinator) lead(requestID string) string {
	c.metrics.Inc(MetricRefreshLeader)

	ctx := context.Background()
	if c.cfg.Refresh.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Refresh.Timeout)
		defer cancel()
	}

	start := time.Now()
	result := flows.RunRefresh(ctx, flows.RefreshDeps{
		Path:            c.cfg.Refresh.Path,
		Method:          c.cfg.Refresh.Method,
		AccessTokenKey:  c.cfg.Tokens.AccessTokenKey,
		RefreshTokenKey: c.cfg.Tokens.RefreshTokenKey,

		ReadRefreshToken:  c.readRefreshToken,
		StoreAccessToken:  c.storeToken(c.cfg.Tokens.AccessTokenKey),
		StoreRefreshToken: c.storeToken(c.cfg.Tokens.RefreshTokenKey),
		PurgeTokens:       c.purgeTokens,
		Do:                c.cfg.Refresh.Client.Do,
		Warn:              log.Printf,
	})
	c.metrics.Observe(MetricRefreshLatency, time.Since(start))

	switch result.Failure {
	case flows.RefreshFailureNone:
		c.metrics.Inc(MetricRefreshSuccess)
		c.emit(eventRefreshSuccess, requestID, result.Status, true, nil)
		return result.AccessToken

	case flows.RefreshFailureNoToken:
		c.metrics.Inc(MetricRefreshNoToken)
		c.emit(eventRefreshNoToken, requestID, 0, false, result.Err)
		return ""

	default:
		c.metrics.Inc(MetricRefreshFailure)
		c.emit(eventRefreshFailure, requestID, result.Status, false, result.Err)
		if result.Purged {
			c.metrics.Inc(MetricTokensPurged)
			c.emit(eventTokensPurged, requestID, result.Status, true, nil)
		}
		return ""
	}
}

func (c *refreshCoordinator) readRefreshToken(ctx context.Context) (string, bool, error) {
	value, ok, err := c.store.Get(ctx, c.cfg.Tokens.RefreshTokenKey)
	if err != nil {
		c.metrics.Inc(MetricStoreReadError)
	}
	return value, ok, err
}

func (c *refreshCoordinator) storeToken(key string) func(context.Context, string) error {
	return func(ctx context.Context, value string) error {
		if err := c.store.Set(ctx, key, value); err != nil {
			c.metrics.Inc(MetricStoreWriteError)
			return err
		}
		return nil
	}
}

func (c *refreshCoordinator) purgeTokens(ctx context.Context) error {
	return errors.Join(
		c.store.Delete(ctx, c.cfg.Tokens.AccessTokenKey),
		c.store.Delete(ctx, c.cfg.Tokens.RefreshTokenKey),
	)
}

func (c *refreshCoordinator) emit(eventType, requestID string, status int, success bool, err error) {
	if c.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: time.Now(),
		EventType: eventType,
		RequestID: requestID,
		Path:      c.cfg.Refresh.Path,
		Status:    status,
		Success:   success,
	}
	if err != nil {
		event.Error = err.Error()
	}
	c.audit.Emit(context.Background(), event)
}
