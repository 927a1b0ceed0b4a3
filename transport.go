package goBearer

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/MrEthical07/goBearer/internal/flows"
)

// Transport is the request pipeline: an http.RoundTripper that injects the
// stored access token into every outgoing request, harvests token pairs from
// token-issuing responses, and recovers from 401/403 through the refresh
// coordinator. Construct it through [Builder.Build]; the zero value is not
// usable.
//
// Transport never blocks a request on a missing token and never surfaces
// refresh machinery errors: a caller sees its own response, its own transport
// error, or the retried response.
type Transport struct {
	base    http.RoundTripper
	cfg     Config
	store   TokenStore
	coord   *refreshCoordinator
	issuing map[string]struct{}
	audit   *auditDispatcher
	metrics *Metrics
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	// The caller's request is never mutated; the RoundTripper contract
	// requires working on a copy.
	out := req.Clone(ctx)
	t.injectAuthorization(out)

	resp, err := t.base.RoundTrip(out)
	if err != nil {
		return nil, err
	}

	if t.isTokenIssuing(req.URL.Path) {
		// Token-issuing paths never trigger refresh, whatever the status:
		// a failed login must not be answered with a refresh of itself.
		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			t.harvest(ctx, req.URL.Path, resp)
		}
		return resp, nil
	}

	if (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) && t.cfg.Refresh.Enabled {
		return t.recover(req, resp)
	}

	return resp, nil
}

// injectAuthorization sets the Bearer header from the stored access token.
// When no token is stored the header is omitted entirely; a read failure
// counts as absence.
func (t *Transport) injectAuthorization(req *http.Request) {
	token, ok, err := t.store.Get(req.Context(), t.cfg.Tokens.AccessTokenKey)
	if err != nil {
		t.metrics.Inc(MetricStoreReadError)
	}
	if !ok || token == "" {
		t.metrics.Inc(MetricAuthMissing)
		return
	}

	req.Header.Set("Authorization", "Bearer "+token)
	t.metrics.Inc(MetricAuthInjected)
}

// harvest extracts and persists token fields from a token-issuing response.
// The body is buffered once and restored so the caller receives it intact;
// extraction misses and store failures never fail the response.
func (t *Transport) harvest(ctx context.Context, path string, resp *http.Response) {
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return
	}

	fields := flows.TokenFields(body)
	requestID := t.requestID(ctx)

	harvested := false
	if access, ok := flows.StringField(fields, t.cfg.Tokens.AccessTokenKey); ok {
		harvested = t.persistToken(ctx, requestID, t.cfg.Tokens.AccessTokenKey, access, MetricHarvestAccess) || harvested
	}
	if t.cfg.Refresh.Enabled {
		if refresh, ok := flows.StringField(fields, t.cfg.Tokens.RefreshTokenKey); ok {
			harvested = t.persistToken(ctx, requestID, t.cfg.Tokens.RefreshTokenKey, refresh, MetricHarvestRefresh) || harvested
		}
	}

	if harvested {
		t.emit(ctx, AuditEvent{
			EventType: eventTokenHarvest,
			RequestID: requestID,
			Path:      path,
			Status:    resp.StatusCode,
			Success:   true,
		})
	}
}

// recover asks the coordinator for a fresh token and transparently retries
// the original request through the refresh collaborator. Every failure along
// the way falls back to the original 401/403 response.
func (t *Transport) recover(req *http.Request, resp *http.Response) (*http.Response, error) {
	requestID := t.requestID(req.Context())
	ctx := req.Context()
	if requestID != "" {
		ctx = WithRequestID(ctx, requestID)
	}

	token, ok := t.coord.Refresh(ctx)
	if !ok {
		return resp, nil
	}

	retry, err := cloneForRetry(req)
	if err != nil {
		return resp, nil
	}
	retry.Header.Set("Authorization", "Bearer "+token)

	retryResp, err := t.cfg.Refresh.Client.Do(retry)
	if err != nil {
		t.metrics.Inc(MetricRetryFailure)
		t.emit(ctx, AuditEvent{
			EventType: eventRetryFailure,
			RequestID: requestID,
			Path:      req.URL.Path,
			Status:    resp.StatusCode,
			Error:     err.Error(),
		})
		return resp, nil
	}

	t.metrics.Inc(MetricRetrySuccess)
	t.emit(ctx, AuditEvent{
		EventType: eventRetrySuccess,
		RequestID: requestID,
		Path:      req.URL.Path,
		Status:    retryResp.StatusCode,
		Success:   true,
	})

	_ = resp.Body.Close()
	return retryResp, nil
}

// cloneForRetry rebuilds a sendable copy of req. The original body was
// consumed by the first attempt, so replayability hinges on GetBody; a
// one-shot body makes the request unretryable.
func cloneForRetry(req *http.Request) (*http.Request, error) {
	retry := req.Clone(req.Context())
	if req.Body == nil {
		return retry, nil
	}
	if req.GetBody == nil {
		return nil, http.ErrBodyReadAfterClose
	}

	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	retry.Body = body
	return retry, nil
}

func (t *Transport) persistToken(ctx context.Context, requestID, key, value string, metric MetricID) bool {
	if err := t.store.Set(ctx, key, value); err != nil {
		log.Printf("goBearer: token persist failed: %v", err)
		t.metrics.Inc(MetricStoreWriteError)
		t.emit(ctx, AuditEvent{
			EventType: eventStoreWriteError,
			RequestID: requestID,
			Error:     err.Error(),
		})
		return false
	}

	t.metrics.Inc(metric)
	return true
}

func (t *Transport) isTokenIssuing(path string) bool {
	_, ok := t.issuing[path]
	return ok
}

// requestID resolves the audit correlation ID, generating one only when
// auditing is on.
func (t *Transport) requestID(ctx context.Context) string {
	if t.audit == nil {
		return ""
	}
	if id := requestIDFromContext(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}

func (t *Transport) emit(ctx context.Context, event AuditEvent) {
	if t.audit == nil {
		return
	}
	event.Timestamp = time.Now()
	t.audit.Emit(ctx, event)
}
