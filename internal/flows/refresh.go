package flows

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
)

// maxRefreshBodyBytes caps how much of a refresh response body is buffered.
const maxRefreshBodyBytes = 1 << 20

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureNoToken
	RefreshFailureBuildRequest
	RefreshFailureTransport
	RefreshFailureStatus
	RefreshFailureDecode
)

// RefreshResult carries either the freshly issued access token or failure
// metadata. Status is zero when no response was received.
type RefreshResult struct {
	Failure     RefreshFailureKind
	Err         error
	Status      int
	AccessToken string
	Rotated     bool
	Purged      bool
}

// RefreshDeps captures refresh leader dependencies.
type RefreshDeps struct {
	Path            string
	Method          string
	AccessTokenKey  string
	RefreshTokenKey string

	ReadRefreshToken  func(context.Context) (string, bool, error)
	StoreAccessToken  func(context.Context, string) error
	StoreRefreshToken func(context.Context, string) error
	PurgeTokens       func(context.Context) error
	Do                func(*http.Request) (*http.Response, error)
	Warn              func(string, ...any)
}

// RunRefresh executes one refresh network cycle against the configured
// endpoint. It never runs concurrently with itself — the caller serializes.
//
// The contract mirrors the pipeline's recovery policy: every failure resolves
// to an absent token, a 4xx response additionally purges both stored tokens,
// and store write failures degrade to warnings because the freshly issued
// token is already in hand.
func RunRefresh(ctx context.Context, deps RefreshDeps) RefreshResult {
	refreshToken, ok, err := deps.ReadRefreshToken(ctx)
	if err != nil || !ok || refreshToken == "" {
		return RefreshResult{
			Failure: RefreshFailureNoToken,
			Err:     err,
		}
	}

	req, err := buildRefreshRequest(ctx, deps, refreshToken)
	if err != nil {
		return RefreshResult{
			Failure: RefreshFailureBuildRequest,
			Err:     err,
		}
	}

	resp, err := deps.Do(req)
	if err != nil {
		return RefreshResult{
			Failure: RefreshFailureTransport,
			Err:     err,
		}
	}
	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxRefreshBodyBytes))
	_ = resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		result := RefreshResult{
			Failure: RefreshFailureStatus,
			Status:  resp.StatusCode,
		}
		// A 4xx means the server rejected the refresh token itself; both
		// stored tokens are dead weight and force re-authentication.
		if resp.StatusCode >= 400 && resp.StatusCode <= 499 {
			if err := deps.PurgeTokens(ctx); err != nil && deps.Warn != nil {
				deps.Warn("goBearer: token purge after rejected refresh failed: %v", err)
			}
			result.Purged = true
		}
		return result
	}
	if readErr != nil {
		return RefreshResult{
			Failure: RefreshFailureDecode,
			Status:  resp.StatusCode,
			Err:     readErr,
		}
	}

	fields := TokenFields(body)
	accessToken, ok := StringField(fields, deps.AccessTokenKey)
	if !ok {
		return RefreshResult{
			Failure: RefreshFailureDecode,
			Status:  resp.StatusCode,
		}
	}

	if err := deps.StoreAccessToken(ctx, accessToken); err != nil && deps.Warn != nil {
		deps.Warn("goBearer: access token persist after refresh failed: %v", err)
	}

	result := RefreshResult{
		Status:      resp.StatusCode,
		AccessToken: accessToken,
	}
	if rotated, ok := StringField(fields, deps.RefreshTokenKey); ok {
		if err := deps.StoreRefreshToken(ctx, rotated); err != nil && deps.Warn != nil {
			deps.Warn("goBearer: refresh token rotation persist failed: %v", err)
		}
		result.Rotated = true
	}

	return result
}

// buildRefreshRequest places the refresh token in the query string for GET
// and in a JSON body for every other method.
func buildRefreshRequest(ctx context.Context, deps RefreshDeps, refreshToken string) (*http.Request, error) {
	if deps.Method == http.MethodGet {
		target, err := url.Parse(deps.Path)
		if err != nil {
			return nil, err
		}
		query := target.Query()
		query.Set(deps.RefreshTokenKey, refreshToken)
		target.RawQuery = query.Encode()
		return http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	}

	payload, err := json.Marshal(map[string]string{deps.RefreshTokenKey: refreshToken})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, deps.Method, deps.Path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}
