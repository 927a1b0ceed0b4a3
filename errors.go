package goBearer

import "errors"

var (
	// ErrMissingAccessTokenKey reports a Config without an access token field name.
	ErrMissingAccessTokenKey = errors.New("access token key required")
	// ErrMissingRefreshTokenKey reports refresh handling enabled without a refresh token field name.
	ErrMissingRefreshTokenKey = errors.New("refresh token key required")
	// ErrMissingRefreshPath reports refresh handling enabled without a refresh endpoint.
	ErrMissingRefreshPath = errors.New("refresh path required")
	// ErrInvalidRefreshPath reports a refresh endpoint that does not parse as a URL.
	ErrInvalidRefreshPath = errors.New("invalid refresh path")
	// ErrInvalidRefreshMethod reports a refresh method outside GET/POST/PUT/PATCH/DELETE.
	ErrInvalidRefreshMethod = errors.New("invalid refresh method")
	// ErrMissingRefreshClient reports refresh handling enabled without a transport collaborator.
	ErrMissingRefreshClient = errors.New("refresh client required")
	// ErrRefreshClientCycle reports a refresh transport collaborator that routes back
	// through a goBearer Transport. Such a client would trigger refresh recursion.
	ErrRefreshClientCycle = errors.New("refresh client must not carry a goBearer transport")
	// ErrInvalidRefreshTimeout reports a negative refresh timeout.
	ErrInvalidRefreshTimeout = errors.New("refresh timeout must not be negative")
	// ErrMissingPassphrase reports storage encryption enabled without key material.
	ErrMissingPassphrase = errors.New("storage encryption requires a passphrase")
	// ErrStoreUnavailable wraps read/write failures of the token store backend.
	ErrStoreUnavailable = errors.New("token store unavailable")
	// ErrDecrypt reports a stored value that could not be authenticated or decoded.
	ErrDecrypt = errors.New("stored token decryption failed")
	// ErrBuilderUsed reports a second Build call on the same Builder.
	ErrBuilderUsed = errors.New("builder already used")
	// ErrClientNotReady reports a call on a nil or unbuilt Client.
	ErrClientNotReady = errors.New("client not initialized")
)
