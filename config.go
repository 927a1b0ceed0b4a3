package goBearer

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config defines the full behavior of a Client. Config values are resolved and
// validated once by [Builder.Build] and treated as immutable afterwards.
type Config struct {
	Tokens  TokenConfig
	Refresh RefreshConfig
	Storage StorageConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig names the token fields and the endpoints that issue them.
//
// AccessTokenKey and RefreshTokenKey serve double duty: they are the JSON field
// names read from token-issuing response bodies, and the keys under which each
// token is persisted in the store.
type TokenConfig struct {
	AccessTokenKey   string
	RefreshTokenKey  string
	AccessTokenPaths []string
}

/*
====================================
REFRESH CONFIG
====================================
*/

// RefreshConfig controls the single-flight refresh cycle.
//
// Client is the bare transport collaborator used for both the refresh call and
// the transparent retry of recovered requests. It must not route through a
// goBearer [Transport]; Validate rejects such clients.
type RefreshConfig struct {
	Enabled bool
	Path    string
	Method  string
	Client  *http.Client
	// Timeout bounds a single refresh attempt. The leader runs detached from
	// the triggering request's context so one cancelled caller cannot abort a
	// refresh other callers are waiting on.
	Timeout time.Duration
}

/*
====================================
STORAGE CONFIG
====================================
*/

// StorageConfig selects the persistence namespace and at-rest encryption for
// the built-in store adapters. An explicitly provided [TokenStore] is used
// as-is; Encrypt then wraps it in the AES-GCM layer.
type StorageConfig struct {
	Prefix     string
	Encrypt    bool
	Passphrase []byte
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the internal counter set.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the configuration a fresh [Builder] starts from:
// refresh disabled, in-memory storage, "access_token"/"refresh_token" field
// names, "/login" as the only token-issuing path.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Tokens: TokenConfig{
			AccessTokenKey:   "access_token",
			RefreshTokenKey:  "refresh_token",
			AccessTokenPaths: []string{"/login"},
		},
		Refresh: RefreshConfig{
			Enabled: false,
			Method:  http.MethodPost,
			Timeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			Prefix:  "gb",
			Encrypt: false,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Tokens.AccessTokenPaths = cloneStrings(cfg.Tokens.AccessTokenPaths)
	out.Storage.Passphrase = cloneBytes(cfg.Storage.Passphrase)
	return out
}

func cloneStrings(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

var allowedRefreshMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// Validate checks every construction-time invariant and returns the first
// violation wrapped in its sentinel error. It performs no I/O.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Tokens.AccessTokenKey) == "" {
		return ErrMissingAccessTokenKey
	}

	if c.Refresh.Enabled {
		if strings.TrimSpace(c.Tokens.RefreshTokenKey) == "" {
			return ErrMissingRefreshTokenKey
		}
		if strings.TrimSpace(c.Refresh.Path) == "" {
			return ErrMissingRefreshPath
		}
		if _, err := url.Parse(c.Refresh.Path); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRefreshPath, err)
		}
		if !allowedRefreshMethods[c.Refresh.Method] {
			return fmt.Errorf("%w: %q", ErrInvalidRefreshMethod, c.Refresh.Method)
		}
		if c.Refresh.Client == nil {
			return ErrMissingRefreshClient
		}
		if carriesBearerTransport(c.Refresh.Client.Transport) {
			return ErrRefreshClientCycle
		}
	}

	if c.Refresh.Timeout < 0 {
		return ErrInvalidRefreshTimeout
	}

	if c.Storage.Encrypt && len(c.Storage.Passphrase) == 0 {
		return ErrMissingPassphrase
	}

	return nil
}

// carriesBearerTransport walks a RoundTripper chain through Unwrap looking for
// a goBearer Transport. Wrapping transports can expose the chain by
// implementing Unwrap() http.RoundTripper.
func carriesBearerTransport(rt http.RoundTripper) bool {
	for rt != nil {
		if _, ok := rt.(*Transport); ok {
			return true
		}
		unwrapper, ok := rt.(interface{ Unwrap() http.RoundTripper })
		if !ok {
			return false
		}
		rt = unwrapper.Unwrap()
	}
	return false
}
