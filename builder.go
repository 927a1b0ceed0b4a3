package goBearer

import (
	"net/http"

	"github.com/redis/go-redis/v9"
)

// Builder assembles a [Client]. A Builder is single-use: Build validates the
// configuration, selects the store backend, and wires the pipeline.
type Builder struct {
	config Config
	redis  *redis.Client
	store  TokenStore
	base   http.RoundTripper
	sink   AuditSink

	built bool
}

// New creates a Builder preloaded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the entire configuration. The value is deep-copied.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis selects a Redis-backed token store.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithStore supplies a custom token store, taking precedence over WithRedis.
func (b *Builder) WithStore(store TokenStore) *Builder {
	b.store = store
	return b
}

// WithBase sets the underlying transport requests are sent through. Defaults
// to http.DefaultTransport.
func (b *Builder) WithBase(rt http.RoundTripper) *Builder {
	b.base = rt
	return b
}

// WithAuditSink sets the destination for audit events.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.sink = sink
	return b
}

// WithMetricsEnabled toggles the internal counter set.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and assembles the Client.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}
	b.built = true

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store := b.store
	switch {
	case store != nil:
	case b.redis != nil:
		store = NewRedisStore(b.redis, cfg.Storage.Prefix)
	default:
		store = NewMemoryStore()
	}

	if cfg.Storage.Encrypt {
		encrypted, err := NewEncryptedStore(store, cfg.Storage.Passphrase)
		if err != nil {
			return nil, err
		}
		store = encrypted
	}

	metrics := NewMetrics(cfg.Metrics)
	audit := newAuditDispatcher(cfg.Audit, b.sink)

	base := b.base
	if base == nil {
		base = http.DefaultTransport
	}

	issuing := make(map[string]struct{}, len(cfg.Tokens.AccessTokenPaths))
	for _, path := range cfg.Tokens.AccessTokenPaths {
		issuing[path] = struct{}{}
	}

	transport := &Transport{
		base:    base,
		cfg:     cfg,
		store:   store,
		coord:   newRefreshCoordinator(cfg, store, audit, metrics),
		issuing: issuing,
		audit:   audit,
		metrics: metrics,
	}

	return &Client{
		cfg:       cfg,
		store:     store,
		transport: transport,
		audit:     audit,
		metrics:   metrics,
	}, nil
}
