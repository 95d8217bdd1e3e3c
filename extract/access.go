package extract

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/structura"
)

// DefaultKeyTTL bounds how long a key record may be served from cache.
// A revoked key can remain effective for up to this long; that latency is
// the documented price of not hitting the registry on every request.
const DefaultKeyTTL = 60 * time.Second

// DefaultStoreTimeout caps a single remote-store round trip.
const DefaultStoreTimeout = 5 * time.Second

// Ensure Access implements structura.Authorizer at compile time.
var _ structura.Authorizer = (*Access)(nil)

// Access validates API keys against the remote key registry and decides
// whether a request may touch a protected domain.
type Access struct {
	store   structura.APIKeyStore
	keys    *cache[*structura.APIKeyRecord]
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// AccessOption configures an Access.
type AccessOption func(*Access)

// WithKeyTTL sets how long key records are cached. Defaults to DefaultKeyTTL.
func WithKeyTTL(ttl time.Duration) AccessOption {
	return func(a *Access) { a.keys = newCache[*structura.APIKeyRecord](ttl) }
}

// WithAccessTimeout caps registry lookups. Defaults to DefaultStoreTimeout.
func WithAccessTimeout(d time.Duration) AccessOption {
	return func(a *Access) { a.timeout = d }
}

// WithAccessLogger sets the logger. Defaults to slog.Default().
func WithAccessLogger(logger *slog.Logger) AccessOption {
	return func(a *Access) { a.logger = logger }
}

// NewAccess creates a new Access backed by the given key registry.
func NewAccess(store structura.APIKeyStore, opts ...AccessOption) *Access {
	a := &Access{
		store:   store,
		keys:    newCache[*structura.APIKeyRecord](DefaultKeyTTL),
		timeout: DefaultStoreTimeout,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Authorize returns nil when apiKey is active, unexpired and allowed for
// domain.
func (a *Access) Authorize(ctx context.Context, apiKey, domain string) error {
	if apiKey == "" {
		return structura.Errorf(structura.EUNAUTHENTICATED,
			"protected blueprint %q requires an API key", domain)
	}

	rec, err := a.lookup(ctx, apiKey)
	if err != nil {
		return err
	}

	switch {
	case !rec.Active:
		return structura.Errorf(structura.EFORBIDDEN, "API key is inactive")
	case rec.Expired(a.now()):
		return structura.Errorf(structura.EFORBIDDEN, "API key expired at %s",
			rec.ExpiresAt.Format(time.RFC3339))
	case !rec.AllowsDomain(domain):
		return structura.Errorf(structura.EFORBIDDEN,
			"API key is not authorized for domain %q", domain)
	}
	return nil
}

// lookup fetches a key record, serving cached records within the TTL.
// Misses are never cached, so an unknown key is re-checked on every request.
func (a *Access) lookup(ctx context.Context, apiKey string) (*structura.APIKeyRecord, error) {
	if rec, _, ok := a.keys.get(apiKey); ok {
		return rec, nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	rec, err := a.store.GetAPIKey(ctx, apiKey)
	switch {
	case structura.ErrorCode(err) == structura.ENOTFOUND:
		return nil, structura.Errorf(structura.EUNAUTHENTICATED, "unknown API key")
	case err != nil:
		a.logger.Error("key registry lookup failed", "error", err)
		return nil, structura.Errorf(structura.EUNAVAILABLE, "key registry unavailable")
	}

	a.keys.put(apiKey, rec)
	return rec, nil
}
