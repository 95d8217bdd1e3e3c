package extract

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/fwojciec/structura"
)

// Default blueprint cache bounds. Entries younger than the fresh TTL are
// served without a store round trip; entries younger than the stale TTL are
// served only when the store errors.
const (
	DefaultBlueprintTTL      = 5 * time.Minute
	DefaultBlueprintStaleTTL = time.Hour
)

// Ensure Resolver implements structura.BlueprintService at compile time.
var _ structura.BlueprintService = (*Resolver)(nil)

// Resolver resolves a domain to its blueprint. Open blueprints come from the
// local library and are never access-controlled. Any other domain is treated
// as protected: the API key is verified first, then the remote document is
// fetched, parsed and cached.
type Resolver struct {
	library  structura.BlueprintLibrary
	store    structura.BlueprintStore
	auth     structura.Authorizer
	cache    *cache[*structura.Blueprint]
	ttl      time.Duration
	staleTTL time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithBlueprintTTL sets the fresh and stale cache bounds. staleTTL is
// clamped up to ttl when smaller.
func WithBlueprintTTL(ttl, staleTTL time.Duration) ResolverOption {
	return func(r *Resolver) {
		if staleTTL < ttl {
			staleTTL = ttl
		}
		r.ttl = ttl
		r.staleTTL = staleTTL
	}
}

// WithResolverTimeout caps store lookups. Defaults to DefaultStoreTimeout.
func WithResolverTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) { r.timeout = d }
}

// WithResolverLogger sets the logger. Defaults to slog.Default().
func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = logger }
}

// NewResolver creates a new Resolver.
func NewResolver(library structura.BlueprintLibrary, store structura.BlueprintStore, auth structura.Authorizer, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		library:  library,
		store:    store,
		auth:     auth,
		ttl:      DefaultBlueprintTTL,
		staleTTL: DefaultBlueprintStaleTTL,
		timeout:  DefaultStoreTimeout,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.cache = newCache[*structura.Blueprint](r.staleTTL)
	return r
}

// ResolveBlueprint resolves the blueprint for a domain.
func (r *Resolver) ResolveBlueprint(ctx context.Context, domain, schemaVersion, apiKey string) (*structura.Blueprint, error) {
	if domain == "" {
		return nil, structura.Errorf(structura.EINVALID, "domain required")
	}
	if schemaVersion == "" {
		schemaVersion = structura.DefaultSchemaVersion
	}

	if bp, ok := r.library.OpenBlueprint(domain); ok {
		open := *bp
		open.SchemaVersion = schemaVersion
		open.Visibility = structura.VisibilityOpen
		return &open, nil
	}

	// Protected path. The key must be verified before any document is
	// returned, cached or not.
	if err := r.auth.Authorize(ctx, apiKey, domain); err != nil {
		return nil, err
	}

	key := domain + "@" + schemaVersion
	cached, age, ok := r.cache.get(key)
	if ok && age <= r.ttl {
		return cached, nil
	}

	bp, err := r.fetch(ctx, domain, schemaVersion)
	if err != nil {
		if structura.ErrorCode(err) == structura.EUNAVAILABLE && ok {
			r.logger.Warn("blueprint store unavailable, serving cached entry",
				"domain", domain, "age", age)
			return cached, nil
		}
		return nil, err
	}

	r.cache.put(key, bp)
	return bp, nil
}

// fetch retrieves and parses the remote document for a protected domain.
func (r *Resolver) fetch(ctx context.Context, domain, schemaVersion string) (*structura.Blueprint, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	doc, err := r.store.GetBlueprintDocument(ctx, domain)
	switch {
	case structura.ErrorCode(err) == structura.ENOTFOUND:
		return nil, structura.Errorf(structura.ENOTFOUND, "no blueprint found for domain %q", domain)
	case err != nil:
		r.logger.Error("blueprint store lookup failed", "domain", domain, "error", err)
		return nil, structura.Errorf(structura.EUNAVAILABLE, "blueprint store unavailable")
	}

	// The schema field holds a JSON-encoded string. A document that exists
	// but carries garbage is broken upstream data, not a missing blueprint.
	schema := json.RawMessage(doc.Schema)
	if !json.Valid(schema) {
		r.logger.Error("malformed schema document", "domain", domain)
		return nil, structura.Errorf(structura.EUNAVAILABLE,
			"blueprint document for domain %q holds a malformed schema", domain)
	}

	return &structura.Blueprint{
		Domain:        domain,
		SchemaVersion: schemaVersion,
		Visibility:    structura.VisibilityProtected,
		Schema:        schema,
	}, nil
}
