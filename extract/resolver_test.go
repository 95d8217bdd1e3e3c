package extract_test

import (
	"context"
	"testing"
	"time"

	"github.com/fwojciec/structura"
	"github.com/fwojciec/structura/extract"
	"github.com/fwojciec/structura/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productSchema = `{"type":"object","properties":{"product_name":{"type":"string"},"price":{"type":"number"}},"required":["product_name","price"]}`

func openLibrary(domains ...string) *mock.BlueprintLibrary {
	set := make(map[string]*structura.Blueprint, len(domains))
	for _, d := range domains {
		set[d] = &structura.Blueprint{
			Domain:     d,
			Visibility: structura.VisibilityOpen,
			Schema:     []byte(productSchema),
		}
	}
	return &mock.BlueprintLibrary{
		OpenBlueprintFn: func(domain string) (*structura.Blueprint, bool) {
			bp, ok := set[domain]
			return bp, ok
		},
		DomainsFn: func() []string { return domains },
	}
}

func allowAll() *mock.Authorizer {
	return &mock.Authorizer{
		AuthorizeFn: func(context.Context, string, string) error { return nil },
	}
}

func TestResolver_OpenBlueprint_NeverAuthorizes(t *testing.T) {
	t.Parallel()

	auth := &mock.Authorizer{
		AuthorizeFn: func(context.Context, string, string) error {
			t.Fatal("authorizer must not be called for open blueprints")
			return nil
		},
	}
	store := &mock.BlueprintStore{
		GetBlueprintDocumentFn: func(context.Context, string) (*structura.BlueprintDocument, error) {
			t.Fatal("store must not be called for open blueprints")
			return nil, nil
		},
	}
	resolver := extract.NewResolver(openLibrary("e-commerce"), store, auth)

	bp, err := resolver.ResolveBlueprint(context.Background(), "e-commerce", "", "")

	require.NoError(t, err)
	assert.Equal(t, structura.VisibilityOpen, bp.Visibility)
	assert.Equal(t, structura.DefaultSchemaVersion, bp.SchemaVersion)
}

func TestResolver_Protected_AuthorizesBeforeStore(t *testing.T) {
	t.Parallel()

	auth := &mock.Authorizer{
		AuthorizeFn: func(_ context.Context, apiKey, domain string) error {
			assert.Equal(t, "sk-1", apiKey)
			assert.Equal(t, "medical", domain)
			return structura.Errorf(structura.EFORBIDDEN, "not authorized")
		},
	}
	store := &mock.BlueprintStore{
		GetBlueprintDocumentFn: func(context.Context, string) (*structura.BlueprintDocument, error) {
			t.Fatal("store must not be consulted for unauthorized requests")
			return nil, nil
		},
	}
	resolver := extract.NewResolver(openLibrary(), store, auth)

	_, err := resolver.ResolveBlueprint(context.Background(), "medical", "v1", "sk-1")

	require.Error(t, err)
	assert.Equal(t, structura.EFORBIDDEN, structura.ErrorCode(err))
}

func TestResolver_Protected_FetchesAndParses(t *testing.T) {
	t.Parallel()

	store := &mock.BlueprintStore{
		GetBlueprintDocumentFn: func(_ context.Context, domain string) (*structura.BlueprintDocument, error) {
			return &structura.BlueprintDocument{Domain: domain, Schema: productSchema}, nil
		},
	}
	resolver := extract.NewResolver(openLibrary(), store, allowAll())

	bp, err := resolver.ResolveBlueprint(context.Background(), "medical", "v1", "sk-1")

	require.NoError(t, err)
	assert.Equal(t, structura.VisibilityProtected, bp.Visibility)
	assert.Equal(t, "medical", bp.Domain)
	assert.JSONEq(t, productSchema, string(bp.Schema))
}

func TestResolver_Protected_UnknownDomain(t *testing.T) {
	t.Parallel()

	store := &mock.BlueprintStore{
		GetBlueprintDocumentFn: func(context.Context, string) (*structura.BlueprintDocument, error) {
			return nil, structura.Errorf(structura.ENOTFOUND, "no document")
		},
	}
	resolver := extract.NewResolver(openLibrary(), store, allowAll())

	_, err := resolver.ResolveBlueprint(context.Background(), "astrology", "v1", "sk-1")

	require.Error(t, err)
	assert.Equal(t, structura.ENOTFOUND, structura.ErrorCode(err))
	assert.Contains(t, structura.ErrorMessage(err), "astrology")
}

func TestResolver_Protected_MalformedSchemaIsUnavailable(t *testing.T) {
	t.Parallel()

	store := &mock.BlueprintStore{
		GetBlueprintDocumentFn: func(_ context.Context, domain string) (*structura.BlueprintDocument, error) {
			return &structura.BlueprintDocument{Domain: domain, Schema: "{not json"}, nil
		},
	}
	resolver := extract.NewResolver(openLibrary(), store, allowAll())

	_, err := resolver.ResolveBlueprint(context.Background(), "medical", "v1", "sk-1")

	require.Error(t, err)
	assert.Equal(t, structura.EUNAVAILABLE, structura.ErrorCode(err))
	assert.Contains(t, structura.ErrorMessage(err), "malformed schema")
}

func TestResolver_Protected_CachesResolutions(t *testing.T) {
	t.Parallel()

	calls := 0
	store := &mock.BlueprintStore{
		GetBlueprintDocumentFn: func(_ context.Context, domain string) (*structura.BlueprintDocument, error) {
			calls++
			return &structura.BlueprintDocument{Domain: domain, Schema: productSchema}, nil
		},
	}
	resolver := extract.NewResolver(openLibrary(), store, allowAll(),
		extract.WithBlueprintTTL(time.Minute, time.Hour))

	_, err := resolver.ResolveBlueprint(context.Background(), "medical", "v1", "sk-1")
	require.NoError(t, err)
	_, err = resolver.ResolveBlueprint(context.Background(), "medical", "v1", "sk-1")
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "second resolution should be served from cache")
}

func TestResolver_Protected_CacheHitStillAuthorizes(t *testing.T) {
	t.Parallel()

	store := &mock.BlueprintStore{
		GetBlueprintDocumentFn: func(_ context.Context, domain string) (*structura.BlueprintDocument, error) {
			return &structura.BlueprintDocument{Domain: domain, Schema: productSchema}, nil
		},
	}
	authorized := true
	auth := &mock.Authorizer{
		AuthorizeFn: func(context.Context, string, string) error {
			if !authorized {
				return structura.Errorf(structura.EFORBIDDEN, "key revoked")
			}
			return nil
		},
	}
	resolver := extract.NewResolver(openLibrary(), store, auth,
		extract.WithBlueprintTTL(time.Minute, time.Hour))

	_, err := resolver.ResolveBlueprint(context.Background(), "medical", "v1", "sk-1")
	require.NoError(t, err)

	authorized = false
	_, err = resolver.ResolveBlueprint(context.Background(), "medical", "v1", "sk-1")

	require.Error(t, err, "cached blueprints must still be gated by authorization")
	assert.Equal(t, structura.EFORBIDDEN, structura.ErrorCode(err))
}

func TestResolver_Protected_StaleFallbackOnStoreError(t *testing.T) {
	t.Parallel()

	healthy := true
	store := &mock.BlueprintStore{
		GetBlueprintDocumentFn: func(_ context.Context, domain string) (*structura.BlueprintDocument, error) {
			if !healthy {
				return nil, structura.Errorf(structura.EUNAVAILABLE, "connection refused")
			}
			return &structura.BlueprintDocument{Domain: domain, Schema: productSchema}, nil
		},
	}
	// Fresh TTL of zero forces a store round trip on every request while the
	// stale TTL keeps the entry usable as a fallback.
	resolver := extract.NewResolver(openLibrary(), store, allowAll(),
		extract.WithBlueprintTTL(0, time.Hour))

	_, err := resolver.ResolveBlueprint(context.Background(), "medical", "v1", "sk-1")
	require.NoError(t, err)

	healthy = false
	bp, err := resolver.ResolveBlueprint(context.Background(), "medical", "v1", "sk-1")

	require.NoError(t, err, "a still-valid cached entry should be served during an outage")
	assert.JSONEq(t, productSchema, string(bp.Schema))
}

func TestResolver_Protected_UncachedMissDuringOutage(t *testing.T) {
	t.Parallel()

	store := &mock.BlueprintStore{
		GetBlueprintDocumentFn: func(context.Context, string) (*structura.BlueprintDocument, error) {
			return nil, structura.Errorf(structura.EUNAVAILABLE, "connection refused")
		},
	}
	resolver := extract.NewResolver(openLibrary(), store, allowAll())

	_, err := resolver.ResolveBlueprint(context.Background(), "medical", "v1", "sk-1")

	require.Error(t, err)
	assert.Equal(t, structura.EUNAVAILABLE, structura.ErrorCode(err))
}
