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

func TestAccess_Authorize_MissingKey(t *testing.T) {
	t.Parallel()

	store := &mock.APIKeyStore{
		GetAPIKeyFn: func(context.Context, string) (*structura.APIKeyRecord, error) {
			t.Fatal("registry must not be called without a key")
			return nil, nil
		},
	}
	access := extract.NewAccess(store)

	err := access.Authorize(context.Background(), "", "medical")

	require.Error(t, err)
	assert.Equal(t, structura.EUNAUTHENTICATED, structura.ErrorCode(err))
	assert.Contains(t, structura.ErrorMessage(err), "requires an API key")
}

func TestAccess_Authorize_UnknownKey(t *testing.T) {
	t.Parallel()

	store := &mock.APIKeyStore{
		GetAPIKeyFn: func(context.Context, string) (*structura.APIKeyRecord, error) {
			return nil, structura.Errorf(structura.ENOTFOUND, "no such key")
		},
	}
	access := extract.NewAccess(store)

	err := access.Authorize(context.Background(), "sk-unknown", "medical")

	require.Error(t, err)
	assert.Equal(t, structura.EUNAUTHENTICATED, structura.ErrorCode(err))
}

func TestAccess_Authorize_InactiveKey(t *testing.T) {
	t.Parallel()

	store := keyStore(&structura.APIKeyRecord{Active: false, AllowedDomains: []string{"medical"}})
	access := extract.NewAccess(store)

	err := access.Authorize(context.Background(), "sk-1", "medical")

	require.Error(t, err)
	assert.Equal(t, structura.EFORBIDDEN, structura.ErrorCode(err))
	assert.Contains(t, structura.ErrorMessage(err), "inactive")
}

func TestAccess_Authorize_ExpiredKey(t *testing.T) {
	t.Parallel()

	expired := time.Now().Add(-time.Hour)
	store := keyStore(&structura.APIKeyRecord{
		Active:         true,
		AllowedDomains: []string{"medical"},
		ExpiresAt:      &expired,
	})
	access := extract.NewAccess(store)

	err := access.Authorize(context.Background(), "sk-1", "medical")

	require.Error(t, err)
	assert.Equal(t, structura.EFORBIDDEN, structura.ErrorCode(err))
	assert.Contains(t, structura.ErrorMessage(err), "expired")
}

func TestAccess_Authorize_DomainNotAllowed(t *testing.T) {
	t.Parallel()

	store := keyStore(&structura.APIKeyRecord{Active: true, AllowedDomains: []string{"legal"}})
	access := extract.NewAccess(store)

	err := access.Authorize(context.Background(), "sk-1", "medical")

	require.Error(t, err)
	assert.Equal(t, structura.EFORBIDDEN, structura.ErrorCode(err))
	assert.Contains(t, structura.ErrorMessage(err), "not authorized for domain")
}

func TestAccess_Authorize_WildcardDomain(t *testing.T) {
	t.Parallel()

	store := keyStore(&structura.APIKeyRecord{Active: true, AllowedDomains: []string{"*"}})
	access := extract.NewAccess(store)

	assert.NoError(t, access.Authorize(context.Background(), "sk-1", "medical"))
	assert.NoError(t, access.Authorize(context.Background(), "sk-1", "legal"))
}

func TestAccess_Authorize_CachesRecords(t *testing.T) {
	t.Parallel()

	calls := 0
	store := &mock.APIKeyStore{
		GetAPIKeyFn: func(context.Context, string) (*structura.APIKeyRecord, error) {
			calls++
			return &structura.APIKeyRecord{Active: true, AllowedDomains: []string{"medical"}}, nil
		},
	}
	access := extract.NewAccess(store, extract.WithKeyTTL(time.Minute))

	require.NoError(t, access.Authorize(context.Background(), "sk-1", "medical"))
	require.NoError(t, access.Authorize(context.Background(), "sk-1", "medical"))

	assert.Equal(t, 1, calls, "second authorization should hit the record cache")
}

func TestAccess_Authorize_RegistryUnavailable(t *testing.T) {
	t.Parallel()

	store := &mock.APIKeyStore{
		GetAPIKeyFn: func(context.Context, string) (*structura.APIKeyRecord, error) {
			return nil, structura.Errorf(structura.EUNAVAILABLE, "connection refused")
		},
	}
	access := extract.NewAccess(store)

	err := access.Authorize(context.Background(), "sk-1", "medical")

	require.Error(t, err)
	assert.Equal(t, structura.EUNAVAILABLE, structura.ErrorCode(err))
}

func keyStore(rec *structura.APIKeyRecord) *mock.APIKeyStore {
	return &mock.APIKeyStore{
		GetAPIKeyFn: func(context.Context, string) (*structura.APIKeyRecord, error) {
			return rec, nil
		},
	}
}
