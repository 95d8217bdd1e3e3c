package mock

import (
	"context"

	"github.com/fwojciec/structura"
)

var _ structura.APIKeyStore = (*APIKeyStore)(nil)

// APIKeyStore is a mock implementation of structura.APIKeyStore.
type APIKeyStore struct {
	GetAPIKeyFn func(ctx context.Context, key string) (*structura.APIKeyRecord, error)
}

func (s *APIKeyStore) GetAPIKey(ctx context.Context, key string) (*structura.APIKeyRecord, error) {
	return s.GetAPIKeyFn(ctx, key)
}

var _ structura.Authorizer = (*Authorizer)(nil)

// Authorizer is a mock implementation of structura.Authorizer.
type Authorizer struct {
	AuthorizeFn func(ctx context.Context, apiKey, domain string) error
}

func (a *Authorizer) Authorize(ctx context.Context, apiKey, domain string) error {
	return a.AuthorizeFn(ctx, apiKey, domain)
}
