// Package redis implements the remote blueprint and API key stores on top
// of Redis. Protected blueprint documents and key records are stored as
// JSON values under prefixed keys, written by the registry service that
// owns them; this process only reads.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/fwojciec/structura"
	"github.com/redis/go-redis/v9"
)

// Key prefixes for the two record kinds.
const (
	DefaultBlueprintPrefix = "blueprint:"
	DefaultAPIKeyPrefix    = "apikey:"
)

// Ensure Store implements both store interfaces at compile time.
var (
	_ structura.BlueprintStore = (*Store)(nil)
	_ structura.APIKeyStore    = (*Store)(nil)
)

// Store reads blueprint documents and API key records from Redis.
type Store struct {
	client          *redis.Client
	blueprintPrefix string
	apiKeyPrefix    string
}

// Option configures a Store.
type Option func(*Store)

// WithBlueprintPrefix overrides the key prefix for blueprint documents.
func WithBlueprintPrefix(prefix string) Option {
	return func(s *Store) { s.blueprintPrefix = prefix }
}

// WithAPIKeyPrefix overrides the key prefix for API key records.
func WithAPIKeyPrefix(prefix string) Option {
	return func(s *Store) { s.apiKeyPrefix = prefix }
}

// NewStore creates a Store backed by client.
func NewStore(client *redis.Client, opts ...Option) *Store {
	s := &Store{
		client:          client,
		blueprintPrefix: DefaultBlueprintPrefix,
		apiKeyPrefix:    DefaultAPIKeyPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// blueprintRecord is the stored shape of a protected blueprint document.
// Schema is a JSON-encoded string, kept opaque here and parsed downstream.
type blueprintRecord struct {
	Schema string `json:"schema"`
}

// GetBlueprintDocument retrieves the document stored for a domain.
func (s *Store) GetBlueprintDocument(ctx context.Context, domain string) (*structura.BlueprintDocument, error) {
	raw, err := s.client.Get(ctx, s.blueprintPrefix+domain).Result()
	if errors.Is(err, redis.Nil) {
		return nil, structura.Errorf(structura.ENOTFOUND, "no blueprint document for domain %q", domain)
	}
	if err != nil {
		return nil, structura.Errorf(structura.EUNAVAILABLE, "blueprint store unreachable: %s", err)
	}

	var rec blueprintRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, structura.Errorf(structura.EUNAVAILABLE, "malformed blueprint document for domain %q: %s", domain, err)
	}
	return &structura.BlueprintDocument{Domain: domain, Schema: rec.Schema}, nil
}

// apiKeyRecord is the stored shape of a key registry entry.
type apiKeyRecord struct {
	Active         bool     `json:"active"`
	AllowedDomains []string `json:"allowed_domains"`
	CreatedAt      string   `json:"created_at"`
	ExpiresAt      string   `json:"expires_at"`
}

// GetAPIKey retrieves the record for a raw key string.
func (s *Store) GetAPIKey(ctx context.Context, key string) (*structura.APIKeyRecord, error) {
	raw, err := s.client.Get(ctx, s.apiKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, structura.Errorf(structura.ENOTFOUND, "unknown API key")
	}
	if err != nil {
		return nil, structura.Errorf(structura.EUNAVAILABLE, "key registry unreachable: %s", err)
	}

	var rec apiKeyRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, structura.Errorf(structura.EUNAVAILABLE, "malformed API key record: %s", err)
	}

	out := &structura.APIKeyRecord{
		Key:            key,
		Active:         rec.Active,
		AllowedDomains: rec.AllowedDomains,
	}
	if rec.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339, rec.CreatedAt); err == nil {
			out.CreatedAt = t
		}
	}
	if rec.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, rec.ExpiresAt)
		if err != nil {
			return nil, structura.Errorf(structura.EUNAVAILABLE, "malformed API key expiry %q", rec.ExpiresAt)
		}
		out.ExpiresAt = &t
	}
	return out, nil
}

// Ping verifies connectivity to the store.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return structura.Errorf(structura.EUNAVAILABLE, "redis unreachable: %s", err)
	}
	return nil
}
