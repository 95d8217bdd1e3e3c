package structura

import (
	"context"
	"time"
)

// WildcardDomain grants an API key access to every protected domain.
const WildcardDomain = "*"

// APIKeyRecord is a key registry entry. The registry owns these records;
// this process only ever reads them.
type APIKeyRecord struct {
	Key            string     `json:"key"`
	Active         bool       `json:"active"`
	AllowedDomains []string   `json:"allowedDomains"`
	CreatedAt      time.Time  `json:"createdAt"`
	ExpiresAt      *time.Time `json:"expiresAt"`
}

// AllowsDomain reports whether the record grants access to a domain,
// either explicitly or through the wildcard.
func (r *APIKeyRecord) AllowsDomain(domain string) bool {
	for _, d := range r.AllowedDomains {
		if d == WildcardDomain || d == domain {
			return true
		}
	}
	return false
}

// Expired reports whether the record has an expiry in the past.
func (r *APIKeyRecord) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && r.ExpiresAt.Before(now)
}

// APIKeyStore reads key records from the remote key registry.
type APIKeyStore interface {
	// GetAPIKey retrieves the record for a raw key string.
	// Returns ENOTFOUND if the key is unknown and EUNAVAILABLE when the
	// registry cannot be reached.
	GetAPIKey(ctx context.Context, key string) (*APIKeyRecord, error)
}

// Authorizer decides whether an API key may access a protected domain.
type Authorizer interface {
	// Authorize returns nil when apiKey is active, unexpired and allowed
	// for domain. Returns EUNAUTHENTICATED for a missing or unknown key
	// and EFORBIDDEN for an inactive, expired or unauthorized one.
	Authorize(ctx context.Context, apiKey, domain string) error
}
