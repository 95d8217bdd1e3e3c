package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/fwojciec/structura"
	"github.com/fwojciec/structura/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*redis.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redis.NewStore(client), mr
}

func TestStore_GetBlueprintDocument(t *testing.T) {
	t.Parallel()

	s, mr := newStore(t)
	require.NoError(t, mr.Set("blueprint:legal", `{"schema":"{\"type\":\"object\"}"}`))

	doc, err := s.GetBlueprintDocument(context.Background(), "legal")

	require.NoError(t, err)
	assert.Equal(t, "legal", doc.Domain)
	assert.JSONEq(t, `{"type":"object"}`, doc.Schema)
}

func TestStore_GetBlueprintDocument_NotFound(t *testing.T) {
	t.Parallel()

	s, _ := newStore(t)

	_, err := s.GetBlueprintDocument(context.Background(), "missing")

	require.Error(t, err)
	assert.Equal(t, structura.ENOTFOUND, structura.ErrorCode(err))
}

func TestStore_GetBlueprintDocument_Unreachable(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	s := redis.NewStore(client)
	mr.Close()

	_, err := s.GetBlueprintDocument(context.Background(), "legal")

	require.Error(t, err)
	assert.Equal(t, structura.EUNAVAILABLE, structura.ErrorCode(err))
}

func TestStore_GetBlueprintDocument_CustomPrefix(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	s := redis.NewStore(client, redis.WithBlueprintPrefix("bp/"))
	require.NoError(t, mr.Set("bp/legal", `{"schema":"{}"}`))

	doc, err := s.GetBlueprintDocument(context.Background(), "legal")

	require.NoError(t, err)
	assert.Equal(t, "{}", doc.Schema)
}

func TestStore_GetAPIKey(t *testing.T) {
	t.Parallel()

	s, mr := newStore(t)
	require.NoError(t, mr.Set("apikey:sk-good",
		`{"active":true,"allowed_domains":["legal","*"],"created_at":"2026-01-02T15:04:05Z","expires_at":"2027-01-02T15:04:05Z"}`))

	rec, err := s.GetAPIKey(context.Background(), "sk-good")

	require.NoError(t, err)
	assert.Equal(t, "sk-good", rec.Key)
	assert.True(t, rec.Active)
	assert.Equal(t, []string{"legal", "*"}, rec.AllowedDomains)
	assert.Equal(t, time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC), rec.CreatedAt)
	require.NotNil(t, rec.ExpiresAt)
	assert.Equal(t, time.Date(2027, 1, 2, 15, 4, 5, 0, time.UTC), *rec.ExpiresAt)
}

func TestStore_GetAPIKey_NoExpiry(t *testing.T) {
	t.Parallel()

	s, mr := newStore(t)
	require.NoError(t, mr.Set("apikey:sk-forever", `{"active":true,"allowed_domains":["*"]}`))

	rec, err := s.GetAPIKey(context.Background(), "sk-forever")

	require.NoError(t, err)
	assert.Nil(t, rec.ExpiresAt)
}

func TestStore_GetAPIKey_NotFound(t *testing.T) {
	t.Parallel()

	s, _ := newStore(t)

	_, err := s.GetAPIKey(context.Background(), "sk-unknown")

	require.Error(t, err)
	assert.Equal(t, structura.ENOTFOUND, structura.ErrorCode(err))
}

func TestStore_GetAPIKey_MalformedRecord(t *testing.T) {
	t.Parallel()

	s, mr := newStore(t)
	require.NoError(t, mr.Set("apikey:sk-bad", `not json`))

	_, err := s.GetAPIKey(context.Background(), "sk-bad")

	require.Error(t, err)
	assert.Equal(t, structura.EUNAVAILABLE, structura.ErrorCode(err))
}

func TestStore_Ping(t *testing.T) {
	t.Parallel()

	s, mr := newStore(t)
	require.NoError(t, s.Ping(context.Background()))

	mr.Close()
	err := s.Ping(context.Background())
	require.Error(t, err)
	assert.Equal(t, structura.EUNAVAILABLE, structura.ErrorCode(err))
}
