package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/nestmarket/session-gateway/internal/core/domain"
)

func newTestTier(t *testing.T, ttl time.Duration) (*EphemeralTier, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewEphemeralTier(client, ttl), mr
}

func TestEphemeralTier_PutGetDelete(t *testing.T) {
	tier, mr := newTestTier(t, time.Hour)
	ctx := context.Background()

	if _, found, err := tier.Get(ctx, "k"); found || err != nil {
		t.Fatalf("expected empty tier, found=%v err=%v", found, err)
	}

	cred := domain.Credential{Token: "abc", UserJSON: `{"id":"u-1"}`}
	if err := tier.Put(ctx, "k", cred); err != nil {
		t.Fatalf("put: %v", err)
	}
	if got := mr.HGet("cred:k", "token"); got != "abc" {
		t.Fatalf("expected token in hash cred:k, got %q", got)
	}
	if ttl := mr.TTL("cred:k"); ttl != time.Hour {
		t.Fatalf("expected a 1h ttl, got %s", ttl)
	}
	got, found, err := tier.Get(ctx, "k")
	if err != nil || !found || got != cred {
		t.Fatalf("get = %+v, %v, %v", got, found, err)
	}

	if err := tier.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := tier.Delete(ctx, "k"); err != nil {
		t.Fatalf("second delete should be a no-op, got %v", err)
	}
	if mr.Exists("cred:k") {
		t.Fatalf("expected the hash to be gone")
	}
}

func TestEphemeralTier_PutReplacesHashAndRefreshesTTL(t *testing.T) {
	tier, mr := newTestTier(t, time.Hour)
	ctx := context.Background()

	mr.HSet("cred:k", "token", "old", "stale", "leftover")
	mr.SetTTL("cred:k", time.Minute)

	if err := tier.Put(ctx, "k", domain.Credential{Token: "new", UserJSON: "{}"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if keys, _ := mr.HKeys("cred:k"); len(keys) != 2 {
		t.Fatalf("expected only token and user fields, got %v", keys)
	}
	if got := mr.HGet("cred:k", "token"); got != "new" {
		t.Fatalf("expected replaced token, got %q", got)
	}
	if ttl := mr.TTL("cred:k"); ttl != time.Hour {
		t.Fatalf("expected the ttl to be refreshed, got %s", ttl)
	}
}

func TestEphemeralTier_ExpiresAfterTTL(t *testing.T) {
	tier, mr := newTestTier(t, 0)
	ctx := context.Background()

	if err := tier.Put(ctx, "k", domain.Credential{Token: "abc", UserJSON: "{}"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if ttl := mr.TTL("cred:k"); ttl != DefaultEphemeralTTL {
		t.Fatalf("expected the default ttl, got %s", ttl)
	}

	mr.FastForward(DefaultEphemeralTTL + time.Second)
	if _, found, err := tier.Get(ctx, "k"); found || err != nil {
		t.Fatalf("expected the credential to expire, found=%v err=%v", found, err)
	}
}

func TestEphemeralTier_ReportsBackendErrors(t *testing.T) {
	tier, mr := newTestTier(t, time.Hour)
	ctx := context.Background()

	mr.SetError("ERR server unavailable")
	if _, _, err := tier.Get(ctx, "k"); err == nil {
		t.Fatalf("expected get to fail")
	}
	if err := tier.Put(ctx, "k", domain.Credential{Token: "abc"}); err == nil {
		t.Fatalf("expected put to fail")
	}
	if err := tier.Delete(ctx, "k"); err == nil {
		t.Fatalf("expected delete to fail")
	}
}
