package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nestmarket/session-gateway/internal/core/domain"
)

const (
	// DefaultEphemeralTTL bounds how long an abandoned tab's credential lives.
	DefaultEphemeralTTL = 12 * time.Hour

	fieldToken = "token"
	fieldUser  = "user"
)

// EphemeralTier stores tab-scoped credentials as Redis hashes.
// Key format: cred:<storage key>
type EphemeralTier struct {
	client *redis.Client
	ttl    time.Duration
}

// NewEphemeralTier wraps client. ttl <= 0 uses DefaultEphemeralTTL.
func NewEphemeralTier(client *redis.Client, ttl time.Duration) *EphemeralTier {
	if ttl <= 0 {
		ttl = DefaultEphemeralTTL
	}
	return &EphemeralTier{client: client, ttl: ttl}
}

// Get returns the credential for key. A hash missing either field is
// reported as found with whatever it holds; the caller decides if that is
// corrupt.
func (t *EphemeralTier) Get(ctx context.Context, key string) (domain.Credential, bool, error) {
	vals, err := t.client.HGetAll(ctx, t.key(key)).Result()
	if err != nil {
		return domain.Credential{}, false, fmt.Errorf("ephemeral get: %w", err)
	}
	if len(vals) == 0 {
		return domain.Credential{}, false, nil
	}
	return domain.Credential{Token: vals[fieldToken], UserJSON: vals[fieldUser]}, true, nil
}

// Put replaces the hash and refreshes its TTL in one MULTI/EXEC.
func (t *EphemeralTier) Put(ctx context.Context, key string, cred domain.Credential) error {
	k := t.key(key)
	_, err := t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, k)
		pipe.HSet(ctx, k, fieldToken, cred.Token, fieldUser, cred.UserJSON)
		pipe.Expire(ctx, k, t.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("ephemeral put: %w", err)
	}
	return nil
}

// Delete drops the hash; a missing key is not an error.
func (t *EphemeralTier) Delete(ctx context.Context, key string) error {
	if err := t.client.Del(ctx, t.key(key)).Err(); err != nil {
		return fmt.Errorf("ephemeral delete: %w", err)
	}
	return nil
}

func (t *EphemeralTier) key(key string) string {
	return "cred:" + key
}
