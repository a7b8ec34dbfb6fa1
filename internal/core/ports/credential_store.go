package ports

import (
	"context"

	"github.com/nestmarket/session-gateway/internal/core/domain"
)

// TierStore persists one credential per key in a single storage tier.
// Put and Delete must touch the token and the user record together.
type TierStore interface {
	// Get returns the stored credential. found is false when the key holds
	// nothing.
	Get(ctx context.Context, key string) (cred domain.Credential, found bool, err error)
	Put(ctx context.Context, key string, cred domain.Credential) error
	// Delete is idempotent: deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
