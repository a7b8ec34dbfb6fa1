// Package memory provides an in-process credential tier for development
// and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/nestmarket/session-gateway/internal/core/domain"
)

// Tier is a credential tier held in a map. Entries can be given a TTL to
// mimic an expiring store.
type Tier struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

type entry struct {
	cred    domain.Credential
	expires time.Time // zero means never
}

// NewTier returns an empty tier. ttl <= 0 keeps entries until deleted.
func NewTier(ttl time.Duration) *Tier {
	return &Tier{entries: make(map[string]entry), ttl: ttl, now: time.Now}
}

func (t *Tier) Get(_ context.Context, key string) (domain.Credential, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[key]
	if !ok {
		return domain.Credential{}, false, nil
	}
	if !e.expires.IsZero() && !t.now().Before(e.expires) {
		delete(t.entries, key)
		return domain.Credential{}, false, nil
	}
	return e.cred, true, nil
}

func (t *Tier) Put(_ context.Context, key string, cred domain.Credential) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := entry{cred: cred}
	if t.ttl > 0 {
		e.expires = t.now().Add(t.ttl)
	}
	t.entries[key] = e
	return nil
}

func (t *Tier) Delete(_ context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, key)
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (t *Tier) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
