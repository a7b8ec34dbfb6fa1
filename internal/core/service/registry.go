package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nestmarket/session-gateway/internal/api/metrics"
	"github.com/nestmarket/session-gateway/internal/core/domain"
	"github.com/nestmarket/session-gateway/internal/core/ports"
	"github.com/nestmarket/session-gateway/internal/pkg/clock"
)

const (
	defaultIdleTimeout = 30 * time.Minute
	sweepInterval      = time.Minute
)

// RegistryConfig wires what every façade needs.
type RegistryConfig struct {
	Store         *CredentialStore
	Notifications ports.NotificationService
	Handoff       *Handoff
	Poller        PollerConfig
	IdleTimeout   time.Duration
	Clock         clock.Clock
}

// Registry holds one SessionFacade per browsing client. Façades are created
// on first use and closed after sitting idle for IdleTimeout.
type Registry struct {
	cfg RegistryConfig
	log zerolog.Logger

	mu      sync.Mutex
	entries map[domain.ClientKey]*registryEntry
	ticker  *clock.Ticker
	done    chan struct{}
}

// registryEntry is published in the map before its façade is built;
// facade and unsub are valid once ready is closed.
type registryEntry struct {
	ready    chan struct{}
	facade   *SessionFacade
	lastUsed time.Time
	unsub    func()
}

func NewRegistry(cfg RegistryConfig, log zerolog.Logger) *Registry {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}
	return &Registry{
		cfg:     cfg,
		log:     log.With().Str("component", "registry").Logger(),
		entries: make(map[domain.ClientKey]*registryEntry),
	}
}

// Start launches the idle sweeper. It stops when ctx is cancelled or Close
// is called.
func (r *Registry) Start(ctx context.Context) {
	r.mu.Lock()
	if r.ticker != nil {
		r.mu.Unlock()
		return
	}
	r.ticker = r.cfg.Clock.NewTicker(sweepInterval)
	r.done = make(chan struct{})
	ticker, done := r.ticker, r.done
	r.mu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				if n := r.Sweep(); n > 0 {
					r.log.Debug().Int("evicted", n).Msg("idle sessions evicted")
				}
			}
		}
	}()
}

// Acquire returns the client's façade. The first request from a client
// builds it from the credential store; every later request reloads it, so
// logins and logouts made by other tabs of the device are picked up.
func (r *Registry) Acquire(ctx context.Context, key domain.ClientKey) (ports.Session, error) {
	return r.Facade(ctx, key), nil
}

// Facade is Acquire with the concrete type. Store I/O happens outside the
// registry lock; concurrent first requests for one client share a build.
func (r *Registry) Facade(ctx context.Context, key domain.ClientKey) *SessionFacade {
	now := r.cfg.Clock.Now()

	r.mu.Lock()
	if e, ok := r.entries[key]; ok {
		e.lastUsed = now
		r.mu.Unlock()

		<-e.ready
		e.facade.Reload(ctx)
		return e.facade
	}
	e := &registryEntry{ready: make(chan struct{}), lastUsed: now}
	r.entries[key] = e
	r.mu.Unlock()

	r.build(ctx, key, e)
	return e.facade
}

func (r *Registry) build(ctx context.Context, key domain.ClientKey, e *registryEntry) {
	defer close(e.ready)

	poller := NewFeedPoller(r.cfg.Notifications, r.cfg.Clock, r.cfg.Poller, r.log)
	f := NewSessionFacade(ctx, key, r.cfg.Store, poller, r.cfg.Handoff, r.log)
	metrics.ActiveSessions.WithLabelValues(f.Role().String()).Inc()
	e.unsub = f.Subscribe(func(from, to domain.Role) {
		metrics.ActiveSessions.WithLabelValues(from.String()).Dec()
		metrics.ActiveSessions.WithLabelValues(to.String()).Inc()
	})
	e.facade = f
}

// Len returns the number of façades held.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep closes façades idle for longer than IdleTimeout and returns how
// many were evicted. Their stored credentials stay in place.
func (r *Registry) Sweep() int {
	cutoff := r.cfg.Clock.Now().Add(-r.cfg.IdleTimeout)

	r.mu.Lock()
	var evicted []*registryEntry
	for key, e := range r.entries {
		if e.lastUsed.Before(cutoff) {
			evicted = append(evicted, e)
			delete(r.entries, key)
		}
	}
	r.mu.Unlock()

	for _, e := range evicted {
		r.release(e)
	}
	return len(evicted)
}

// Close stops the sweeper and every façade.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.ticker != nil {
		r.ticker.Stop()
		close(r.done)
		r.ticker, r.done = nil, nil
	}
	entries := r.entries
	r.entries = make(map[domain.ClientKey]*registryEntry)
	r.mu.Unlock()

	for _, e := range entries {
		r.release(e)
	}
}

func (r *Registry) release(e *registryEntry) {
	<-e.ready
	e.unsub()
	e.facade.Close()
	metrics.ActiveSessions.WithLabelValues(e.facade.Role().String()).Dec()
}
