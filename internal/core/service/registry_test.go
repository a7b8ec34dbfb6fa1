package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/nestmarket/session-gateway/internal/core/domain"
	"github.com/nestmarket/session-gateway/internal/pkg/clock"
)

func newTestRegistry() (*Registry, *clock.FakeClock, *stubTierStore) {
	clk := clock.NewFake(epoch)
	durable := newStubTierStore()
	reg := NewRegistry(RegistryConfig{
		Store:         NewCredentialStore(durable, newStubTierStore(), zerolog.Nop()),
		Notifications: newStubNotifications(),
		Handoff:       NewHandoff("", &stubOpener{}, clk, 0, zerolog.Nop()),
		IdleTimeout:   10 * time.Minute,
		Clock:         clk,
	}, zerolog.Nop())
	return reg, clk, durable
}

func TestRegistry_AcquireReusesFacade(t *testing.T) {
	reg, _, _ := newTestRegistry()
	defer reg.Close()
	ctx := context.Background()

	a := reg.Facade(ctx, testKey)
	b := reg.Facade(ctx, testKey)
	if a != b {
		t.Fatalf("expected the same façade for the same client")
	}
	other := reg.Facade(ctx, domain.ClientKey{Device: "device-2", Tab: "tab-9"})
	if other == a {
		t.Fatalf("expected a distinct façade per client")
	}
	if reg.Len() != 2 {
		t.Fatalf("expected 2 façades, got %d", reg.Len())
	}
}

func TestRegistry_SweepEvictsIdleAndStopsPolling(t *testing.T) {
	reg, clk, _ := newTestRegistry()
	defer reg.Close()
	ctx := context.Background()

	f := reg.Facade(ctx, testKey)
	if err := f.Login(ctx, "abc", landlord(), domain.TierDurable); err != nil {
		t.Fatalf("login: %v", err)
	}
	if clk.PendingCount() != 1 {
		t.Fatalf("expected the poller ticker, got %d", clk.PendingCount())
	}

	clk.Advance(5 * time.Minute)
	reg.Facade(ctx, domain.ClientKey{Device: "device-2", Tab: "tab-2"})
	clk.Advance(6 * time.Minute)

	if n := reg.Sweep(); n != 1 {
		t.Fatalf("expected one eviction, got %d", n)
	}
	if reg.Len() != 1 {
		t.Fatalf("expected the recent façade to survive")
	}
	if f.poller.State() != PollerIdle {
		t.Fatalf("evicted façade must stop polling")
	}

	// Credentials survive eviction: the next request rebuilds the session.
	again := reg.Facade(ctx, testKey)
	if again == f || again.Role() != domain.RoleLandlord {
		t.Fatalf("expected a rebuilt landlord façade, got %s", again.Role())
	}
}

func TestRegistry_StartSweepsOnTicker(t *testing.T) {
	reg, clk, _ := newTestRegistry()
	reg.Start(context.Background())
	defer reg.Close()

	reg.Facade(context.Background(), testKey)
	clk.Advance(11 * time.Minute)

	deadline := time.Now().Add(2 * time.Second)
	for reg.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("idle façade was not swept")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRegistry_TabsShareDeviceLoginAndLogout(t *testing.T) {
	reg, _, _ := newTestRegistry()
	defer reg.Close()
	ctx := context.Background()

	tabA := domain.ClientKey{Device: "device-1", Tab: "tab-a"}
	tabB := domain.ClientKey{Device: "device-1", Tab: "tab-b"}
	a := reg.Facade(ctx, tabA)
	b := reg.Facade(ctx, tabB)
	if b.Role() != domain.RoleGuest {
		t.Fatalf("expected tab B to start as guest")
	}

	if err := a.Login(ctx, "abc", landlord(), domain.TierDurable); err != nil {
		t.Fatalf("login: %v", err)
	}
	if got := reg.Facade(ctx, tabB); got != b || got.Role() != domain.RoleLandlord {
		t.Fatalf("tab B did not pick up the durable login, role %s", got.Role())
	}
	if b.poller.State() != PollerPolling {
		t.Fatalf("tab B should poll once logged in")
	}

	if err := a.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if got := reg.Facade(ctx, tabB); got.Role() != domain.RoleGuest || got.Session().HasToken() {
		t.Fatalf("tab B kept a session after logout in tab A: %s", got.Role())
	}
	if b.poller.State() != PollerIdle {
		t.Fatalf("tab B must stop polling after logout in tab A")
	}
}

func TestRegistry_ReadFailureKeepsSession(t *testing.T) {
	reg, _, durable := newTestRegistry()
	defer reg.Close()
	ctx := context.Background()

	f := reg.Facade(ctx, testKey)
	if err := f.Login(ctx, "abc", landlord(), domain.TierDurable); err != nil {
		t.Fatalf("login: %v", err)
	}

	durable.setGetErr(errBackend)
	if got := reg.Facade(ctx, testKey); got.Role() != domain.RoleLandlord {
		t.Fatalf("a failed read must not log the client out, got %s", got.Role())
	}
	if f.poller.State() != PollerPolling {
		t.Fatalf("polling should survive a failed read")
	}
}

func TestRegistry_RecoversFromFailedFirstLoad(t *testing.T) {
	reg, _, durable := newTestRegistry()
	defer reg.Close()
	ctx := context.Background()

	if err := reg.cfg.Store.Save(ctx, testKey, domain.Session{Token: "abc", User: landlord()}, domain.TierDurable); err != nil {
		t.Fatalf("save: %v", err)
	}
	durable.setGetErr(errBackend)
	f := reg.Facade(ctx, testKey)
	if f.Role() != domain.RoleGuest {
		t.Fatalf("expected guest while the store is down, got %s", f.Role())
	}

	durable.setGetErr(nil)
	if got := reg.Facade(ctx, testKey); got != f || got.Role() != domain.RoleLandlord {
		t.Fatalf("expected the session once the store recovers, got %s", got.Role())
	}
}

func TestRegistry_SlowLoadDoesNotBlockOtherClients(t *testing.T) {
	reg, _, durable := newTestRegistry()
	defer reg.Close()
	ctx := context.Background()

	held := reg.Facade(ctx, testKey)

	slow := domain.ClientKey{Device: "device-slow", Tab: "tab-slow"}
	gate := make(chan struct{})
	durable.hold(StorageKey(domain.TierDurable, slow.Device), gate)

	first := make(chan *SessionFacade, 1)
	go func() { first <- reg.Facade(ctx, slow) }()

	deadline := time.Now().Add(2 * time.Second)
	for reg.Len() != 2 {
		if time.Now().After(deadline) {
			close(gate)
			t.Fatalf("slow client was never registered")
		}
		time.Sleep(time.Millisecond)
	}

	got := make(chan *SessionFacade, 1)
	go func() { got <- reg.Facade(ctx, testKey) }()
	select {
	case f := <-got:
		if f != held {
			close(gate)
			t.Fatalf("expected the existing façade")
		}
	case <-time.After(2 * time.Second):
		close(gate)
		t.Fatalf("acquire blocked behind another client's load")
	}

	second := make(chan *SessionFacade, 1)
	go func() { second <- reg.Facade(ctx, slow) }()
	close(gate)

	a, b := <-first, <-second
	if a == nil || a != b {
		t.Fatalf("concurrent first requests must share one façade")
	}
	if reg.Len() != 2 {
		t.Fatalf("expected 2 façades, got %d", reg.Len())
	}
}
