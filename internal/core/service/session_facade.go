package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/nestmarket/session-gateway/internal/api/metrics"
	"github.com/nestmarket/session-gateway/internal/core/domain"
)

// RoleListener observes role transitions.
type RoleListener func(from, to domain.Role)

// SessionFacade is the single entry point for one browsing client: it owns
// the current role cell, the bookmark set and the client's feed poller.
//
// Role is recomputed from the stored account type on every load. Setting
// the role to Guest clears the credential store; there is no guest state
// that still holds credentials.
type SessionFacade struct {
	key     domain.ClientKey
	store   *CredentialStore
	poller  *FeedPoller
	handoff *Handoff
	log     zerolog.Logger

	bookmarks *BookmarkSet

	mu      sync.Mutex
	session domain.Session
	role    domain.Role

	subMu     sync.Mutex
	nextSubID int
	subs      map[int]RoleListener
}

// NewSessionFacade loads the client's session and resolves its role once.
// The poller starts right away when the loaded session is valid.
func NewSessionFacade(ctx context.Context, key domain.ClientKey, store *CredentialStore, poller *FeedPoller, handoff *Handoff, log zerolog.Logger) *SessionFacade {
	f := &SessionFacade{
		key:       key,
		store:     store,
		poller:    poller,
		handoff:   handoff,
		log:       log.With().Str("component", "session").Str("device", shortID(key.Device)).Logger(),
		bookmarks: NewBookmarkSet(),
		subs:      make(map[int]RoleListener),
	}

	f.mu.Lock()
	f.session = store.Load(ctx, key)
	f.role = f.session.Role()
	f.syncPollerLocked()
	f.mu.Unlock()

	f.log.Debug().Str("role", f.role.String()).Str("tier", string(f.session.Tier)).Msg("session loaded")
	return f
}

// Role returns the current role.
func (f *SessionFacade) Role() domain.Role {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.role
}

// Session returns a copy of the loaded session.
func (f *SessionFacade) Session() domain.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session.Clone()
}

// Key returns the client this façade serves.
func (f *SessionFacade) Key() domain.ClientKey { return f.key }

// Login records a session produced by the login flow in tier and removes
// any credential held by the other tier.
func (f *SessionFacade) Login(ctx context.Context, token string, user *domain.UserRecord, tier domain.Tier) error {
	if user == nil {
		return fmt.Errorf("login: %w", domain.ErrNilUser)
	}
	u := *user
	next := domain.Session{Token: token, User: &u, Tier: tier}

	f.mu.Lock()
	if err := f.store.Promote(ctx, f.key, next, tier); err != nil {
		f.mu.Unlock()
		return fmt.Errorf("login: %w", err)
	}
	from := f.role
	f.session = next
	f.role = next.Role()
	to := f.role
	f.syncPollerLocked()
	f.mu.Unlock()

	metrics.LoginsTotal.WithLabelValues(string(tier)).Inc()
	f.log.Info().Str("role", to.String()).Str("tier", string(tier)).Msg("login recorded")
	f.publish(from, to)
	return nil
}

// UpdateUser rewrites the user record in the tier that holds the session.
func (f *SessionFacade) UpdateUser(ctx context.Context, user *domain.UserRecord) error {
	if user == nil {
		return fmt.Errorf("update user: %w", domain.ErrNilUser)
	}
	u := *user

	f.mu.Lock()
	if !f.session.HasToken() {
		f.mu.Unlock()
		return fmt.Errorf("update user: %w", domain.ErrNoSession)
	}
	next := domain.Session{Token: f.session.Token, User: &u, Tier: f.session.Tier}
	if err := f.store.Save(ctx, f.key, next, next.Tier); err != nil {
		f.mu.Unlock()
		return fmt.Errorf("update user: %w", err)
	}
	from := f.role
	f.session = next
	f.role = next.Role()
	to := f.role
	f.syncPollerLocked()
	f.mu.Unlock()

	f.publish(from, to)
	return nil
}

// SetRole assigns the role cell. Guest is the post-logout state: the
// poller stops and both credential tiers are cleared. Any other role needs
// a session token.
func (f *SessionFacade) SetRole(ctx context.Context, role domain.Role) error {
	if _, ok := domain.ParseRole(string(role)); !ok {
		return fmt.Errorf("set role %q: %w", role, domain.ErrInvalidRole)
	}

	f.mu.Lock()
	from := f.role
	if role == domain.RoleGuest {
		f.resetLocked(ctx)
	} else {
		if !f.session.HasToken() {
			f.mu.Unlock()
			return fmt.Errorf("set role %q: %w", role, domain.ErrNoSession)
		}
		f.role = role
		f.syncPollerLocked()
	}
	f.mu.Unlock()

	f.publish(from, role)
	return nil
}

// resetLocked performs the local half of logout. It always completes, even
// when a tier cannot be cleared.
func (f *SessionFacade) resetLocked(ctx context.Context) {
	f.poller.Stop()
	if err := f.store.Clear(ctx, f.key); err != nil {
		f.log.Error().Err(err).Msg("credential clear incomplete")
	}
	f.session = domain.Session{}
	f.role = domain.RoleGuest
	metrics.LogoutsTotal.Inc()
}

// Logout tells the management app to drop its session and then moves to
// Guest. The remote half is fire-and-forget and never delays the local one.
func (f *SessionFacade) Logout(ctx context.Context) error {
	if f.handoff != nil {
		f.handoff.Logout(ctx, f.key.Device)
	}
	f.log.Info().Msg("logout")
	return f.SetRole(ctx, domain.RoleGuest)
}

// Reload re-reads the credential store, picking up logins and logouts made
// by other tabs on the same device, and returns the resulting role. When a
// tier cannot be read the in-memory session is kept as it was.
func (f *SessionFacade) Reload(ctx context.Context) domain.Role {
	f.mu.Lock()
	from := f.role
	next, err := f.store.LoadChecked(ctx, f.key)
	if err != nil {
		f.mu.Unlock()
		f.log.Debug().Err(err).Msg("reload skipped, keeping current session")
		return from
	}
	f.session = next
	f.role = next.Role()
	to := f.role
	f.syncPollerLocked()
	f.mu.Unlock()

	if from != to {
		f.log.Info().Str("from", from.String()).Str("to", to.String()).Msg("session changed in another tab")
	}
	f.publish(from, to)
	return to
}

// HandoffURL returns the login transfer URL for the current token.
func (f *SessionFacade) HandoffURL() (string, error) {
	f.mu.Lock()
	token := f.session.Token
	f.mu.Unlock()
	if token == "" {
		return "", domain.ErrNoSession
	}
	return f.handoff.LoginURL(token)
}

// Feed returns the current notification feed.
func (f *SessionFacade) Feed() domain.FeedState {
	return f.poller.Snapshot()
}

// MarkNotificationRead marks id on the server and reconciles the feed.
func (f *SessionFacade) MarkNotificationRead(ctx context.Context, id string) error {
	if !f.Role().Authenticated() {
		return domain.ErrNoSession
	}
	return f.poller.MarkAsRead(ctx, id)
}

func (f *SessionFacade) HasBookmark(id string) bool { return f.bookmarks.Has(id) }

func (f *SessionFacade) ToggleBookmark(id string) bool { return f.bookmarks.Toggle(id) }

func (f *SessionFacade) Bookmarks() []string { return f.bookmarks.IDs() }

// Subscribe registers fn for role transitions and returns its cancel func.
func (f *SessionFacade) Subscribe(fn RoleListener) (unsubscribe func()) {
	f.subMu.Lock()
	id := f.nextSubID
	f.nextSubID++
	f.subs[id] = fn
	f.subMu.Unlock()

	return func() {
		f.subMu.Lock()
		delete(f.subs, id)
		f.subMu.Unlock()
	}
}

// Close stops background work. The stored session is kept.
func (f *SessionFacade) Close() {
	f.poller.Stop()
}

// syncPollerLocked ties the poller to session validity: polling runs iff a
// token is present and the role is not Guest.
func (f *SessionFacade) syncPollerLocked() {
	if f.session.HasToken() && f.role.Authenticated() {
		f.poller.Start(f.session.Token)
		return
	}
	f.poller.Stop()
}

func (f *SessionFacade) publish(from, to domain.Role) {
	if from == to {
		return
	}
	f.subMu.Lock()
	listeners := make([]RoleListener, 0, len(f.subs))
	for _, fn := range f.subs {
		listeners = append(listeners, fn)
	}
	f.subMu.Unlock()

	for _, fn := range listeners {
		fn(from, to)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
