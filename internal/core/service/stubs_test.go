package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nestmarket/session-gateway/internal/core/domain"
	"github.com/nestmarket/session-gateway/internal/core/ports"
)

var (
	epoch      = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	errBackend = errors.New("backend unavailable")
)

// ---------------------------------------------------------------------------
// Tier store
// ---------------------------------------------------------------------------

type stubTierStore struct {
	mu        sync.Mutex
	data      map[string]domain.Credential
	getErr    error
	deleteErr error
	deletes   int
	gates     map[string]chan struct{}
}

func newStubTierStore() *stubTierStore {
	return &stubTierStore{data: make(map[string]domain.Credential)}
}

func (s *stubTierStore) Get(_ context.Context, key string) (domain.Credential, bool, error) {
	s.mu.Lock()
	gate := s.gates[key]
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return domain.Credential{}, false, s.getErr
	}
	c, ok := s.data[key]
	return c, ok, nil
}

func (s *stubTierStore) Put(_ context.Context, key string, c domain.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = c
	return nil
}

func (s *stubTierStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.data, key)
	return nil
}

// hold makes reads of key wait until gate is closed.
func (s *stubTierStore) hold(key string, gate chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gates == nil {
		s.gates = make(map[string]chan struct{})
	}
	s.gates[key] = gate
}

func (s *stubTierStore) setGetErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getErr = err
}

func (s *stubTierStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// ---------------------------------------------------------------------------
// Notification service
// ---------------------------------------------------------------------------

type listReply struct {
	page *domain.NotificationPage
	err  error
}

type listCall struct {
	token string
	page  int
	limit int
	reply chan listReply
}

// stubNotifications answers List either from respond (immediately) or, when
// blocking is set, by parking each call on calls until the test replies.
type stubNotifications struct {
	blocking bool
	respond  func(n int) (*domain.NotificationPage, error)
	calls    chan listCall
	count    atomic.Int32

	mu      sync.Mutex
	marked  []string
	markErr error
}

func newStubNotifications() *stubNotifications {
	return &stubNotifications{calls: make(chan listCall, 64)}
}

func (s *stubNotifications) List(ctx context.Context, token string, page, limit int) (*domain.NotificationPage, error) {
	n := int(s.count.Add(1))
	call := listCall{token: token, page: page, limit: limit, reply: make(chan listReply, 1)}
	if !s.blocking {
		s.calls <- call
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.respond == nil {
			return &domain.NotificationPage{}, nil
		}
		return s.respond(n)
	}

	s.calls <- call
	select {
	case r := <-call.reply:
		return r.page, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *stubNotifications) MarkAsRead(_ context.Context, _ string, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, id)
	return s.markErr
}

func (s *stubNotifications) nextCall(t *testing.T) listCall {
	t.Helper()
	select {
	case c := <-s.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for a List call")
		return listCall{}
	}
}

func page(items ...domain.Notification) *domain.NotificationPage {
	return &domain.NotificationPage{Items: items, Total: len(items)}
}

// ---------------------------------------------------------------------------
// Context opener
// ---------------------------------------------------------------------------

type stubBrowsingContext struct {
	closed atomic.Bool
}

func (c *stubBrowsingContext) Close() { c.closed.Store(true) }

type stubOpener struct {
	mu      sync.Mutex
	err     error
	opened  []string
	owners  []string
	context *stubBrowsingContext
}

func (o *stubOpener) Open(_ context.Context, owner, target string) (ports.BrowsingContext, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return nil, o.err
	}
	o.opened = append(o.opened, target)
	o.owners = append(o.owners, owner)
	o.context = &stubBrowsingContext{}
	return o.context, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type fetchResult struct {
	seq     uint64
	applied bool
}

// observe installs the fetch hook and returns the channel it reports on.
func observe(p *FeedPoller) chan fetchResult {
	ch := make(chan fetchResult, 64)
	p.fetchDone = func(seq uint64, applied bool) { ch <- fetchResult{seq: seq, applied: applied} }
	return ch
}

func waitFetch(t *testing.T, ch chan fetchResult) fetchResult {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for a fetch to complete")
		return fetchResult{}
	}
}

func landlord() *domain.UserRecord {
	return &domain.UserRecord{
		ID:          "u-1",
		FirstName:   "Lena",
		LastName:    "Ortiz",
		Email:       "lena@example.com",
		AccountType: domain.AccountTypeLandlord,
		CreatedAt:   epoch,
	}
}

var testKey = domain.ClientKey{Device: "device-1", Tab: "tab-1"}
