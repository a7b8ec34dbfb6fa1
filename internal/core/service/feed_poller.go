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
	DefaultPollInterval = 30 * time.Second
	DefaultPageSize     = 20
	defaultFetchTimeout = 10 * time.Second
)

// PollerState is the poller's lifecycle state.
type PollerState int

const (
	PollerIdle PollerState = iota
	PollerPolling
)

func (s PollerState) String() string {
	if s == PollerPolling {
		return "polling"
	}
	return "idle"
}

// PollerConfig tunes a FeedPoller. Zero values take the defaults.
type PollerConfig struct {
	Interval     time.Duration
	PageSize     int
	FetchTimeout time.Duration
}

func (c PollerConfig) withDefaults() PollerConfig {
	if c.Interval <= 0 {
		c.Interval = DefaultPollInterval
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = defaultFetchTimeout
	}
	return c
}

// FeedPoller keeps a notification feed fresh while a session is valid.
//
// Ticks never overlap: a tick that finds a fetch in flight is skipped.
// Every fetch takes a sequence number and its response is applied only if
// no newer fetch has been issued since, so an old response can never
// overwrite a newer one. Stop cancels the ticker before returning and
// discards anything still in flight.
type FeedPoller struct {
	svc   ports.NotificationService
	clock clock.Clock
	cfg   PollerConfig
	log   zerolog.Logger

	mu       sync.Mutex
	state    PollerState
	token    string
	ticker   *clock.Ticker
	done     chan struct{}
	runCtx   context.Context    // parent of every fetch in the current run
	cancel   context.CancelFunc // cancels runCtx
	run      uint64             // bumped on every stop
	issued   uint64
	inFlight int
	feed     domain.FeedState

	// fetchDone, when set, observes each completed fetch. Tests only.
	fetchDone func(seq uint64, applied bool)
}

func NewFeedPoller(svc ports.NotificationService, clk clock.Clock, cfg PollerConfig, log zerolog.Logger) *FeedPoller {
	if clk == nil {
		clk = clock.Real()
	}
	return &FeedPoller{
		svc:   svc,
		clock: clk,
		cfg:   cfg.withDefaults(),
		log:   log.With().Str("component", "feed_poller").Logger(),
	}
}

// Start moves Idle -> Polling for token: it starts the ticker and issues
// one immediate fetch. Starting with the token already being polled is a
// no-op; a different token restarts the cycle with an empty feed.
func (p *FeedPoller) Start(token string) {
	if token == "" {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == PollerPolling {
		if p.token == token {
			return
		}
		p.stopLocked()
		p.feed = domain.FeedState{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.state = PollerPolling
	p.token = token
	p.runCtx, p.cancel = ctx, cancel
	p.ticker = p.clock.NewTicker(p.cfg.Interval)
	p.done = make(chan struct{})

	go p.loop(ctx, p.ticker, p.done)
	p.issueLocked(ctx)

	p.log.Debug().Dur("interval", p.cfg.Interval).Msg("notification polling started")
}

// Stop moves Polling -> Idle. The ticker is stopped before Stop returns and
// responses still in flight are dropped. The last feed is cleared.
func (p *FeedPoller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == PollerIdle {
		return
	}
	p.stopLocked()
	p.feed = domain.FeedState{}
	p.log.Debug().Msg("notification polling stopped")
}

func (p *FeedPoller) stopLocked() {
	p.ticker.Stop()
	close(p.done)
	p.cancel()
	// Responses tagged with an older run are ignored entirely.
	p.run++
	p.inFlight = 0
	p.ticker, p.done = nil, nil
	p.runCtx, p.cancel = nil, nil
	p.token = ""
	p.state = PollerIdle
}

// State returns the current lifecycle state.
func (p *FeedPoller) State() PollerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Snapshot returns a copy of the feed.
func (p *FeedPoller) Snapshot() domain.FeedState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.feed.Clone()
}

// Refresh issues a fetch now, even if a tick's fetch is in flight, and
// waits for it. The newer request supersedes the older one.
//
// The fetch belongs to the polling run, not to the caller: a caller that
// goes away must not leave its cancellation behind as the feed's error.
func (p *FeedPoller) Refresh() {
	p.mu.Lock()
	if p.state != PollerPolling {
		p.mu.Unlock()
		return
	}
	ctx := p.runCtx
	req := p.beginLocked()
	p.mu.Unlock()

	p.fetch(ctx, req)
}

// MarkAsRead tells the server and then reconciles with a fresh fetch
// instead of flipping the flag locally. A failed mark is logged only.
func (p *FeedPoller) MarkAsRead(ctx context.Context, id string) error {
	p.mu.Lock()
	token, polling := p.token, p.state == PollerPolling
	p.mu.Unlock()
	if !polling {
		return domain.ErrNoSession
	}

	if err := p.svc.MarkAsRead(ctx, token, id); err != nil {
		p.log.Warn().Err(err).Str("notification_id", id).Msg("mark as read failed")
	}
	p.Refresh()
	return nil
}

func (p *FeedPoller) loop(ctx context.Context, ticker *clock.Ticker, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *FeedPoller) tick(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != PollerPolling || ctx.Err() != nil {
		return
	}
	if p.inFlight > 0 {
		metrics.NotificationFetchesTotal.WithLabelValues("skipped").Inc()
		p.log.Debug().Msg("previous fetch still in flight, skipping tick")
		return
	}
	p.issueLocked(ctx)
}

// fetchRequest identifies one issued fetch.
type fetchRequest struct {
	run   uint64
	seq   uint64
	token string
}

func (p *FeedPoller) issueLocked(ctx context.Context) {
	go p.fetch(ctx, p.beginLocked())
}

func (p *FeedPoller) beginLocked() fetchRequest {
	p.issued++
	p.inFlight++
	return fetchRequest{run: p.run, seq: p.issued, token: p.token}
}

func (p *FeedPoller) fetch(ctx context.Context, req fetchRequest) {
	fetchCtx, cancel := context.WithTimeout(ctx, p.cfg.FetchTimeout)
	page, err := p.svc.List(fetchCtx, req.token, 1, p.cfg.PageSize)
	cancel()

	applied := p.apply(req, page, err)
	if p.fetchDone != nil {
		p.fetchDone(req.seq, applied)
	}
}

// apply records a response if it belongs to the most recently issued
// request of the current run. It reports whether the feed was touched.
func (p *FeedPoller) apply(req fetchRequest, page *domain.NotificationPage, err error) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if req.run != p.run || p.state != PollerPolling {
		metrics.NotificationFetchesTotal.WithLabelValues("stale").Inc()
		return false
	}
	p.inFlight--
	if req.seq != p.issued {
		metrics.NotificationFetchesTotal.WithLabelValues("stale").Inc()
		return false
	}

	if err == nil && page == nil {
		err = domain.ErrUpstream
	}
	if err != nil {
		p.feed.LastFetchError = err
		metrics.NotificationFetchesTotal.WithLabelValues("error").Inc()
		p.log.Warn().Err(err).Msg("notification fetch failed, keeping previous feed")
		return true
	}

	items := make([]domain.Notification, len(page.Items))
	copy(items, page.Items)
	p.feed = domain.FeedState{
		Items:       items,
		UnreadCount: domain.CountUnread(items),
		FetchedAt:   p.clock.Now(),
	}
	metrics.NotificationFetchesTotal.WithLabelValues("ok").Inc()
	return true
}
