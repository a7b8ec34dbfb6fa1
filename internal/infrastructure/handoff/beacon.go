// Package handoff opens logout beacons against the management app.
package handoff

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nestmarket/session-gateway/internal/core/ports"
	"github.com/nestmarket/session-gateway/internal/infrastructure/queue"
	"github.com/nestmarket/session-gateway/internal/pkg/clock"
)

const (
	// maxBeaconLifetime caps a beacon whose Close is never called.
	maxBeaconLifetime = 30 * time.Second
	// defaultCloseWindow is how long a closed beacon keeps its request alive.
	defaultCloseWindow = 500 * time.Millisecond
)

// Enqueuer accepts background jobs without blocking.
type Enqueuer interface {
	TryEnqueue(job queue.Job) error
}

// BeaconOpener is the server-side browsing context: it loads the target
// URL with a plain GET on a worker. Close gives the request window to
// finish, counted from when it is actually sent, and then cancels it;
// nothing reports whether the remote page finished.
type BeaconOpener struct {
	client *http.Client
	queue  Enqueuer
	clock  clock.Clock
	window time.Duration
	log    zerolog.Logger
}

func NewBeaconOpener(client *http.Client, q Enqueuer, clk clock.Clock, window time.Duration, log zerolog.Logger) *BeaconOpener {
	if client == nil {
		client = &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		}
	}
	if clk == nil {
		clk = clock.Real()
	}
	if window <= 0 {
		window = defaultCloseWindow
	}
	return &BeaconOpener{
		client: client,
		queue:  q,
		clock:  clk,
		window: window,
		log:    log.With().Str("component", "beacon").Logger(),
	}
}

// Open queues a GET to target for owner. A full queue is reported as an
// error so the caller can carry on without the beacon.
func (o *BeaconOpener) Open(ctx context.Context, owner, target string) (ports.BrowsingContext, error) {
	req, err := http.NewRequestWithContext(context.WithoutCancel(ctx), http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("open beacon: %w", err)
	}

	b := &beacon{clock: o.clock, window: o.window}
	err = o.queue.TryEnqueue(queue.Job{Owner: owner, Run: func(workerCtx context.Context) {
		o.send(workerCtx, b, req)
	}})
	if err != nil {
		return nil, fmt.Errorf("open beacon: %w", err)
	}
	return b, nil
}

func (o *BeaconOpener) send(workerCtx context.Context, b *beacon, req *http.Request) {
	ctx, cancel := b.begin(workerCtx)
	defer cancel()
	if ctx.Err() != nil {
		o.log.Debug().Str("url", req.URL.Redacted()).Msg("beacon dropped on shutdown")
		return
	}

	resp, err := o.client.Do(req.WithContext(ctx))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			o.log.Debug().Str("url", req.URL.Redacted()).Msg("beacon closed before completion")
			return
		}
		o.log.Warn().Err(err).Str("url", req.URL.Redacted()).Msg("beacon request failed")
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
	o.log.Debug().Int("status", resp.StatusCode).Msg("beacon delivered")
}

// beacon is closed at most once. A Close that arrives while the request
// is still queued only takes effect once the request goes out, so a beacon
// always gets its full window on the wire.
type beacon struct {
	clock  clock.Clock
	window time.Duration

	mu      sync.Mutex
	started time.Time
	cancel  context.CancelFunc // nil until sent
	closing bool
}

// begin marks the request as sent and returns its context.
func (b *beacon) begin(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, maxBeaconLifetime)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.started = b.clock.Now()
	b.cancel = cancel
	if b.closing {
		b.armLocked()
	}
	return ctx, cancel
}

func (b *beacon) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closing {
		return
	}
	b.closing = true
	if b.cancel != nil {
		b.armLocked()
	}
}

func (b *beacon) armLocked() {
	remaining := b.window - b.clock.Now().Sub(b.started)
	if remaining <= 0 {
		b.cancel()
		return
	}
	b.clock.AfterFunc(remaining, b.cancel)
}
