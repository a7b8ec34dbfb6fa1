package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/nestmarket/session-gateway/internal/api/metrics"
	"github.com/nestmarket/session-gateway/internal/core/domain"
	"github.com/nestmarket/session-gateway/internal/core/ports"
	"github.com/nestmarket/session-gateway/internal/pkg/clock"
)

const (
	// DefaultManagementURL is used when no management app URL is configured
	// or the configured one does not parse.
	DefaultManagementURL = "http://localhost:3001"
	// DefaultHandoffCloseDelay is how long a logout context stays open.
	DefaultHandoffCloseDelay = 500 * time.Millisecond

	transferPath = "/auth-transfer"
)

// Handoff moves authentication state to the management app, which runs at
// another origin and shares nothing with this one.
//
// Login is a URL carrying the token. Logout is fire-and-forget: a browsing
// context is opened on the logout URL and closed after a fixed delay. There
// is no acknowledgement and no retry; a slow management app may be closed
// on before it clears its own state.
type Handoff struct {
	base       *url.URL
	opener     ports.ContextOpener
	clock      clock.Clock
	closeDelay time.Duration
	log        zerolog.Logger
}

// NewHandoff never fails: an empty or unparsable baseURL falls back to
// DefaultManagementURL.
func NewHandoff(baseURL string, opener ports.ContextOpener, clk clock.Clock, closeDelay time.Duration, log zerolog.Logger) *Handoff {
	log = log.With().Str("component", "handoff").Logger()
	if clk == nil {
		clk = clock.Real()
	}
	if closeDelay <= 0 {
		closeDelay = DefaultHandoffCloseDelay
	}
	base, err := parseBase(baseURL)
	if err != nil {
		log.Warn().Err(err).Str("url", baseURL).Str("fallback", DefaultManagementURL).Msg("invalid management app url")
		base, _ = parseBase(DefaultManagementURL)
	}
	return &Handoff{base: base, opener: opener, clock: clk, closeDelay: closeDelay, log: log}
}

func parseBase(raw string) (*url.URL, error) {
	if strings.TrimSpace(raw) == "" {
		raw = DefaultManagementURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("management url %q: missing scheme or host", raw)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawQuery, u.Fragment = "", ""
	return u, nil
}

// BaseURL returns the management app base in use.
func (h *Handoff) BaseURL() string { return h.base.String() }

// LoginURL builds <base>/auth-transfer?token=<token>.
func (h *Handoff) LoginURL(token string) (string, error) {
	if token == "" {
		return "", domain.ErrEmptyToken
	}
	metrics.HandoffsTotal.WithLabelValues("login", "issued").Inc()
	return h.transferURL(url.Values{"token": {token}}), nil
}

// LogoutURL builds <base>/auth-transfer?logout=true.
func (h *Handoff) LogoutURL() string {
	return h.transferURL(url.Values{"logout": {"true"}})
}

func (h *Handoff) transferURL(q url.Values) string {
	u := *h.base
	u.Path += transferPath
	u.RawQuery = q.Encode()
	return u.String()
}

// Logout opens a context on the logout URL for owner and schedules its
// close. It returns as soon as the context is open; failures are logged and
// swallowed since the remote side effect is best-effort.
func (h *Handoff) Logout(ctx context.Context, owner string) {
	if h.opener == nil {
		return
	}
	bc, err := h.opener.Open(ctx, owner, h.LogoutURL())
	if err != nil {
		metrics.HandoffsTotal.WithLabelValues("logout", "failed").Inc()
		h.log.Warn().Err(err).Msg("logout handoff could not be opened")
		return
	}
	metrics.HandoffsTotal.WithLabelValues("logout", "issued").Inc()
	h.clock.AfterFunc(h.closeDelay, bc.Close)
}
