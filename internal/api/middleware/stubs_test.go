package middleware

import (
	"context"

	"github.com/nestmarket/session-gateway/internal/core/domain"
	"github.com/nestmarket/session-gateway/internal/core/ports"
)

// stubSession only answers Role; any other call panics on the nil embed.
type stubSession struct {
	ports.Session
	role domain.Role
}

func (s *stubSession) Role() domain.Role { return s.role }

type stubRegistry struct {
	got  []domain.ClientKey
	sess ports.Session
	err  error
}

func (r *stubRegistry) Acquire(_ context.Context, key domain.ClientKey) (ports.Session, error) {
	r.got = append(r.got, key)
	return r.sess, r.err
}
