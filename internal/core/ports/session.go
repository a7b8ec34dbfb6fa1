package ports

import (
	"context"

	"github.com/nestmarket/session-gateway/internal/core/domain"
)

// Session is the façade a single browsing client talks to.
type Session interface {
	Role() domain.Role
	Session() domain.Session
	Login(ctx context.Context, token string, user *domain.UserRecord, tier domain.Tier) error
	UpdateUser(ctx context.Context, user *domain.UserRecord) error
	SetRole(ctx context.Context, role domain.Role) error
	Logout(ctx context.Context) error
	Reload(ctx context.Context) domain.Role
	HandoffURL() (string, error)

	Feed() domain.FeedState
	MarkNotificationRead(ctx context.Context, id string) error

	HasBookmark(id string) bool
	ToggleBookmark(id string) bool
	Bookmarks() []string
}

// SessionRegistry hands out the façade for a client, creating it on first use.
type SessionRegistry interface {
	Acquire(ctx context.Context, key domain.ClientKey) (Session, error)
}

// Navigator builds the role-filtered menu.
type Navigator interface {
	Menu(role domain.Role, currentPath string) ([]domain.NavigationMenuNode, string)
}
