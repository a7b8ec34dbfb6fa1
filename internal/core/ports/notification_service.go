package ports

import (
	"context"

	"github.com/nestmarket/session-gateway/internal/core/domain"
)

// NotificationService is the marketplace API's notification endpoint.
type NotificationService interface {
	List(ctx context.Context, token string, page, limit int) (*domain.NotificationPage, error)
	MarkAsRead(ctx context.Context, token, id string) error
}
