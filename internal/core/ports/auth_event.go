package ports

import (
	"context"

	"github.com/carepoint/identity-service/internal/core/domain"
)

// AuthEventRepository persists audit records.
type AuthEventRepository interface {
	Insert(ctx context.Context, event *domain.AuthEvent) error
}

// AuthEventPublisher hands audit records off without blocking the caller's
// result on persistence.
type AuthEventPublisher interface {
	Publish(event domain.AuthEvent)
}
