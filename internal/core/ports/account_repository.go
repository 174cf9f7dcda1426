package ports

import (
	"context"

	"github.com/carepoint/identity-service/internal/core/domain"
)

// AccountRepository defines persistence for accounts. Finders return
// domain.ErrAccountNotFound when nothing matches. Create and Update return
// domain.ErrDuplicateHandle or domain.ErrDuplicateEmail when a unique
// constraint rejects the write.
type AccountRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.Account, error)
	FindByHandle(ctx context.Context, handle string) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByProvider(ctx context.Context, provider domain.Provider, subject string) (*domain.Account, error)
	// Create assigns the account id and timestamps.
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	Update(ctx context.Context, account *domain.Account) error
	ExistsHandle(ctx context.Context, handle string) (bool, error)
	ExistsEmail(ctx context.Context, email string) (bool, error)
}

// AccountReader is the slice of AccountRepository the auth middleware needs.
type AccountReader interface {
	FindByID(ctx context.Context, id int64) (*domain.Account, error)
}
