package ports

import (
	"context"
	"time"

	"github.com/carepoint/identity-service/internal/core/domain"
)

// SignupInput carries the fields of a local signup.
type SignupInput struct {
	Handle    string
	Password  string
	FirstName string
	LastName  string
	Email     string
	Roles     []domain.Role
}

// LoginResult is returned by every successful authentication path.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	AccountID int64
	Handle    string
	Roles     []string
	// Created is true when a federated login created the account.
	Created bool
}

// AuthService owns signup, login and federated reconciliation.
type AuthService interface {
	Signup(ctx context.Context, in SignupInput) (*domain.Account, error)
	Login(ctx context.Context, handle, password string) (*LoginResult, error)
	ReconcileFederated(ctx context.Context, identity domain.FederatedIdentity) (*LoginResult, error)
	UpdateRoles(ctx context.Context, accountID int64, roles []domain.Role) (*domain.Account, error)
	FindAccount(ctx context.Context, accountID int64) (*domain.Account, error)
}
