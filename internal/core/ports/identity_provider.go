package ports

import (
	"context"

	"github.com/carepoint/identity-service/internal/core/domain"
)

// IdentityProvider is one federated login adapter.
type IdentityProvider interface {
	Provider() domain.Provider
	AuthCodeURL(state string) string
	// Exchange trades an authorization code for the caller's normalized identity.
	Exchange(ctx context.Context, code string) (domain.FederatedIdentity, error)
}

// OAuthStateStore keeps one-shot state nonces for the authorization code flow.
type OAuthStateStore interface {
	Issue(ctx context.Context, provider domain.Provider) (string, error)
	// Consume deletes the state and fails with domain.ErrInvalidOAuthState
	// when it is unknown, expired or bound to another provider.
	Consume(ctx context.Context, state string, provider domain.Provider) error
}
