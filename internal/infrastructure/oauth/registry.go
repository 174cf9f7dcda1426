package oauth

import (
	"fmt"
	"strings"

	"github.com/carepoint/identity-service/internal/core/domain"
	"github.com/carepoint/identity-service/internal/core/ports"
)

// Registry holds the identity providers that have client credentials.
type Registry struct {
	providers map[domain.Provider]ports.IdentityProvider
}

// Settings configures every supported provider. Providers without a client
// id are not registered.
type Settings struct {
	RedirectBaseURL string
	Google          Credentials
	Github          Credentials
	Facebook        Credentials
}

func NewRegistry(s Settings) *Registry {
	r := &Registry{providers: make(map[domain.Provider]ports.IdentityProvider)}
	base := strings.TrimRight(s.RedirectBaseURL, "/")

	builders := []struct {
		provider domain.Provider
		creds    Credentials
		build    func(Credentials) *Adapter
	}{
		{domain.ProviderGoogle, s.Google, NewGoogle},
		{domain.ProviderGithub, s.Github, NewGithub},
		{domain.ProviderFacebook, s.Facebook, NewFacebook},
	}
	for _, b := range builders {
		if b.creds.ClientID == "" {
			continue
		}
		if b.creds.RedirectURL == "" {
			b.creds.RedirectURL = fmt.Sprintf("%s/auth/oauth2/%s/callback", base, b.provider.RegistrationID())
		}
		r.providers[b.provider] = b.build(b.creds)
	}
	return r
}

// Register adds or replaces a provider.
func (r *Registry) Register(p ports.IdentityProvider) {
	r.providers[p.Provider()] = p
}

// Lookup resolves a registration id from the route. Unknown and
// unconfigured providers both fail with domain.ErrUnsupportedProvider.
func (r *Registry) Lookup(registrationID string) (ports.IdentityProvider, error) {
	provider, err := domain.ParseProvider(registrationID)
	if err != nil {
		return nil, err
	}
	p, ok := r.providers[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s is not configured", domain.ErrUnsupportedProvider, registrationID)
	}
	return p, nil
}

// Names lists the configured registration ids.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for _, p := range []domain.Provider{domain.ProviderGoogle, domain.ProviderGithub, domain.ProviderFacebook} {
		if _, ok := r.providers[p]; ok {
			names = append(names, p.RegistrationID())
		}
	}
	return names
}
