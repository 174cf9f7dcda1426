// Package oauth implements the federated login adapters. Each adapter runs
// the authorization code exchange and normalizes the provider's user info
// into a domain.FederatedIdentity.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"github.com/carepoint/identity-service/internal/core/domain"
	"github.com/carepoint/identity-service/internal/core/ports"
)

const maxUserInfoBytes = 1 << 20

// Credentials are the client settings of one provider registration.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Adapter is a ports.IdentityProvider over an oauth2.Config.
type Adapter struct {
	provider    domain.Provider
	config      *oauth2.Config
	userInfoURL string
	// emailsURL is the follow-up email resource, for providers that have one.
	emailsURL string
	// identity reads the user info document, fetching follow-up resources
	// with client when the provider splits them.
	identity func(ctx context.Context, client *http.Client, body []byte) (domain.FederatedIdentity, error)
}

var _ ports.IdentityProvider = (*Adapter)(nil)

func (a *Adapter) Provider() domain.Provider {
	return a.provider
}

func (a *Adapter) AuthCodeURL(state string) string {
	return a.config.AuthCodeURL(state)
}

// Exchange trades the code for a token and loads the caller's identity.
func (a *Adapter) Exchange(ctx context.Context, code string) (domain.FederatedIdentity, error) {
	if strings.TrimSpace(code) == "" {
		return domain.FederatedIdentity{}, fmt.Errorf("%w: missing authorization code", domain.ErrInvalidInput)
	}
	token, err := a.config.Exchange(ctx, code)
	if err != nil {
		// A token endpoint answer other than 2xx is the provider refusing the
		// code; transport failures stay internal.
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			return domain.FederatedIdentity{}, fmt.Errorf("%w: %s code exchange: status %d %s",
				domain.ErrFederatedExchangeFailed, a.provider.RegistrationID(), re.Response.StatusCode, re.ErrorCode)
		}
		return domain.FederatedIdentity{}, fmt.Errorf("%s code exchange: %w", a.provider.RegistrationID(), err)
	}

	client := a.config.Client(ctx, token)
	body, err := getJSON(ctx, client, a.userInfoURL)
	if err != nil {
		return domain.FederatedIdentity{}, fmt.Errorf("%s user info: %w", a.provider.RegistrationID(), err)
	}

	identity, err := a.identity(ctx, client, body)
	if err != nil {
		return domain.FederatedIdentity{}, err
	}
	identity.Provider = a.provider
	identity.Subject = strings.TrimSpace(identity.Subject)
	if identity.Subject == "" {
		return domain.FederatedIdentity{}, domain.ErrFederatedIdentityIncomplete
	}
	return identity, nil
}

func getJSON(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUserInfoBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", domain.ErrFederatedExchangeFailed, resp.StatusCode)
	}
	return body, nil
}

func decode(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: malformed user info: %v", domain.ErrFederatedIdentityIncomplete, err)
	}
	return nil
}
