package oauth

import (
	"context"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/carepoint/identity-service/internal/core/domain"
)

const (
	googleUserInfoURL   = "https://openidconnect.googleapis.com/v1/userinfo"
	githubUserURL       = "https://api.github.com/user"
	githubEmailsURL     = "https://api.github.com/user/emails"
	facebookUserInfoURL = "https://graph.facebook.com/me?fields=id,name,email"
)

func oauthConfig(c Credentials, endpoint oauth2.Endpoint, scopes ...string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURL,
		Endpoint:     endpoint,
		Scopes:       scopes,
	}
}

// NewGoogle maps the OpenID Connect user info: sub, email, name.
func NewGoogle(c Credentials) *Adapter {
	return &Adapter{
		provider:    domain.ProviderGoogle,
		config:      oauthConfig(c, endpoints.Google, "openid", "email", "profile"),
		userInfoURL: googleUserInfoURL,
		identity: func(_ context.Context, _ *http.Client, body []byte) (domain.FederatedIdentity, error) {
			var info struct {
				Sub           string `json:"sub"`
				Email         string `json:"email"`
				EmailVerified *bool  `json:"email_verified"`
				Name          string `json:"name"`
			}
			if err := decode(body, &info); err != nil {
				return domain.FederatedIdentity{}, err
			}
			email := info.Email
			if info.EmailVerified != nil && !*info.EmailVerified {
				email = ""
			}
			return domain.FederatedIdentity{Subject: info.Sub, Email: email, DisplayName: info.Name}, nil
		},
	}
}

// NewGithub maps id, login, name and email. GitHub omits private emails from
// /user, so the primary verified address is read from /user/emails.
func NewGithub(c Credentials) *Adapter {
	a := &Adapter{
		provider:    domain.ProviderGithub,
		config:      oauthConfig(c, endpoints.GitHub, "read:user", "user:email"),
		userInfoURL: githubUserURL,
		emailsURL:   githubEmailsURL,
	}
	a.identity = func(ctx context.Context, client *http.Client, body []byte) (domain.FederatedIdentity, error) {
		var info struct {
			ID    int64  `json:"id"`
			Login string `json:"login"`
			Name  string `json:"name"`
			Email string `json:"email"`
		}
		if err := decode(body, &info); err != nil {
			return domain.FederatedIdentity{}, err
		}
		identity := domain.FederatedIdentity{
			Email:       info.Email,
			DisplayName: info.Name,
			Login:       info.Login,
		}
		if info.ID > 0 {
			identity.Subject = strconv.FormatInt(info.ID, 10)
		}
		if identity.Email == "" {
			identity.Email = githubPrimaryEmail(ctx, client, a.emailsURL)
		}
		return identity, nil
	}
	return a
}

// githubPrimaryEmail returns "" on any failure; the email is optional.
func githubPrimaryEmail(ctx context.Context, client *http.Client, url string) string {
	body, err := getJSON(ctx, client, url)
	if err != nil {
		return ""
	}
	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := decode(body, &emails); err != nil {
		return ""
	}
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email
		}
	}
	return ""
}

// NewFacebook maps the Graph API fields id, name, email.
func NewFacebook(c Credentials) *Adapter {
	return &Adapter{
		provider:    domain.ProviderFacebook,
		config:      oauthConfig(c, endpoints.Facebook, "email", "public_profile"),
		userInfoURL: facebookUserInfoURL,
		identity: func(_ context.Context, _ *http.Client, body []byte) (domain.FederatedIdentity, error) {
			var info struct {
				ID    string `json:"id"`
				Name  string `json:"name"`
				Email string `json:"email"`
			}
			if err := decode(body, &info); err != nil {
				return domain.FederatedIdentity{}, err
			}
			return domain.FederatedIdentity{Subject: info.ID, Email: info.Email, DisplayName: info.Name}, nil
		},
	}
}
