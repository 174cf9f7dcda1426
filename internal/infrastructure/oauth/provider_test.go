package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/carepoint/identity-service/internal/core/domain"
)

// fakeProvider serves a token endpoint and the given JSON documents by path.
func fakeProvider(t *testing.T, docs map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-1","token_type":"Bearer","expires_in":3600}`))
	})
	for path, doc := range docs {
		doc := doc
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer at-1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(doc))
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func pointAt(a *Adapter, srv *httptest.Server) {
	a.config.Endpoint = oauth2.Endpoint{
		AuthURL:   srv.URL + "/authorize",
		TokenURL:  srv.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	a.userInfoURL = srv.URL + "/user"
	if a.emailsURL != "" {
		a.emailsURL = srv.URL + "/user/emails"
	}
}

var creds = Credentials{ClientID: "cid", ClientSecret: "secret", RedirectURL: "http://localhost/cb"}

func TestGoogle_Exchange(t *testing.T) {
	srv := fakeProvider(t, map[string]string{
		"/user": `{"sub":"g123","email":"a@b.com","email_verified":true,"name":"Ada Lovelace"}`,
	})
	a := NewGoogle(creds)
	pointAt(a, srv)

	id, err := a.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, domain.FederatedIdentity{
		Provider:    domain.ProviderGoogle,
		Subject:     "g123",
		Email:       "a@b.com",
		DisplayName: "Ada Lovelace",
	}, id)
}

func TestGoogle_UnverifiedEmailIsDropped(t *testing.T) {
	srv := fakeProvider(t, map[string]string{
		"/user": `{"sub":"g123","email":"a@b.com","email_verified":false}`,
	})
	a := NewGoogle(creds)
	pointAt(a, srv)

	id, err := a.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Empty(t, id.Email)
}

func TestGithub_FallsBackToPrimaryEmail(t *testing.T) {
	srv := fakeProvider(t, map[string]string{
		"/user":        `{"id":101,"login":"octocat","name":null,"email":null}`,
		"/user/emails": `[{"email":"old@x.com","primary":false,"verified":true},{"email":"octo@x.com","primary":true,"verified":true}]`,
	})
	a := NewGithub(creds)
	pointAt(a, srv)

	id, err := a.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "101", id.Subject)
	assert.Equal(t, "octocat", id.Login)
	assert.Equal(t, "octo@x.com", id.Email)
	assert.Equal(t, domain.ProviderGithub, id.Provider)
}

func TestFacebook_MissingSubject(t *testing.T) {
	srv := fakeProvider(t, map[string]string{
		"/user": `{"name":"Nobody"}`,
	})
	a := NewFacebook(creds)
	pointAt(a, srv)

	_, err := a.Exchange(context.Background(), "good-code")
	require.ErrorIs(t, err, domain.ErrFederatedIdentityIncomplete)
}

func TestExchange_BadCode(t *testing.T) {
	srv := fakeProvider(t, map[string]string{"/user": `{}`})
	a := NewFacebook(creds)
	pointAt(a, srv)

	_, err := a.Exchange(context.Background(), "bad-code")
	require.ErrorIs(t, err, domain.ErrFederatedExchangeFailed)
	assert.Contains(t, err.Error(), "status 400")

	_, err = a.Exchange(context.Background(), " ")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExchange_UserInfoRejected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-1","token_type":"Bearer"}`))
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	a := NewGoogle(creds)
	pointAt(a, srv)

	_, err := a.Exchange(context.Background(), "any")
	require.ErrorIs(t, err, domain.ErrFederatedExchangeFailed)
}

func TestAuthCodeURL_CarriesState(t *testing.T) {
	a := NewGithub(creds)
	u, err := url.Parse(a.AuthCodeURL("st-1"))
	require.NoError(t, err)
	assert.Equal(t, "st-1", u.Query().Get("state"))
	assert.Equal(t, "cid", u.Query().Get("client_id"))
	assert.Equal(t, "http://localhost/cb", u.Query().Get("redirect_uri"))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(Settings{
		RedirectBaseURL: "https://id.example.com/",
		Google:          Credentials{ClientID: "g", ClientSecret: "s"},
	})
	assert.Equal(t, []string{"google"}, r.Names())

	p, err := r.Lookup("google")
	require.NoError(t, err)
	u, err := url.Parse(p.AuthCodeURL("x"))
	require.NoError(t, err)
	assert.Equal(t, "https://id.example.com/auth/oauth2/google/callback", u.Query().Get("redirect_uri"))

	_, err = r.Lookup("github")
	require.ErrorIs(t, err, domain.ErrUnsupportedProvider)
	_, err = r.Lookup("myspace")
	require.ErrorIs(t, err, domain.ErrUnsupportedProvider)
}
