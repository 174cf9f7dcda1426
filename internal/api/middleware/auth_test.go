package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/carepoint/identity-service/internal/core/domain"
	"github.com/carepoint/identity-service/internal/core/service"
)

type stubAccounts struct {
	accounts map[int64]*domain.Account
	err      error
}

func (s *stubAccounts) FindByID(_ context.Context, id int64) (*domain.Account, error) {
	if s.err != nil {
		return nil, s.err
	}
	a, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	c := *a
	c.Roles = slices.Clone(a.Roles)
	return &c, nil
}

func doctorAccount() *domain.Account {
	return &domain.Account{ID: 7, Handle: "drsmith", Roles: []domain.Role{domain.RoleDoctor, domain.RoleAdmin}}
}

func issue(t *testing.T, tokens *service.TokenService, a *domain.Account) string {
	t.Helper()
	tok, _, err := tokens.Issue(a)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

// run invokes Authenticate once and returns the principal seen by next, if
// next was reached.
func run(t *testing.T, mw echo.MiddlewareFunc, header string) (*httptest.ResponseRecorder, *domain.Principal, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *domain.Principal
	called := false
	h := mw(func(c echo.Context) error {
		called = true
		seen = domain.PrincipalFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec, seen, called
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return body.Code
}

func TestAuthenticate_ValidToken(t *testing.T) {
	tokens := service.NewTokenService("secret", "", time.Hour)
	accounts := &stubAccounts{accounts: map[int64]*domain.Account{7: doctorAccount()}}
	mw := Authenticate(tokens, accounts)

	rec, p, called := run(t, mw, "Bearer "+issue(t, tokens, doctorAccount()))
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected request to be forwarded, got %d", rec.Code)
	}
	if p == nil || p.ID != 7 || p.Handle != "drsmith" {
		t.Fatalf("unexpected principal: %+v", p)
	}
	if !p.HasPermission(domain.PermAccountRolesWrite) || !p.HasPermission(domain.PermAppointmentManage) {
		t.Fatalf("permissions not derived from roles: %v", p.Permissions)
	}
}

func TestAuthenticate_NoCredentialPassesThrough(t *testing.T) {
	tokens := service.NewTokenService("secret", "", time.Hour)
	mw := Authenticate(tokens, &stubAccounts{})

	for _, header := range []string{"", "Token abc", "bearer abc", "Bearer ", "Bearer a b", "Basic dXNlcjpwYXNz"} {
		rec, p, called := run(t, mw, header)
		if !called || rec.Code != http.StatusOK {
			t.Fatalf("header %q: expected pass-through, got %d", header, rec.Code)
		}
		if p != nil {
			t.Fatalf("header %q: expected no principal", header)
		}
	}
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	old := service.NewTokenService("secret", "", time.Millisecond)
	tok := issue(t, old, doctorAccount())
	time.Sleep(1100 * time.Millisecond)

	tokens := service.NewTokenService("secret", "", time.Hour)
	accounts := &stubAccounts{accounts: map[int64]*domain.Account{7: doctorAccount()}}
	rec, _, called := run(t, Authenticate(tokens, accounts), "Bearer "+tok)
	if called {
		t.Fatalf("expired token must not be forwarded")
	}
	if rec.Code != http.StatusUnauthorized || errorCode(t, rec) != "token_expired" {
		t.Fatalf("expected 401 token_expired, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	tokens := service.NewTokenService("secret", "", time.Hour)
	other := service.NewTokenService("other", "", time.Hour)
	accounts := &stubAccounts{accounts: map[int64]*domain.Account{7: doctorAccount()}}
	mw := Authenticate(tokens, accounts)

	for _, tok := range []string{"not-a-token", issue(t, other, doctorAccount())} {
		rec, _, called := run(t, mw, "Bearer "+tok)
		if called {
			t.Fatalf("invalid token must not be forwarded")
		}
		if rec.Code != http.StatusUnauthorized || errorCode(t, rec) != "invalid_token" {
			t.Fatalf("expected 401 invalid_token, got %d %s", rec.Code, rec.Body.String())
		}
	}
}

func TestAuthenticate_MissingAccountIsInvalid(t *testing.T) {
	tokens := service.NewTokenService("secret", "", time.Hour)
	rec, _, called := run(t, Authenticate(tokens, &stubAccounts{}), "Bearer "+issue(t, tokens, doctorAccount()))
	if called {
		t.Fatalf("token for a deleted account must not be forwarded")
	}
	if rec.Code != http.StatusUnauthorized || errorCode(t, rec) != "invalid_token" {
		t.Fatalf("expected 401 invalid_token, got %d", rec.Code)
	}
}

func TestAuthenticate_StoreErrorGoesToErrorHandler(t *testing.T) {
	tokens := service.NewTokenService("secret", "", time.Hour)
	boom := errors.New("mongo down")
	mw := Authenticate(tokens, &stubAccounts{err: boom})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+issue(t, tokens, doctorAccount()))
	c := e.NewContext(req, httptest.NewRecorder())

	err := mw(func(echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})(c)
	if !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestAuthenticate_RoleDowngradeAppliesImmediately(t *testing.T) {
	tokens := service.NewTokenService("secret", "", time.Hour)
	accounts := &stubAccounts{accounts: map[int64]*domain.Account{7: doctorAccount()}}
	tok := issue(t, tokens, doctorAccount())

	accounts.accounts[7].Roles = []domain.Role{domain.RolePatient}

	_, p, _ := run(t, Authenticate(tokens, accounts), "Bearer "+tok)
	if p == nil {
		t.Fatalf("expected a principal")
	}
	if p.HasRole(domain.RoleAdmin) || p.HasRole(domain.RoleDoctor) || !p.HasRole(domain.RolePatient) {
		t.Fatalf("expected downgraded roles, got %v", p.Roles)
	}
	if p.HasPermission(domain.PermAccountRolesWrite) {
		t.Fatalf("downgraded principal kept admin permissions")
	}
}

func TestAuthenticate_Idempotent(t *testing.T) {
	tokens := service.NewTokenService("secret", "", time.Hour)
	accounts := &stubAccounts{accounts: map[int64]*domain.Account{7: doctorAccount()}}
	mw := Authenticate(tokens, accounts)
	header := "Bearer " + issue(t, tokens, doctorAccount())

	_, first, _ := run(t, mw, header)
	_, second, _ := run(t, mw, header)
	if first == nil || second == nil {
		t.Fatalf("expected principals")
	}
	if first.ID != second.ID || !slices.Equal(first.Roles, second.Roles) || !slices.Equal(first.Permissions, second.Permissions) {
		t.Fatalf("principals differ: %+v vs %+v", first, second)
	}

	// Running the middleware twice on one request keeps the first principal.
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, header)
	c := e.NewContext(req, httptest.NewRecorder())
	var inner *domain.Principal
	h := mw(mw(func(c echo.Context) error {
		inner = domain.PrincipalFromContext(c.Request().Context())
		return nil
	}))
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if inner == nil || inner.ID != first.ID {
		t.Fatalf("unexpected principal after double authentication: %+v", inner)
	}
}
