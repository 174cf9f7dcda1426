package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/carepoint/identity-service/internal/core/domain"
)

func newTestTokens(at time.Time) (*TokenService, *time.Time) {
	now := at
	svc := NewTokenService("test-secret", "identity-test", time.Hour)
	svc.now = func() time.Time { return now }
	return svc, &now
}

func testAccount() *domain.Account {
	return &domain.Account{ID: 42, Handle: "drsmith", Roles: []domain.Role{domain.RoleDoctor, domain.RolePatient}}
}

func TestTokenService_IssueVerifyRoundTrip(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc, now := newTestTokens(start)

	token, exp, err := svc.Issue(testAccount())
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if !exp.Equal(start.Add(time.Hour)) {
		t.Fatalf("unexpected expiry: %v", exp)
	}

	for _, offset := range []time.Duration{0, 30 * time.Minute, time.Hour - time.Second} {
		*now = start.Add(offset)
		claims, err := svc.Verify(token)
		if err != nil {
			t.Fatalf("Verify at +%v returned error: %v", offset, err)
		}
		if claims.AccountID != 42 || claims.Handle != "drsmith" {
			t.Fatalf("unexpected claims: %+v", claims)
		}
		if strings.Join(claims.Roles, ",") != "DOCTOR,PATIENT" {
			t.Fatalf("unexpected roles: %v", claims.Roles)
		}
	}
}

func TestTokenService_ExpiredAtAndAfterExpiry(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc, now := newTestTokens(start)

	token, _, err := svc.Issue(testAccount())
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	for _, offset := range []time.Duration{time.Hour, time.Hour + time.Second, 48 * time.Hour} {
		*now = start.Add(offset)
		if _, err := svc.Verify(token); !errors.Is(err, domain.ErrTokenExpired) {
			t.Fatalf("at +%v expected ErrTokenExpired, got %v", offset, err)
		}
	}
}

func TestTokenService_FlippedSignatureIsInvalid(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc, now := newTestTokens(start)

	token, _, err := svc.Issue(testAccount())
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	parts := strings.Split(token, ".")
	sig := []byte(parts[2])
	mid := len(sig) / 2
	if sig[mid] == 'A' {
		sig[mid] = 'B'
	} else {
		sig[mid] = 'A'
	}
	forged := parts[0] + "." + parts[1] + "." + string(sig)

	if _, err := svc.Verify(forged); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}

	// A forged token stays invalid after expiry; it never reads as expired.
	*now = start.Add(2 * time.Hour)
	if _, err := svc.Verify(forged); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid after expiry, got %v", err)
	}
}

func TestTokenService_RejectsForeignTokens(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc, _ := newTestTokens(start)

	other := NewTokenService("another-secret", "identity-test", time.Hour)
	other.now = svc.now
	foreign, _, err := other.Issue(testAccount())
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "42",
		"uid": 42,
		"exp": start.Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}

	cases := map[string]string{
		"wrong secret": foreign,
		"alg none":     none,
		"garbage":      "not-a-token",
		"empty":        "",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.Verify(token); !errors.Is(err, domain.ErrTokenInvalid) {
				t.Fatalf("expected ErrTokenInvalid, got %v", err)
			}
		})
	}
}

func TestTokenService_RejectsMismatchedSubject(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc, _ := newTestTokens(start)

	claims := sessionClaims{
		UserID: 7,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "identity-test",
			Subject:   "not-a-number",
			IssuedAt:  jwt.NewNumericDate(start),
			ExpiresAt: jwt.NewNumericDate(start.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := svc.Verify(token); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestTokenService_Projections(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc, now := newTestTokens(start)

	token, _, err := svc.Issue(testAccount())
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if id, err := svc.Subject(token); err != nil || id != 42 {
		t.Fatalf("Subject = %d, %v", id, err)
	}
	if h, err := svc.Handle(token); err != nil || h != "drsmith" {
		t.Fatalf("Handle = %q, %v", h, err)
	}
	if roles, err := svc.Roles(token); err != nil || len(roles) != 2 {
		t.Fatalf("Roles = %v, %v", roles, err)
	}

	*now = start.Add(time.Hour)
	if _, err := svc.Subject(token); !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("Subject on expired token: expected ErrTokenExpired, got %v", err)
	}
	if _, err := svc.Handle(token + "x"); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("Handle on tampered token: expected ErrTokenInvalid, got %v", err)
	}
}

func TestNewTokenService_DefaultsTTL(t *testing.T) {
	svc := NewTokenService("s", "", 0)
	if svc.ttl != 24*time.Hour {
		t.Fatalf("expected 24h default ttl, got %v", svc.ttl)
	}
}
