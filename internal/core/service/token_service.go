package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/carepoint/identity-service/internal/core/domain"
)

const defaultTokenTTL = 24 * time.Hour

// sessionClaims is the wire shape of a session token.
type sessionClaims struct {
	UserID int64    `json:"uid"`
	Handle string   `json:"handle"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies HS256 session tokens with a single
// process-wide secret.
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret, issuer string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &TokenService{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a token for account valid for the configured lifetime.
func (s *TokenService) Issue(account *domain.Account) (string, time.Time, error) {
	now := s.now().Truncate(time.Second)
	exp := now.Add(s.ttl)

	claims := sessionClaims{
		UserID: account.ID,
		Handle: account.Handle,
		Roles:  account.RoleNames(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   strconv.FormatInt(account.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify checks the signature first and the time window second, so a forged
// token is always reported as invalid even when its exp is in the past.
func (s *TokenService) Verify(token string) (*domain.TokenClaims, error) {
	claims := &sessionClaims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) && !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, domain.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenInvalid, err)
	}
	if !parsed.Valid {
		return nil, domain.ErrTokenInvalid
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 || id != claims.UserID {
		return nil, fmt.Errorf("%w: bad subject", domain.ErrTokenInvalid)
	}

	return &domain.TokenClaims{
		AccountID: id,
		Handle:    claims.Handle,
		Roles:     claims.Roles,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Subject verifies token and returns the account id it was issued for.
func (s *TokenService) Subject(token string) (int64, error) {
	c, err := s.Verify(token)
	if err != nil {
		return 0, err
	}
	return c.AccountID, nil
}

// Handle verifies token and returns the embedded username.
func (s *TokenService) Handle(token string) (string, error) {
	c, err := s.Verify(token)
	if err != nil {
		return "", err
	}
	return c.Handle, nil
}

// Roles verifies token and returns the roles embedded at issuance. These may
// be stale; the middleware reads current roles from the account instead.
func (s *TokenService) Roles(token string) ([]string, error) {
	c, err := s.Verify(token)
	if err != nil {
		return nil, err
	}
	return c.Roles, nil
}
