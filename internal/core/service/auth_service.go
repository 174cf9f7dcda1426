package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/carepoint/identity-service/internal/core/domain"
	"github.com/carepoint/identity-service/internal/core/ports"
	"github.com/carepoint/identity-service/internal/pkg/metrics"
)

// AuthService implements local signup and login and reconciles federated
// logins against local accounts.
type AuthService struct {
	accounts ports.AccountRepository
	tokens   ports.TokenService
	hasher   ports.PasswordHasher
	events   ports.AuthEventPublisher
	log      zerolog.Logger
	now      func() time.Time
}

// NewAuthService wires the reconciler. A nil events publisher disables the
// audit trail.
func NewAuthService(
	accounts ports.AccountRepository,
	tokens ports.TokenService,
	hasher ports.PasswordHasher,
	events ports.AuthEventPublisher,
	log zerolog.Logger,
) *AuthService {
	if events == nil {
		events = discardEvents{}
	}
	return &AuthService{
		accounts: accounts,
		tokens:   tokens,
		hasher:   hasher,
		events:   events,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

var _ ports.AuthService = (*AuthService)(nil)

type discardEvents struct{}

func (discardEvents) Publish(domain.AuthEvent) {}

// newAccount is what every creation path hands to create.
type newAccount struct {
	handle       string
	email        string
	firstName    string
	lastName     string
	passwordHash string
	provider     domain.Provider
	subject      string
	roles        []domain.Role
}

// Signup registers a local account. Profiles are not created here; each one
// is created the first time its role's profile is written.
func (s *AuthService) Signup(ctx context.Context, in ports.SignupInput) (*domain.Account, error) {
	account, err := s.signup(ctx, in)
	metrics.AuthAttemptsTotal.WithLabelValues("signup", outcome(err)).Inc()
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("account_id", account.ID).Str("username", account.Handle).Msg("account created")
	s.publish(domain.AuthEvent{
		Type:      domain.EventSignup,
		AccountID: account.ID,
		Handle:    account.Handle,
		Provider:  domain.ProviderEmail,
	})
	return account, nil
}

func (s *AuthService) signup(ctx context.Context, in ports.SignupInput) (*domain.Account, error) {
	handle := strings.TrimSpace(in.Handle)
	if handle == "" {
		return nil, fmt.Errorf("%w: username is required", domain.ErrInvalidInput)
	}
	email := normalizeEmail(in.Email)

	taken, err := s.accounts.ExistsHandle(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}
	if taken {
		return nil, domain.ErrDuplicateHandle
	}
	if email != "" {
		taken, err = s.accounts.ExistsEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("signup: %w", err)
		}
		if taken {
			return nil, domain.ErrDuplicateEmail
		}
	}

	roles := domain.NormalizeRoles(in.Roles)
	if len(roles) == 0 {
		roles = []domain.Role{domain.BaseRole}
	}
	for _, r := range roles {
		if !r.Valid() {
			return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, r)
		}
	}

	if strings.TrimSpace(in.Password) == "" {
		return nil, domain.ErrMissingCredential
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}

	return s.create(ctx, newAccount{
		handle:       handle,
		email:        email,
		firstName:    strings.TrimSpace(in.FirstName),
		lastName:     strings.TrimSpace(in.LastName),
		passwordHash: hash,
		provider:     domain.ProviderEmail,
		roles:        roles,
	})
}

// create persists the account. The store's unique indexes are the final
// arbiter; a lost race comes back as ErrDuplicateHandle or ErrDuplicateEmail.
func (s *AuthService) create(ctx context.Context, n newAccount) (*domain.Account, error) {
	now := s.now()
	account := &domain.Account{
		Handle:          n.handle,
		Email:           n.email,
		PasswordHash:    n.passwordHash,
		FirstName:       n.firstName,
		LastName:        n.lastName,
		Provider:        n.provider,
		ProviderSubject: n.subject,
		Roles:           n.roles,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	created, err := s.accounts.Create(ctx, account)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateHandle) || errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	return created, nil
}

// Login verifies local credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, handle, password string) (*ports.LoginResult, error) {
	timer := prometheus.NewTimer(metrics.AuthDuration.WithLabelValues("login"))
	defer timer.ObserveDuration()

	res, err := s.login(ctx, strings.TrimSpace(handle), password)
	metrics.AuthAttemptsTotal.WithLabelValues("login", outcome(err)).Inc()
	if err != nil {
		s.log.Warn().Err(err).Str("username", handle).Msg("login rejected")
		s.publish(domain.AuthEvent{
			Type:     domain.EventLoginFailed,
			Handle:   handle,
			Provider: domain.ProviderEmail,
			Detail:   domain.ErrorCode(err),
		})
		return nil, err
	}

	s.publish(domain.AuthEvent{
		Type:      domain.EventLogin,
		AccountID: res.AccountID,
		Handle:    res.Handle,
		Provider:  domain.ProviderEmail,
	})
	return res, nil
}

func (s *AuthService) login(ctx context.Context, handle, password string) (*ports.LoginResult, error) {
	account, err := s.accounts.FindByHandle(ctx, handle)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("login: %w", err)
	}
	if err := s.hasher.Compare(account.PasswordHash, password); err != nil {
		return nil, err
	}
	return s.issue(account, false)
}

// ReconcileFederated maps a provider identity onto a local account: a
// returning user is matched by (provider, subject), an unknown identity gets
// a new account, and an email already owned by an account that is not bound
// to this identity is refused with ErrProviderConflict.
func (s *AuthService) ReconcileFederated(ctx context.Context, identity domain.FederatedIdentity) (*ports.LoginResult, error) {
	timer := prometheus.NewTimer(metrics.AuthDuration.WithLabelValues("federated"))
	defer timer.ObserveDuration()

	res, err := s.reconcile(ctx, identity)
	metrics.AuthAttemptsTotal.WithLabelValues("federated", outcome(err)).Inc()
	if err != nil {
		s.log.Warn().Err(err).
			Str("provider", string(identity.Provider)).
			Str("subject", identity.Subject).
			Msg("federated login rejected")
		if errors.Is(err, domain.ErrProviderConflict) || errors.Is(err, domain.ErrConflictingEmail) {
			s.publish(domain.AuthEvent{
				Type:     domain.EventFederatedConflict,
				Provider: identity.Provider,
				Detail:   domain.ErrorCode(err),
			})
		}
		return nil, err
	}

	s.publish(domain.AuthEvent{
		Type:      domain.EventFederatedLogin,
		AccountID: res.AccountID,
		Handle:    res.Handle,
		Provider:  identity.Provider,
	})
	return res, nil
}

func (s *AuthService) reconcile(ctx context.Context, identity domain.FederatedIdentity) (*ports.LoginResult, error) {
	identity.Subject = strings.TrimSpace(identity.Subject)
	identity.Email = normalizeEmail(identity.Email)
	if identity.Subject == "" {
		return nil, domain.ErrFederatedIdentityIncomplete
	}
	if identity.Provider == "" || identity.Provider == domain.ProviderEmail {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedProvider, identity.Provider)
	}

	byProvider, err := s.findOptional(s.accounts.FindByProvider(ctx, identity.Provider, identity.Subject))
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}
	var byEmail *domain.Account
	if identity.Email != "" {
		byEmail, err = s.findOptional(s.accounts.FindByEmail(ctx, identity.Email))
		if err != nil {
			return nil, fmt.Errorf("reconcile: %w", err)
		}
	}

	switch {
	case byProvider != nil:
		if err := s.syncFromProvider(ctx, byProvider, identity); err != nil {
			return nil, err
		}
		return s.issue(byProvider, false)

	case byEmail != nil:
		return nil, domain.ErrProviderConflict

	default:
		handle, err := s.deriveHandle(ctx, identity)
		if err != nil {
			return nil, err
		}
		first, last := domain.SplitName(displayName(identity))
		account, err := s.create(ctx, newAccount{
			handle:    handle,
			email:     identity.Email,
			firstName: first,
			lastName:  last,
			provider:  identity.Provider,
			subject:   identity.Subject,
			roles:     []domain.Role{domain.BaseRole},
		})
		if err != nil {
			return nil, err
		}
		s.log.Info().
			Int64("account_id", account.ID).
			Str("username", account.Handle).
			Str("provider", string(account.Provider)).
			Msg("federated account created")
		return s.issue(account, true)
	}
}

// deriveHandle picks the first free candidate among the email local part,
// the full email, the provider login and the subject. When all of them are
// taken it falls back to a provider-scoped subject and leaves the final
// word to the store.
func (s *AuthService) deriveHandle(ctx context.Context, identity domain.FederatedIdentity) (string, error) {
	var candidates []string
	if identity.Email != "" {
		if local, _, ok := strings.Cut(identity.Email, "@"); ok && local != "" {
			candidates = append(candidates, local)
		}
		candidates = append(candidates, identity.Email)
	}
	if login := strings.TrimSpace(identity.Login); login != "" {
		candidates = append(candidates, login)
	}
	candidates = append(candidates, identity.Subject)

	for _, c := range candidates {
		taken, err := s.accounts.ExistsHandle(ctx, c)
		if err != nil {
			return "", fmt.Errorf("derive username: %w", err)
		}
		if !taken {
			return c, nil
		}
	}
	return identity.Provider.RegistrationID() + "_" + identity.Subject, nil
}

// syncFromProvider copies changed non-blank email and name values from the
// provider onto a returning user's account.
func (s *AuthService) syncFromProvider(ctx context.Context, account *domain.Account, identity domain.FederatedIdentity) error {
	changed := false

	if identity.Email != "" && identity.Email != account.Email {
		owner, err := s.findOptional(s.accounts.FindByEmail(ctx, identity.Email))
		if err != nil {
			return fmt.Errorf("sync account: %w", err)
		}
		if owner != nil && owner.ID != account.ID {
			return domain.ErrConflictingEmail
		}
		account.Email = identity.Email
		changed = true
	}

	first, last := domain.SplitName(displayName(identity))
	if first != "" && first != account.FirstName {
		account.FirstName = first
		changed = true
	}
	if last != "" && last != account.LastName {
		account.LastName = last
		changed = true
	}

	if !changed {
		return nil
	}
	account.UpdatedAt = s.now()
	if err := s.accounts.Update(ctx, account); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return domain.ErrConflictingEmail
		}
		return fmt.Errorf("sync account: %w", err)
	}
	s.log.Debug().Int64("account_id", account.ID).Msg("account synced from provider")
	return nil
}

// UpdateRoles replaces an account's roles. Tokens already issued keep their
// embedded roles, but authenticated requests read the new ones immediately.
func (s *AuthService) UpdateRoles(ctx context.Context, accountID int64, roles []domain.Role) (*domain.Account, error) {
	roles = domain.NormalizeRoles(roles)
	if len(roles) == 0 {
		return nil, fmt.Errorf("%w: at least one role is required", domain.ErrInvalidInput)
	}
	for _, r := range roles {
		if !r.Valid() {
			return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, r)
		}
	}

	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	account.Roles = roles
	account.UpdatedAt = s.now()
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, fmt.Errorf("update roles: %w", err)
	}

	s.log.Info().Int64("account_id", account.ID).Strs("roles", account.RoleNames()).Msg("roles updated")
	s.publish(domain.AuthEvent{
		Type:      domain.EventRolesUpdated,
		AccountID: account.ID,
		Handle:    account.Handle,
		Detail:    strings.Join(account.RoleNames(), ","),
	})
	return account, nil
}

func (s *AuthService) FindAccount(ctx context.Context, accountID int64) (*domain.Account, error) {
	return s.accounts.FindByID(ctx, accountID)
}

func (s *AuthService) issue(account *domain.Account, created bool) (*ports.LoginResult, error) {
	token, expiresAt, err := s.tokens.Issue(account)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &ports.LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		AccountID: account.ID,
		Handle:    account.Handle,
		Roles:     account.RoleNames(),
		Created:   created,
	}, nil
}

func (s *AuthService) publish(event domain.AuthEvent) {
	event.ID = uuid.NewString()
	event.OccurredAt = s.now()
	s.events.Publish(event)
}

// findOptional turns ErrAccountNotFound into a nil account.
func (s *AuthService) findOptional(account *domain.Account, err error) (*domain.Account, error) {
	if errors.Is(err, domain.ErrAccountNotFound) {
		return nil, nil
	}
	return account, err
}

func displayName(identity domain.FederatedIdentity) string {
	if name := strings.TrimSpace(identity.DisplayName); name != "" {
		return name
	}
	return strings.TrimSpace(identity.Login)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// outcome is the metric label for a result.
func outcome(err error) string {
	if err == nil {
		return "success"
	}
	return domain.ErrorCode(err)
}
