package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role is one of the three flat roles an account can hold.
type Role string

const (
	RolePatient Role = "PATIENT"
	RoleDoctor  Role = "DOCTOR"
	RoleAdmin   Role = "ADMIN"
)

// BaseRole is assigned when a signup requests no roles.
const BaseRole = RolePatient

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := rolePermissions[r]
	return ok
}

// ParseRole accepts a role name in any case.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
	}
	return r, nil
}

// Provider identifies where an account's credentials live.
type Provider string

const (
	ProviderEmail    Provider = "EMAIL"
	ProviderGoogle   Provider = "GOOGLE"
	ProviderGithub   Provider = "GITHUB"
	ProviderFacebook Provider = "FACEBOOK"
)

// ParseProvider maps an OAuth registration id ("google", "github", ...) to a Provider.
func ParseProvider(registrationID string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(registrationID)) {
	case "google":
		return ProviderGoogle, nil
	case "github":
		return ProviderGithub, nil
	case "facebook":
		return ProviderFacebook, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedProvider, registrationID)
	}
}

// RegistrationID is the lower-case name used in OAuth routes.
func (p Provider) RegistrationID() string {
	return strings.ToLower(string(p))
}

// Account is the durable identity record.
type Account struct {
	ID              int64     `json:"id"`
	Handle          string    `json:"username"`
	Email           string    `json:"email,omitempty"`
	PasswordHash    string    `json:"-"`
	FirstName       string    `json:"first_name,omitempty"`
	LastName        string    `json:"last_name,omitempty"`
	Provider        Provider  `json:"provider"`
	ProviderSubject string    `json:"-"`
	Roles           []Role    `json:"roles"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// HasRole reports whether the account currently holds r.
func (a *Account) HasRole(r Role) bool {
	for _, have := range a.Roles {
		if have == r {
			return true
		}
	}
	return false
}

// RoleNames returns the roles as plain strings, in stored order.
func (a *Account) RoleNames() []string {
	names := make([]string, len(a.Roles))
	for i, r := range a.Roles {
		names[i] = string(r)
	}
	return names
}

// NormalizeRoles dedupes roles preserving first occurrence.
func NormalizeRoles(roles []Role) []Role {
	seen := make(map[Role]struct{}, len(roles))
	out := make([]Role, 0, len(roles))
	for _, r := range roles {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
