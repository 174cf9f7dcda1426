package domain

import (
	"context"
	"slices"
)

// Principal is the authenticated caller for the duration of one request.
type Principal struct {
	ID          int64
	Handle      string
	Roles       []Role
	Permissions []Permission
}

// NewPrincipal derives the permission set from the account's current roles.
func NewPrincipal(a *Account) *Principal {
	roles := slices.Clone(a.Roles)
	return &Principal{
		ID:          a.ID,
		Handle:      a.Handle,
		Roles:       roles,
		Permissions: PermissionsFor(roles...),
	}
}

func (p *Principal) HasRole(r Role) bool {
	return slices.Contains(p.Roles, r)
}

func (p *Principal) HasAnyRole(roles ...Role) bool {
	for _, r := range roles {
		if p.HasRole(r) {
			return true
		}
	}
	return false
}

func (p *Principal) HasPermission(perm Permission) bool {
	return slices.Contains(p.Permissions, perm)
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the request's principal, or nil when the
// request is unauthenticated.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}
