package ports

import (
	"context"

	"github.com/carepoint/identity-service/internal/core/domain"
)

// ProfileStore persists one kind of role-scoped profile keyed by account id.
// FindByAccountID returns domain.ErrProfileNotFound when absent.
//
// Create inserts the first profile of an account and returns
// domain.ErrProfileConflict when the account already has one or the code is
// taken, so of two concurrent creations exactly one wins. Save replaces an
// existing profile and returns domain.ErrProfileNotFound when there is none.
type ProfileStore[T any] interface {
	FindByAccountID(ctx context.Context, accountID int64) (*T, error)
	Create(ctx context.Context, profile *T) error
	Save(ctx context.Context, profile *T) error
	ExistsCode(ctx context.Context, code string) (bool, error)
	// List returns profiles ordered by account id.
	List(ctx context.Context, filter domain.ProfileFilter) ([]T, error)
}

type (
	PatientStore = ProfileStore[domain.PatientProfile]
	DoctorStore  = ProfileStore[domain.DoctorProfile]
	AdminStore   = ProfileStore[domain.AdminProfile]
)
