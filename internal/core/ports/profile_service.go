package ports

import (
	"context"
	"time"

	"github.com/carepoint/identity-service/internal/core/domain"
)

// Profile inputs are partial: nil fields are left untouched on update.

type PatientProfileInput struct {
	FirstName                *string
	LastName                 *string
	Email                    *string
	Phone                    *string
	DateOfBirth              *time.Time
	Gender                   *string
	BloodGroup               *string
	EmergencyContact         *string
	EmergencyContactRelation *string
	StreetAddress            *string
	City                     *string
	State                    *string
	PostalCode               *string
	Country                  *string
	Active                   *bool
}

type DoctorProfileInput struct {
	FirstName       *string
	LastName        *string
	Phone           *string
	LicenseNumber   *string
	Specialization  *string
	Qualification   *string
	ExperienceYears *int
	ConsultationFee *float64
	Available       *bool
	Active          *bool
}

type AdminProfileInput struct {
	FirstName  *string
	LastName   *string
	Phone      *string
	Department *string
	AdminLevel *string
	Active     *bool
}

// ProfileService manages the caller's role-scoped profiles. The first
// upsert for a role creates the profile and assigns its code.
type ProfileService interface {
	UpsertPatient(ctx context.Context, p *domain.Principal, in PatientProfileInput) (*domain.PatientProfile, error)
	UpsertDoctor(ctx context.Context, p *domain.Principal, in DoctorProfileInput) (*domain.DoctorProfile, error)
	UpsertAdmin(ctx context.Context, p *domain.Principal, in AdminProfileInput) (*domain.AdminProfile, error)
	PatientProfile(ctx context.Context, p *domain.Principal) (*domain.PatientProfile, error)
	DoctorProfile(ctx context.Context, p *domain.Principal) (*domain.DoctorProfile, error)
	AdminProfile(ctx context.Context, p *domain.Principal) (*domain.AdminProfile, error)
	PatientByAccount(ctx context.Context, accountID int64) (*domain.PatientProfile, error)
	DoctorByAccount(ctx context.Context, accountID int64) (*domain.DoctorProfile, error)

	// Administrative operations. Each checks the principal's permissions.
	ListPatients(ctx context.Context, p *domain.Principal, filter domain.ProfileFilter) ([]domain.PatientProfile, error)
	ListDoctors(ctx context.Context, p *domain.Principal, filter domain.ProfileFilter) ([]domain.DoctorProfile, error)
	DeactivatePatient(ctx context.Context, p *domain.Principal, accountID int64) error
	DeactivateDoctor(ctx context.Context, p *domain.Principal, accountID int64) error
}
