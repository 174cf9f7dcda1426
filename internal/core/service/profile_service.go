package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/carepoint/identity-service/internal/core/domain"
	"github.com/carepoint/identity-service/internal/core/ports"
	"github.com/carepoint/identity-service/internal/pkg/metrics"
)

// ProfileService keeps the role-scoped profiles of an account. A profile is
// created by the first upsert for its role, which is also when its code is
// generated.
type ProfileService struct {
	accounts ports.AccountRepository
	patients ports.PatientStore
	doctors  ports.DoctorStore
	admins   ports.AdminStore
	codes    *CodeGenerator
	log      zerolog.Logger
	now      func() time.Time
}

func NewProfileService(
	accounts ports.AccountRepository,
	patients ports.PatientStore,
	doctors ports.DoctorStore,
	admins ports.AdminStore,
	codes *CodeGenerator,
	log zerolog.Logger,
) *ProfileService {
	if codes == nil {
		codes = NewCodeGenerator()
	}
	return &ProfileService{
		accounts: accounts,
		patients: patients,
		doctors:  doctors,
		admins:   admins,
		codes:    codes,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

var _ ports.ProfileService = (*ProfileService)(nil)

func (s *ProfileService) UpsertPatient(ctx context.Context, p *domain.Principal, in ports.PatientProfileInput) (*domain.PatientProfile, error) {
	account, err := s.ownerAccount(ctx, p, domain.RolePatient)
	if err != nil {
		return nil, err
	}
	profile, err := s.patients.FindByAccountID(ctx, account.ID)
	created := errors.Is(err, domain.ErrProfileNotFound)
	if err != nil && !created {
		return nil, fmt.Errorf("load patient profile: %w", err)
	}

	now := s.now()
	if created {
		profile = &domain.PatientProfile{
			AccountID: account.ID,
			FirstName: account.FirstName,
			LastName:  account.LastName,
			Email:     account.Email,
			Active:    true,
			CreatedAt: now,
		}
	}
	setString(&profile.FirstName, in.FirstName)
	setString(&profile.LastName, in.LastName)
	setString(&profile.Phone, in.Phone)
	setString(&profile.Gender, in.Gender)
	setString(&profile.BloodGroup, in.BloodGroup)
	setString(&profile.EmergencyContact, in.EmergencyContact)
	setString(&profile.EmergencyContactRelation, in.EmergencyContactRelation)
	setString(&profile.StreetAddress, in.StreetAddress)
	setString(&profile.City, in.City)
	setString(&profile.State, in.State)
	setString(&profile.PostalCode, in.PostalCode)
	setString(&profile.Country, in.Country)
	setBool(&profile.Active, in.Active)
	if in.Email != nil {
		profile.Email = normalizeEmail(*in.Email)
	}
	if in.DateOfBirth != nil {
		dob := in.DateOfBirth.UTC()
		profile.DateOfBirth = &dob
	}
	profile.UpdatedAt = now

	if err := s.checkEmail(ctx, account, profile.Email); err != nil {
		return nil, err
	}
	if created {
		profile.PatientCode, err = s.codes.Generate(ctx, PatientCodeSpec(profile.DateOfBirth, account.Handle), s.patients.ExistsCode)
		if err != nil {
			return nil, fmt.Errorf("patient code: %w", err)
		}
	}
	if err := persist(ctx, s.patients, created, profile); err != nil {
		return nil, err
	}
	if created {
		s.created(domain.RolePatient, account.ID, profile.PatientCode)
	}
	if err := s.syncAccount(ctx, account, profile.FirstName, profile.LastName, profile.Email); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *ProfileService) UpsertDoctor(ctx context.Context, p *domain.Principal, in ports.DoctorProfileInput) (*domain.DoctorProfile, error) {
	account, err := s.ownerAccount(ctx, p, domain.RoleDoctor)
	if err != nil {
		return nil, err
	}
	profile, err := s.doctors.FindByAccountID(ctx, account.ID)
	created := errors.Is(err, domain.ErrProfileNotFound)
	if err != nil && !created {
		return nil, fmt.Errorf("load doctor profile: %w", err)
	}

	now := s.now()
	if created {
		profile = &domain.DoctorProfile{
			AccountID: account.ID,
			FirstName: account.FirstName,
			LastName:  account.LastName,
			Available: true,
			Active:    true,
			CreatedAt: now,
		}
	}
	setString(&profile.FirstName, in.FirstName)
	setString(&profile.LastName, in.LastName)
	setString(&profile.Phone, in.Phone)
	setString(&profile.LicenseNumber, in.LicenseNumber)
	setString(&profile.Specialization, in.Specialization)
	setString(&profile.Qualification, in.Qualification)
	setBool(&profile.Available, in.Available)
	setBool(&profile.Active, in.Active)
	if in.ExperienceYears != nil {
		if *in.ExperienceYears < 0 {
			return nil, fmt.Errorf("%w: experience years must not be negative", domain.ErrInvalidInput)
		}
		profile.ExperienceYears = *in.ExperienceYears
	}
	if in.ConsultationFee != nil {
		if *in.ConsultationFee < 0 {
			return nil, fmt.Errorf("%w: consultation fee must not be negative", domain.ErrInvalidInput)
		}
		profile.ConsultationFee = *in.ConsultationFee
	}
	profile.UpdatedAt = now

	if created {
		profile.DoctorCode, err = s.codes.Generate(ctx, DoctorCodeSpec(profile.LicenseNumber, account.Handle), s.doctors.ExistsCode)
		if err != nil {
			return nil, fmt.Errorf("doctor code: %w", err)
		}
	}
	if err := persist(ctx, s.doctors, created, profile); err != nil {
		return nil, err
	}
	if created {
		s.created(domain.RoleDoctor, account.ID, profile.DoctorCode)
	}
	if err := s.syncAccount(ctx, account, profile.FirstName, profile.LastName, ""); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *ProfileService) UpsertAdmin(ctx context.Context, p *domain.Principal, in ports.AdminProfileInput) (*domain.AdminProfile, error) {
	account, err := s.ownerAccount(ctx, p, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	profile, err := s.admins.FindByAccountID(ctx, account.ID)
	created := errors.Is(err, domain.ErrProfileNotFound)
	if err != nil && !created {
		return nil, fmt.Errorf("load admin profile: %w", err)
	}

	now := s.now()
	if created {
		profile = &domain.AdminProfile{
			AccountID: account.ID,
			FirstName: account.FirstName,
			LastName:  account.LastName,
			Active:    true,
			CreatedAt: now,
		}
	}
	setString(&profile.FirstName, in.FirstName)
	setString(&profile.LastName, in.LastName)
	setString(&profile.Phone, in.Phone)
	setString(&profile.Department, in.Department)
	setString(&profile.AdminLevel, in.AdminLevel)
	setBool(&profile.Active, in.Active)
	profile.UpdatedAt = now

	if created {
		spec := AdminCodeSpec(profile.Department, profile.AdminLevel, account.Handle)
		profile.AdminCode, err = s.codes.Generate(ctx, spec, s.admins.ExistsCode)
		if err != nil {
			return nil, fmt.Errorf("admin code: %w", err)
		}
	}
	if err := persist(ctx, s.admins, created, profile); err != nil {
		return nil, err
	}
	if created {
		s.created(domain.RoleAdmin, account.ID, profile.AdminCode)
	}
	if err := s.syncAccount(ctx, account, profile.FirstName, profile.LastName, ""); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *ProfileService) PatientProfile(ctx context.Context, p *domain.Principal) (*domain.PatientProfile, error) {
	if err := requireRole(p, domain.RolePatient); err != nil {
		return nil, err
	}
	return s.patients.FindByAccountID(ctx, p.ID)
}

func (s *ProfileService) DoctorProfile(ctx context.Context, p *domain.Principal) (*domain.DoctorProfile, error) {
	if err := requireRole(p, domain.RoleDoctor); err != nil {
		return nil, err
	}
	return s.doctors.FindByAccountID(ctx, p.ID)
}

func (s *ProfileService) AdminProfile(ctx context.Context, p *domain.Principal) (*domain.AdminProfile, error) {
	if err := requireRole(p, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.admins.FindByAccountID(ctx, p.ID)
}

func (s *ProfileService) PatientByAccount(ctx context.Context, accountID int64) (*domain.PatientProfile, error) {
	return s.patients.FindByAccountID(ctx, accountID)
}

func (s *ProfileService) DoctorByAccount(ctx context.Context, accountID int64) (*domain.DoctorProfile, error) {
	return s.doctors.FindByAccountID(ctx, accountID)
}

func (s *ProfileService) ListPatients(ctx context.Context, p *domain.Principal, f domain.ProfileFilter) ([]domain.PatientProfile, error) {
	if err := requirePermission(p, domain.PermPatientRead); err != nil {
		return nil, err
	}
	f.Specialization = ""
	return s.patients.List(ctx, f.Normalized())
}

func (s *ProfileService) ListDoctors(ctx context.Context, p *domain.Principal, f domain.ProfileFilter) ([]domain.DoctorProfile, error) {
	if err := requirePermission(p, domain.PermDoctorRead); err != nil {
		return nil, err
	}
	return s.doctors.List(ctx, f.Normalized())
}

// DeactivatePatient marks a patient profile inactive. The profile and its
// code are kept; deactivating twice is a no-op.
func (s *ProfileService) DeactivatePatient(ctx context.Context, p *domain.Principal, accountID int64) error {
	if err := requirePermission(p, domain.PermPatientDelete); err != nil {
		return err
	}
	profile, err := s.patients.FindByAccountID(ctx, accountID)
	if err != nil {
		return err
	}
	if !profile.Active {
		return nil
	}
	profile.Active = false
	profile.UpdatedAt = s.now()
	if err := s.patients.Save(ctx, profile); err != nil {
		return err
	}
	s.deactivated(p, domain.RolePatient, accountID)
	return nil
}

func (s *ProfileService) DeactivateDoctor(ctx context.Context, p *domain.Principal, accountID int64) error {
	if err := requirePermission(p, domain.PermDoctorDelete); err != nil {
		return err
	}
	profile, err := s.doctors.FindByAccountID(ctx, accountID)
	if err != nil {
		return err
	}
	if !profile.Active {
		return nil
	}
	profile.Active = false
	profile.Available = false
	profile.UpdatedAt = s.now()
	if err := s.doctors.Save(ctx, profile); err != nil {
		return err
	}
	s.deactivated(p, domain.RoleDoctor, accountID)
	return nil
}

// persist inserts a new profile and replaces an existing one. Inserting
// lets the account index reject the loser of two concurrent first upserts.
func persist[T any](ctx context.Context, store ports.ProfileStore[T], created bool, profile *T) error {
	if created {
		return store.Create(ctx, profile)
	}
	return store.Save(ctx, profile)
}

// ownerAccount loads the caller's account after checking the role. Roles
// are checked against the account as stored, not the principal alone.
func (s *ProfileService) ownerAccount(ctx context.Context, p *domain.Principal, role domain.Role) (*domain.Account, error) {
	if err := requireRole(p, role); err != nil {
		return nil, err
	}
	account, err := s.accounts.FindByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if !account.HasRole(role) {
		return nil, domain.ErrForbidden
	}
	return account, nil
}

// checkEmail fails with ErrConflictingEmail when email belongs to another account.
func (s *ProfileService) checkEmail(ctx context.Context, account *domain.Account, email string) error {
	if email == "" || email == account.Email {
		return nil
	}
	owner, err := s.accounts.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("check email: %w", err)
	case owner.ID != account.ID:
		return domain.ErrConflictingEmail
	}
	return nil
}

// syncAccount mirrors non-blank profile names and email onto the account.
func (s *ProfileService) syncAccount(ctx context.Context, account *domain.Account, first, last, email string) error {
	changed := false
	if first != "" && first != account.FirstName {
		account.FirstName = first
		changed = true
	}
	if last != "" && last != account.LastName {
		account.LastName = last
		changed = true
	}
	if email != "" && email != account.Email {
		account.Email = email
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
	return nil
}

func (s *ProfileService) created(role domain.Role, accountID int64, code string) {
	metrics.ProfilesCreatedTotal.WithLabelValues(string(role)).Inc()
	s.log.Info().
		Int64("account_id", accountID).
		Str("role", string(role)).
		Str("code", code).
		Msg("profile created")
}

func (s *ProfileService) deactivated(p *domain.Principal, role domain.Role, accountID int64) {
	s.log.Info().
		Int64("account_id", accountID).
		Int64("by", p.ID).
		Str("role", string(role)).
		Msg("profile deactivated")
}

func requirePermission(p *domain.Principal, perm domain.Permission) error {
	if p == nil || !p.HasPermission(perm) {
		return domain.ErrForbidden
	}
	return nil
}

func requireRole(p *domain.Principal, role domain.Role) error {
	if p == nil || !p.HasRole(role) {
		return domain.ErrForbidden
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
