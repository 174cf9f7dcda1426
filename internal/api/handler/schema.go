package handler

import (
	"time"

	"github.com/carepoint/identity-service/internal/core/domain"
	"github.com/carepoint/identity-service/internal/core/ports"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// --- Auth ---

type signupRequest struct {
	Username  string   `json:"username"   validate:"required,min=3,max=64"`
	Password  string   `json:"password"   validate:"required,min=6,max=72"`
	FirstName string   `json:"first_name" validate:"max=100"`
	LastName  string   `json:"last_name"  validate:"max=100"`
	Email     string   `json:"email"      validate:"omitempty,email"`
	Roles     []string `json:"roles"      validate:"omitempty,dive,role"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Roles     []string  `json:"roles"`
	Created   bool      `json:"created,omitempty"`
}

func toLoginResponse(r *ports.LoginResult) loginResponse {
	return loginResponse{
		Token:     r.Token,
		TokenType: "Bearer",
		ExpiresAt: r.ExpiresAt,
		ID:        r.AccountID,
		Username:  r.Handle,
		Roles:     r.Roles,
		Created:   r.Created,
	}
}

type meResponse struct {
	Account     *domain.Account `json:"account"`
	Permissions []string        `json:"permissions"`
}

type updateRolesRequest struct {
	Roles []string `json:"roles" validate:"required,min=1,dive,role"`
}

// --- Profiles ---

type patientProfileRequest struct {
	FirstName                *string `json:"first_name"                 validate:"omitempty,max=100"`
	LastName                 *string `json:"last_name"                  validate:"omitempty,max=100"`
	Email                    *string `json:"email"                      validate:"omitempty,email"`
	Phone                    *string `json:"phone_number"               validate:"omitempty,max=32"`
	DateOfBirth              *string `json:"date_of_birth"              validate:"omitempty,datetime=2006-01-02"`
	Gender                   *string `json:"gender"                     validate:"omitempty,max=32"`
	BloodGroup               *string `json:"blood_group"                validate:"omitempty,max=8"`
	EmergencyContact         *string `json:"emergency_contact"          validate:"omitempty,max=64"`
	EmergencyContactRelation *string `json:"emergency_contact_relation" validate:"omitempty,max=64"`
	StreetAddress            *string `json:"street_address"             validate:"omitempty,max=200"`
	City                     *string `json:"city"                       validate:"omitempty,max=100"`
	State                    *string `json:"state"                      validate:"omitempty,max=100"`
	PostalCode               *string `json:"postal_code"                validate:"omitempty,max=20"`
	Country                  *string `json:"country"                    validate:"omitempty,max=100"`
	Active                   *bool   `json:"active"`
}

func (r patientProfileRequest) toInput() (ports.PatientProfileInput, error) {
	in := ports.PatientProfileInput{
		FirstName:                r.FirstName,
		LastName:                 r.LastName,
		Email:                    r.Email,
		Phone:                    r.Phone,
		Gender:                   r.Gender,
		BloodGroup:               r.BloodGroup,
		EmergencyContact:         r.EmergencyContact,
		EmergencyContactRelation: r.EmergencyContactRelation,
		StreetAddress:            r.StreetAddress,
		City:                     r.City,
		State:                    r.State,
		PostalCode:               r.PostalCode,
		Country:                  r.Country,
		Active:                   r.Active,
	}
	if r.DateOfBirth != nil {
		dob, err := time.Parse(time.DateOnly, *r.DateOfBirth)
		if err != nil {
			return in, err
		}
		in.DateOfBirth = &dob
	}
	return in, nil
}

// listProfilesRequest is bound from the query string of the admin listings.
type listProfilesRequest struct {
	Name           string `query:"name"           json:"name"           validate:"max=100"`
	Specialization string `query:"specialization" json:"specialization" validate:"max=100"`
	ActiveOnly     bool   `query:"active_only"    json:"active_only"`
	Limit          int    `query:"limit"          json:"limit"          validate:"omitempty,min=1,max=200"`
	Offset         int    `query:"offset"         json:"offset"         validate:"min=0"`
}

func (r listProfilesRequest) toFilter() domain.ProfileFilter {
	return domain.ProfileFilter{
		Name:           r.Name,
		Specialization: r.Specialization,
		ActiveOnly:     r.ActiveOnly,
		Limit:          r.Limit,
		Offset:         r.Offset,
	}
}

type doctorProfileRequest struct {
	FirstName       *string  `json:"first_name"       validate:"omitempty,max=100"`
	LastName        *string  `json:"last_name"        validate:"omitempty,max=100"`
	Phone           *string  `json:"phone_number"     validate:"omitempty,max=32"`
	LicenseNumber   *string  `json:"license_number"   validate:"omitempty,max=64"`
	Specialization  *string  `json:"specialization"   validate:"omitempty,max=100"`
	Qualification   *string  `json:"qualification"    validate:"omitempty,max=200"`
	ExperienceYears *int     `json:"experience_years" validate:"omitempty,min=0,max=80"`
	ConsultationFee *float64 `json:"consultation_fee" validate:"omitempty,min=0"`
	Available       *bool    `json:"available"`
	Active          *bool    `json:"active"`
}

func (r doctorProfileRequest) toInput() ports.DoctorProfileInput {
	return ports.DoctorProfileInput{
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		Phone:           r.Phone,
		LicenseNumber:   r.LicenseNumber,
		Specialization:  r.Specialization,
		Qualification:   r.Qualification,
		ExperienceYears: r.ExperienceYears,
		ConsultationFee: r.ConsultationFee,
		Available:       r.Available,
		Active:          r.Active,
	}
}

type adminProfileRequest struct {
	FirstName  *string `json:"first_name"   validate:"omitempty,max=100"`
	LastName   *string `json:"last_name"    validate:"omitempty,max=100"`
	Phone      *string `json:"phone_number" validate:"omitempty,max=32"`
	Department *string `json:"department"   validate:"omitempty,max=100"`
	AdminLevel *string `json:"admin_level"  validate:"omitempty,max=32"`
	Active     *bool   `json:"active"`
}

func (r adminProfileRequest) toInput() ports.AdminProfileInput {
	return ports.AdminProfileInput{
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Phone:      r.Phone,
		Department: r.Department,
		AdminLevel: r.AdminLevel,
		Active:     r.Active,
	}
}
