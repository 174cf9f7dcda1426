package domain

import "time"

// PatientProfile is the PATIENT satellite of an account. PatientCode is
// assigned on creation and never changes.
type PatientProfile struct {
	AccountID                int64      `json:"account_id" bson:"account_id"`
	PatientCode              string     `json:"patient_id" bson:"patient_code"`
	FirstName                string     `json:"first_name,omitempty" bson:"first_name,omitempty"`
	LastName                 string     `json:"last_name,omitempty" bson:"last_name,omitempty"`
	Email                    string     `json:"email,omitempty" bson:"email,omitempty"`
	Phone                    string     `json:"phone_number,omitempty" bson:"phone,omitempty"`
	DateOfBirth              *time.Time `json:"date_of_birth,omitempty" bson:"date_of_birth,omitempty"`
	Gender                   string     `json:"gender,omitempty" bson:"gender,omitempty"`
	BloodGroup               string     `json:"blood_group,omitempty" bson:"blood_group,omitempty"`
	EmergencyContact         string     `json:"emergency_contact,omitempty" bson:"emergency_contact,omitempty"`
	EmergencyContactRelation string     `json:"emergency_contact_relation,omitempty" bson:"emergency_contact_relation,omitempty"`
	StreetAddress            string     `json:"street_address,omitempty" bson:"street_address,omitempty"`
	City                     string     `json:"city,omitempty" bson:"city,omitempty"`
	State                    string     `json:"state,omitempty" bson:"state,omitempty"`
	PostalCode               string     `json:"postal_code,omitempty" bson:"postal_code,omitempty"`
	Country                  string     `json:"country,omitempty" bson:"country,omitempty"`
	Active                   bool       `json:"active" bson:"active"`
	CreatedAt                time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt                time.Time  `json:"updated_at" bson:"updated_at"`
}

// DoctorProfile is the DOCTOR satellite of an account.
type DoctorProfile struct {
	AccountID       int64     `json:"account_id" bson:"account_id"`
	DoctorCode      string    `json:"doctor_id" bson:"doctor_code"`
	FirstName       string    `json:"first_name,omitempty" bson:"first_name,omitempty"`
	LastName        string    `json:"last_name,omitempty" bson:"last_name,omitempty"`
	Phone           string    `json:"phone_number,omitempty" bson:"phone,omitempty"`
	LicenseNumber   string    `json:"license_number,omitempty" bson:"license_number,omitempty"`
	Specialization  string    `json:"specialization,omitempty" bson:"specialization,omitempty"`
	Qualification   string    `json:"qualification,omitempty" bson:"qualification,omitempty"`
	ExperienceYears int       `json:"experience_years,omitempty" bson:"experience_years,omitempty"`
	ConsultationFee float64   `json:"consultation_fee,omitempty" bson:"consultation_fee,omitempty"`
	Available       bool      `json:"available" bson:"available"`
	Active          bool      `json:"active" bson:"active"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" bson:"updated_at"`
}

// AdminProfile is the ADMIN satellite of an account.
type AdminProfile struct {
	AccountID  int64     `json:"account_id" bson:"account_id"`
	AdminCode  string    `json:"admin_id" bson:"admin_code"`
	FirstName  string    `json:"first_name,omitempty" bson:"first_name,omitempty"`
	LastName   string    `json:"last_name,omitempty" bson:"last_name,omitempty"`
	Phone      string    `json:"phone_number,omitempty" bson:"phone,omitempty"`
	Department string    `json:"department,omitempty" bson:"department,omitempty"`
	AdminLevel string    `json:"admin_level,omitempty" bson:"admin_level,omitempty"`
	Active     bool      `json:"active" bson:"active"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at"`
}

const (
	DefaultProfileListLimit = 50
	MaxProfileListLimit     = 200
)

// ProfileFilter narrows an administrative profile listing. Name matches
// first or last name, case-insensitively. Specialization applies to
// doctors only.
type ProfileFilter struct {
	Name           string
	Specialization string
	ActiveOnly     bool
	Limit          int
	Offset         int
}

// Normalized clamps paging to the supported window.
func (f ProfileFilter) Normalized() ProfileFilter {
	switch {
	case f.Limit <= 0:
		f.Limit = DefaultProfileListLimit
	case f.Limit > MaxProfileListLimit:
		f.Limit = MaxProfileListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
