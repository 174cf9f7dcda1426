package domain

import "sort"

// Permission is a fine-grained capability derived from roles.
type Permission string

const (
	PermPatientProfileRead  Permission = "patient:profile:read"
	PermPatientProfileWrite Permission = "patient:profile:write"
	PermDoctorProfileRead   Permission = "doctor:profile:read"
	PermDoctorProfileWrite  Permission = "doctor:profile:write"
	PermAdminProfileRead    Permission = "admin:profile:read"
	PermAdminProfileWrite   Permission = "admin:profile:write"
	PermPatientRead         Permission = "patient:read"
	PermPatientDelete       Permission = "patient:delete"
	PermDoctorRead          Permission = "doctor:read"
	PermDoctorDelete        Permission = "doctor:delete"
	PermAppointmentRead     Permission = "appointment:read"
	PermAppointmentBook     Permission = "appointment:book"
	PermAppointmentManage   Permission = "appointment:manage"
	PermAccountRead         Permission = "account:read"
	PermAccountRolesWrite   Permission = "account:roles:write"
)

// rolePermissions is read-only after package init.
var rolePermissions = map[Role][]Permission{
	RolePatient: {
		PermPatientProfileRead,
		PermPatientProfileWrite,
		PermAppointmentRead,
		PermAppointmentBook,
	},
	RoleDoctor: {
		PermDoctorProfileRead,
		PermDoctorProfileWrite,
		PermPatientRead,
		PermAppointmentRead,
		PermAppointmentManage,
	},
	RoleAdmin: {
		PermAdminProfileRead,
		PermAdminProfileWrite,
		PermPatientRead,
		PermPatientDelete,
		PermDoctorRead,
		PermDoctorDelete,
		PermAccountRead,
		PermAccountRolesWrite,
	},
}

// Roles lists every role known to the system.
func Roles() []Role {
	return []Role{RolePatient, RoleDoctor, RoleAdmin}
}

// PermissionsFor returns the sorted union of the permissions granted by roles.
// Unknown roles contribute nothing.
func PermissionsFor(roles ...Role) []Permission {
	set := make(map[Permission]struct{})
	for _, r := range roles {
		for _, p := range rolePermissions[r] {
			set[p] = struct{}{}
		}
	}
	out := make([]Permission, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
