package handler

import (
	"strings"
	"testing"
)

func TestValidator_Messages(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name string
		req  any
		want []string
	}{
		{"valid", signupRequest{Username: "alice", Password: "secret1", Roles: []string{"doctor"}}, nil},
		{"missing fields", signupRequest{}, []string{"username is required", "password is required"}},
		{"short password", signupRequest{Username: "alice", Password: "x"}, []string{"password must be at least 6"}},
		{"unknown role", signupRequest{Username: "alice", Password: "secret1", Roles: []string{"nurse"}}, []string{"must be one of PATIENT, DOCTOR or ADMIN"}},
		{"empty roles", updateRolesRequest{Roles: []string{}}, []string{"roles must contain at least 1 item(s)"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Validate(tc.req)
			if tc.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected validation error")
			}
			for _, w := range tc.want {
				if !strings.Contains(err.Error(), w) {
					t.Fatalf("error %q does not mention %q", err, w)
				}
			}
		})
	}
}
