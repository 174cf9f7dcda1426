package domain

import "strings"

// FederatedIdentity is what a provider adapter extracts from a provider's
// user info. Subject is mandatory; everything else may be blank.
type FederatedIdentity struct {
	Provider    Provider
	Subject     string
	Email       string
	DisplayName string
	// Login is the provider-specific fallback handle (GitHub login).
	Login string
}

// SplitName splits a display name into first and last name on the first
// whitespace run.
func SplitName(name string) (first, last string) {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}
