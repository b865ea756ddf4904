package domain

import "strings"

// Lead is the set of fields collected by the demo-booking flow. The empty
// string is the canonical "not yet collected" sentinel for every field.
type Lead struct {
	Name    string
	Email   string
	Company string
	Message string
}

// Complete reports whether every field has been collected.
func (l Lead) Complete() bool {
	return l.Name != "" && l.Email != "" && l.Company != "" && l.Message != ""
}

// NormalizedEmail lower-cases and trims the e-mail for duplicate matching.
func (l Lead) NormalizedEmail() string {
	return strings.ToLower(strings.TrimSpace(l.Email))
}
