package workflow

import (
	"regexp"
	"strings"
)

// Basic local@domain.tld shape; the mailbox is verified by actually mailing it.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s.]+$`)

// ValidateSigner checks the signature form input: non-blank names and a
// plausible email address.
func ValidateSigner(firstName, lastName, email string) error {
	if strings.TrimSpace(firstName) == "" {
		return &ValidationError{Field: "first_name", Reason: "must not be blank"}
	}
	if strings.TrimSpace(lastName) == "" {
		return &ValidationError{Field: "last_name", Reason: "must not be blank"}
	}
	if !emailPattern.MatchString(strings.TrimSpace(email)) {
		return &ValidationError{Field: "email", Reason: "must be a valid address"}
	}
	return nil
}
