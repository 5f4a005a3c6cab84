package validator

import (
	"errors"
	"strings"
)

// ValidateEmail checks the minimal shape required for registration: a single
// "@" separating a non-empty local part and domain.
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("Valid email required")
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return errors.New("Valid email required")
	}

	return nil
}
