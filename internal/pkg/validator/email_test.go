package validator

import "testing"

func TestValidateEmail(t *testing.T) {
	valid := []string{"a@x.com", "user.name@sub.example.org", "a@x"}
	for _, email := range valid {
		if err := ValidateEmail(email); err != nil {
			t.Errorf("Expected %q to be valid, got %v", email, err)
		}
	}

	invalid := []string{"", "no-at-sign", "@x.com", "a@", "a@@b"}
	for _, email := range invalid {
		if err := ValidateEmail(email); err == nil {
			t.Errorf("Expected %q to be invalid", email)
		}
	}
}
