package validator

import "testing"

func TestValidateEmail(t *testing.T) {
	if err := ValidateEmail("investor@example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, email := range []string{"", "nope", "a@b", "a b@c.com"} {
		if err := ValidateEmail(email); err != ErrInvalidEmail {
			t.Fatalf("expected ErrInvalidEmail for %q, got %v", email, err)
		}
	}
}

func TestValidateUsername(t *testing.T) {
	if err := ValidateUsername("investor_01"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, username := range []string{"", "ab", "has space", "way-too-long-username-over-thirty-chars"} {
		if err := ValidateUsername(username); err != ErrInvalidUsername {
			t.Fatalf("expected ErrInvalidUsername for %q, got %v", username, err)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("longenough"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidatePassword("short"); err != ErrInvalidPassword {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
}

func TestValidateRegistrationRole(t *testing.T) {
	for _, role := range []string{"investor", "seller"} {
		if err := ValidateRegistrationRole(role); err != nil {
			t.Fatalf("unexpected error for %q: %v", role, err)
		}
	}
	for _, role := range []string{"", "admin", "root"} {
		if err := ValidateRegistrationRole(role); err != ErrInvalidRole {
			t.Fatalf("expected ErrInvalidRole for %q, got %v", role, err)
		}
	}
}
