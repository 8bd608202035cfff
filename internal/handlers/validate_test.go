package handlers

import "testing"

func TestValidateEmail(t *testing.T) {
	valid := []string{"", "a@b.co", "first.last+tag@example.com"}
	for _, e := range valid {
		if !validateEmail(e) {
			t.Errorf("expected %q to be valid", e)
		}
	}
	invalid := []string{"nope", "a@b", "@example.com", "a b@example.com"}
	for _, e := range invalid {
		if validateEmail(e) {
			t.Errorf("expected %q to be invalid", e)
		}
	}
}

func TestValidatePhone(t *testing.T) {
	valid := []string{"", "+598 99 123 456", "(02) 555-1234"}
	for _, p := range valid {
		if !validatePhone(p) {
			t.Errorf("expected %q to be valid", p)
		}
	}
	invalid := []string{"123", "phone", "1234567890123456789012345"}
	for _, p := range invalid {
		if validatePhone(p) {
			t.Errorf("expected %q to be invalid", p)
		}
	}
}

func TestValidatePlate(t *testing.T) {
	if !validatePlate(normalizePlate(" abc-1234 ")) {
		t.Error("expected normalized plate to be valid")
	}
	for _, p := range []string{"", "ab", "abc 1234", "WAYTOOLONGPLATE"} {
		if validatePlate(p) {
			t.Errorf("expected %q to be invalid", p)
		}
	}
}

func TestValidateCI(t *testing.T) {
	if !validateCI(12345678) {
		t.Error("expected 8-digit ci to be valid")
	}
	if validateCI(0) || validateCI(-5) || validateCI(100_000_000) {
		t.Error("expected out-of-range ci to be invalid")
	}
}

func TestSanitizeLogInput(t *testing.T) {
	if got := sanitizeLogInput("a\r\nb"); got != "ab" {
		t.Errorf("got %q", got)
	}
}
