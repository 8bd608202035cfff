package auth

import (
	"testing"
	"unicode"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Correct1Horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword(hash, "Correct1Horse") {
		t.Error("correct password should verify")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("wrong password should not verify")
	}
}

func TestValidatePasswordStrength(t *testing.T) {
	cases := []struct {
		password string
		wantErr  bool
	}{
		{"Abcdef12", false},
		{"short1A", true},
		{"alllowercase1", true},
		{"ALLUPPERCASE1", true},
		{"NoDigitsHere", true},
		{"Valid123Password", false},
	}

	for _, tc := range cases {
		err := ValidatePasswordStrength(tc.password)
		if (err != nil) != tc.wantErr {
			t.Errorf("ValidatePasswordStrength(%q) = %v, wantErr %v", tc.password, err, tc.wantErr)
		}
	}
}

func TestGeneratePassword(t *testing.T) {
	for i := 0; i < 20; i++ {
		pw, err := GeneratePassword(12)
		if err != nil {
			t.Fatalf("GeneratePassword: %v", err)
		}
		if len(pw) != 12 {
			t.Fatalf("length = %d, want 12", len(pw))
		}
		if err := ValidatePasswordStrength(pw); err != nil {
			t.Errorf("generated password %q fails policy: %v", pw, err)
		}
	}
}

func TestGeneratePassword_ShortLengthBumped(t *testing.T) {
	pw, err := GeneratePassword(4)
	if err != nil {
		t.Fatalf("GeneratePassword: %v", err)
	}
	if len(pw) != 12 {
		t.Errorf("length = %d, want 12 for sub-minimum requests", len(pw))
	}
	var hasSymbol bool
	for _, r := range pw {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			hasSymbol = true
		}
	}
	if !hasSymbol {
		t.Error("generated password should contain a symbol")
	}
}
