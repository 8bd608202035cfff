package handlers

import (
	"regexp"
	"strings"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^[+]?[\d\s\-().]{7,20}$`)
	plateRegex = regexp.MustCompile(`^[A-Z0-9\-]{3,10}$`)
)

func validateEmail(email string) bool {
	if email == "" {
		return true // email is optional
	}
	return emailRegex.MatchString(email)
}

func validatePhone(phone string) bool {
	if phone == "" {
		return true // phone is optional
	}
	return phoneRegex.MatchString(phone)
}

func validatePlate(plate string) bool {
	return plateRegex.MatchString(plate)
}

func normalizePlate(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}

func validateCI(ci int) bool {
	return ci > 0 && ci < 100_000_000
}

func validateNotes(notes string) bool {
	return len(notes) <= 1000
}

func sanitizeLogInput(s string) string {
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ReplaceAll(s, "\r", "")
	return s
}
