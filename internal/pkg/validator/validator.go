package validator

import (
	"encoding/json"
	"strings"
)

// Validator validates a struct. Failures are returned as ValidationError.
type Validator interface {
	Validate(data any) error
}

// ValidationError maps json field names to human readable messages.
type ValidationError map[string]string

func (ve ValidationError) Error() string {
	if len(ve) == 0 {
		return "validation error"
	}

	b, err := json.Marshal(map[string]string(ve))
	if err != nil {
		return "validation error"
	}
	return string(b)
}

// Values returns the field messages.
func (ve ValidationError) Values() map[string]string {
	return ve
}

// PasswordSymbols is the fixed punctuation set a password must draw from.
const PasswordSymbols = "!@#$%^&*"

// Password length bounds. bcrypt ignores input past 72 bytes.
const (
	PasswordMinLen = 8
	PasswordMaxLen = 72
)

// PasswordMessage describes the policy enforced by StrongPassword.
const PasswordMessage = "Password must be at least 8 characters long and contain at least one uppercase letter, one number, and one special character (!@#$%^&*)"

// StrongPassword reports whether s has 8..72 characters drawn only from
// letters, digits and PasswordSymbols, with at least one uppercase letter,
// one digit and one symbol.
func StrongPassword(s string) bool {
	if len(s) < PasswordMinLen || len(s) > PasswordMaxLen {
		return false
	}

	var upper, digit, symbol bool
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(PasswordSymbols, r):
			symbol = true
		default:
			return false
		}
	}

	return upper && digit && symbol
}

// FourDigits reports whether s is exactly four ASCII digits.
func FourDigits(s string) bool {
	if len(s) != 4 {
		return false
	}
	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
