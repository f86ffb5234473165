// Package phone normalizes phone numbers to the canonical local format used
// as the unique account key.
package phone

import "strings"

// Normalize folds international prefixes into the local representation:
//
//	"+989121234567"  -> "09121234567"
//	"00989121234567" -> "09121234567"
//	"989121234567"   -> "09121234567"
//	"9121234567"     -> "09121234567"
//
// Returns "" when the input contains no digits.
func Normalize(raw string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}

	if strings.HasPrefix(digits, "0098") {
		digits = digits[4:]
	} else if strings.HasPrefix(digits, "98") {
		digits = digits[2:]
	}

	if digits != "" && !strings.HasPrefix(digits, "0") {
		digits = "0" + digits
	}
	return digits
}

// IsMobile reports whether the normalized form of raw is a valid local
// mobile number (11 digits starting with 09).
func IsMobile(raw string) bool {
	n := Normalize(raw)
	return len(n) == 11 && strings.HasPrefix(n, "09")
}
