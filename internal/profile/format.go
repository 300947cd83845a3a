package profile

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	nonDigits         = regexp.MustCompile(`\D`)
	completeBirthDate = regexp.MustCompile(`^(0[1-9]|1[0-2])-(0[1-9]|[12]\d|3[01])-(19|20)\d{2}$`)
	serverBirthDate   = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
)

// NormalizePhoneNumber strips formatting down to bare digits, dropping a
// leading country code 1 so the result is the 10-digit national number.
func NormalizePhoneNumber(raw string) string {
	digits := nonDigits.ReplaceAllString(raw, "")
	if len(digits) == 11 && strings.HasPrefix(digits, "1") {
		digits = digits[1:]
	}
	return digits
}

// IsValidPhoneNumber reports whether raw normalizes to a full 10-digit
// number. Empty is valid: phone is optional.
func IsValidPhoneNumber(raw string) bool {
	digits := NormalizePhoneNumber(raw)
	return digits == "" || len(digits) == 10
}

// FormatPhoneInput progressively masks typed digits as (XXX) XXX-XXXX,
// formatting whatever prefix of the number exists so far.
func FormatPhoneInput(raw string) string {
	digits := NormalizePhoneNumber(raw)
	if len(digits) > 10 {
		digits = digits[:10]
	}
	switch {
	case len(digits) == 0:
		return ""
	case len(digits) <= 3:
		return fmt.Sprintf("(%s", digits)
	case len(digits) <= 6:
		return fmt.Sprintf("(%s) %s", digits[:3], digits[3:])
	default:
		return fmt.Sprintf("(%s) %s-%s", digits[:3], digits[3:6], digits[6:])
	}
}

// FormatBirthDateInput progressively masks typed digits as MM-DD-YYYY.
func FormatBirthDateInput(raw string) string {
	digits := nonDigits.ReplaceAllString(raw, "")
	if len(digits) > 8 {
		digits = digits[:8]
	}
	switch {
	case len(digits) <= 2:
		return digits
	case len(digits) <= 4:
		return fmt.Sprintf("%s-%s", digits[:2], digits[2:])
	default:
		return fmt.Sprintf("%s-%s-%s", digits[:2], digits[2:4], digits[4:])
	}
}

// IsCompleteBirthDate reports whether value is a fully typed MM-DD-YYYY date.
func IsCompleteBirthDate(value string) bool {
	return completeBirthDate.MatchString(value)
}

// NormalizeBirthDateFromServer converts the server's YYYY-MM-DD form into
// the display form MM-DD-YYYY. Values already in display form, or
// unrecognizable, pass through unchanged.
func NormalizeBirthDateFromServer(value string) string {
	match := serverBirthDate.FindStringSubmatch(strings.TrimSpace(value))
	if match == nil {
		return value
	}
	return fmt.Sprintf("%s-%s-%s", match[2], match[3], match[1])
}

// BirthDateForServer converts the display form MM-DD-YYYY into the server's
// YYYY-MM-DD form.
func BirthDateForServer(value string) (string, error) {
	if !IsCompleteBirthDate(value) {
		return "", fmt.Errorf("birth date must be MM-DD-YYYY")
	}
	parts := strings.Split(value, "-")
	return fmt.Sprintf("%s-%s-%s", parts[2], parts[0], parts[1]), nil
}
