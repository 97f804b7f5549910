package validate

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// CVRLength is the fixed length of a Danish company registration number.
const CVRLength = 8

// PhoneLength is the fixed length of a Danish subscriber number without
// the country prefix.
const PhoneLength = 8

// CleanCVR strips every non-digit character from the input and keeps at
// most the first eight digits. It never fails; callers check the length.
func CleanCVR(raw string) string {
	digits := digitsOnly(raw)
	if len(digits) > CVRLength {
		digits = digits[:CVRLength]
	}
	return digits
}

// ValidCVR reports whether the input cleans to exactly eight digits.
func ValidCVR(raw string) bool {
	return len(CleanCVR(raw)) == CVRLength
}

// NormalizeDanishPhone strips non-digits and removes a leading national
// prefix ("0045" or "45"). The result is only usable when it is exactly
// eight digits long; callers must check with ValidPhone or len.
func NormalizeDanishPhone(raw string) string {
	digits := digitsOnly(raw)
	if strings.HasPrefix(digits, "0045") {
		digits = digits[4:]
	} else if strings.HasPrefix(digits, "45") && len(digits) > PhoneLength {
		digits = digits[2:]
	}
	return digits
}

// ValidPhone reports whether the input normalizes to exactly eight digits.
func ValidPhone(raw string) bool {
	return len(NormalizeDanishPhone(raw)) == PhoneLength
}

// FormatDanishPhone renders an eight-digit subscriber number in the
// "+45 XX XX XX XX" shape forwarded to the lead hook. Numbers that the
// phone metadata rejects still get the manual grouping so a captured
// lead is never dropped over formatting.
func FormatDanishPhone(digits string) string {
	if len(digits) != PhoneLength {
		return digits
	}
	parsed, err := phonenumbers.Parse(digits, "DK")
	if err == nil && phonenumbers.IsValidNumber(parsed) {
		return phonenumbers.Format(parsed, phonenumbers.INTERNATIONAL)
	}
	return "+45 " + groupPairs(digits)
}

func groupPairs(digits string) string {
	var b strings.Builder
	for i := 0; i < len(digits); i += 2 {
		if i > 0 {
			b.WriteByte(' ')
		}
		end := i + 2
		if end > len(digits) {
			end = len(digits)
		}
		b.WriteString(digits[i:end])
	}
	return b.String()
}

func digitsOnly(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
