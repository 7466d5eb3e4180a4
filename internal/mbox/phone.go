package mbox

import (
	"fmt"
	"regexp"
)

var (
	phoneRegex    = regexp.MustCompile(`(?:\+?1[\s.\-]?)?\(?\b\d{3}\)?[\s.\-]?\d{3}[\s.\-]\d{4}\b`)
	nonDigitRegex = regexp.MustCompile(`\D`)
)

// FindPhone returns the first plausible North American phone number in
// text, formatted as (xxx) xxx-xxxx, or "" when none is found
func FindPhone(text string) string {
	for _, match := range phoneRegex.FindAllString(text, -1) {
		digits := nonDigitRegex.ReplaceAllString(match, "")
		if len(digits) == 11 && digits[0] == '1' {
			digits = digits[1:]
		}
		if len(digits) != 10 || isInvalidPhone(digits) {
			continue
		}
		return fmt.Sprintf("(%s) %s-%s", digits[:3], digits[3:6], digits[6:])
	}
	return ""
}

func isInvalidPhone(digits string) bool {
	// Area codes and exchanges never start with 0 or 1
	if digits[0] == '0' || digits[0] == '1' || digits[3] == '0' || digits[3] == '1' {
		return true
	}
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			return false
		}
	}
	return true
}
