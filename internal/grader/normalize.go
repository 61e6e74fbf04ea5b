package grader

import (
	"strings"

	"github.com/markbook/markbook/internal/table"
)

// Normalize canonicalizes a raw cell into a comparable answer form:
// missing values become the empty string, surrounding whitespace is stripped,
// the ".0" suffix left behind by numeric-to-text coercion of whole numbers is
// removed ("3.0" and "3" compare equal), and the result is upper-cased so
// letter answers compare case-insensitively.
//
// Normalize is pure and idempotent. Two raw cells hold the same answer iff
// their normalized forms are equal.
func Normalize(c table.Cell) string {
	if c.IsMissing() {
		return ""
	}
	s := strings.TrimSpace(c.Text())
	if rest, ok := strings.CutSuffix(s, ".0"); ok && isInteger(rest) {
		s = rest
	}
	return strings.ToUpper(s)
}

// isInteger reports whether s is a non-empty run of digits, optionally signed.
func isInteger(s string) bool {
	if len(s) > 0 && (s[0] == '-' || s[0] == '+') {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
