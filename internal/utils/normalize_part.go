package utils

import (
	"strings"
	"unicode"
)

// NormalizePart reduces a part name to lowercase alphanumerics so that
// user-entered names ("Brake shoes", "brake-shoes (rear)") match rule-table
// entries regardless of spacing and punctuation.
func NormalizePart(raw string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// PartsMatch reports whether two part names refer to the same part after
// normalization. A broad entry like "Brakes" matches the more specific
// "Brake Shoes (Rear)".
func PartsMatch(a, b string) bool {
	na, nb := NormalizePart(a), NormalizePart(b)
	if na == "" || nb == "" {
		return false
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}
