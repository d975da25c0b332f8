// Package phone normalizes inbound phone numbers to the canonical
// +<countrycode><number> form used as the lookup key everywhere.
package phone

import "strings"

// Normalize strips formatting and ensures a leading +<countrycode>.
// defaultCC is applied to bare domestic numbers (10 digits) and must
// include the leading +, e.g. "+91". Numbers already starting with the
// default country-code digits get the + restored.
func Normalize(raw, defaultCC string) string {
	var b strings.Builder
	for i, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	n := b.String()

	if n == "" || strings.HasPrefix(n, "+") {
		return n
	}

	cc := strings.TrimPrefix(defaultCC, "+")
	if strings.HasPrefix(n, cc) && len(n) > len(cc) {
		return "+" + n
	}
	if len(n) == 10 {
		return defaultCC + n
	}
	return "+" + n
}

// Bare returns the national number without + or country code, used for
// tolerant registry lookups against however the row was stored.
func Bare(normalized, defaultCC string) string {
	n := strings.TrimPrefix(normalized, "+")
	return strings.TrimPrefix(n, strings.TrimPrefix(defaultCC, "+"))
}
