// Package phone canonicalizes phone numbers into digit-only E.164 form for a
// single country. It is deliberately permissive: malformed input passes
// through stripped of non-digits, and unresolvable numbers surface later as
// delivery failures.
package phone

import "strings"

type Normalizer struct {
	// CountryCode is the international calling code without a leading "+".
	CountryCode string
	// NSNLength is the length of the national significant number, i.e. the
	// digits that follow the country code.
	NSNLength int
}

// ZA is the South African numbering plan: +27, nine-digit subscriber numbers,
// national trunk prefix "0".
var ZA = Normalizer{CountryCode: "27", NSNLength: 9}

// Normalize strips non-digits and resolves the national trunk prefix or a
// missing country code. Pure and total: any input yields some output.
func (n Normalizer) Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if strings.HasPrefix(digits, "0") {
		return n.CountryCode + digits[1:]
	}
	if len(digits) == n.NSNLength && !strings.HasPrefix(digits, n.CountryCode) {
		return n.CountryCode + digits
	}
	return digits
}
