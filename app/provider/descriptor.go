package provider

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	cieloSoftDescriptorMax   = 13
	mercadoPagoDescriptorMax = 22
)

// statementDescriptor turns a display name such as "Doação ONG" into the
// uppercase ASCII text card statements accept, capped at limit characters.
func statementDescriptor(value string, limit int) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, value)
	if err != nil {
		plain = value
	}

	var b strings.Builder
	for _, r := range strings.ToUpper(plain) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' && b.Len() > 0:
			b.WriteRune(r)
		}
		if b.Len() >= limit {
			break
		}
	}
	return strings.TrimSpace(b.String())
}
