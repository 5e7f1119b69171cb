package redact

import (
	"fmt"
	"strings"
	"unicode"
)

// Variants returns the textual forms under which a secret value can leak
// into printed output: the raw value, its JSON-quoted encoding, and the
// unicode-escaped encodings of both. Duplicates are removed, so values
// that survive every encoding unchanged (plain ASCII without quotes)
// yield fewer than four entries.
func Variants(value string) []string {
	candidates := []string{
		value,
		jsonQuote(value),
		unicodeEscape(jsonQuote(value)),
		unicodeEscape(value),
	}

	seen := make(map[string]struct{}, len(candidates))
	variants := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		variants = append(variants, c)
	}
	return variants
}

// jsonQuote encodes s as a JSON string literal: surrounding quotes,
// escaped inner quotes, backslashes, and control characters. HTML-unsafe
// characters are left alone, matching how credentials objects are
// typically serialized before being printed.
func jsonQuote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u%04x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

// unicodeEscape converts s to its escaped ASCII form: backslash and the
// common control characters get their two-character escapes, other bytes
// below 0x20 and the 0x7f-0xff range become \xXX, and everything outside
// Latin-1 becomes \uXXXX (or \UXXXXXXXX beyond the BMP). Quotes are not
// escaped and no surrounding quotes are added, which is how logging
// frameworks that escape non-ASCII text render a value.
func unicodeEscape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x20 || (r >= 0x7f && r <= 0xff):
			fmt.Fprintf(&b, `\x%02x`, r)
		case r <= unicode.MaxASCII:
			b.WriteRune(r)
		case r <= 0xffff:
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			fmt.Fprintf(&b, `\U%08x`, r)
		}
	}
	return b.String()
}
