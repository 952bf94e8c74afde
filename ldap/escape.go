package ldap

import (
	"strings"
)

// EscapeDNValue escapes a value destined for use after the "=" of a DN
// component, following the RFC 4514 rules: the characters , + " \ < > ; are
// always escaped, a leading #, and leading or trailing spaces.
//
// Blank input (empty or whitespace-only) passes through unchanged. For
// example, "Acme, Inc" becomes "Acme\, Inc".
func EscapeDNValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return value
	}

	var b strings.Builder
	b.Grow(len(value) + 8)

	for i, r := range value {
		switch r {
		case ',', '+', '"', '\\', '<', '>', ';':
			b.WriteRune('\\')
			b.WriteRune(r)
		case '#':
			if i == 0 {
				b.WriteRune('\\')
			}
			b.WriteRune(r)
		case ' ':
			if i == 0 || i == len(value)-1 {
				b.WriteRune('\\')
			}
			b.WriteRune(r)
		case 0:
			b.WriteString(`\00`)
		default:
			b.WriteRune(r)
		}
	}

	return b.String()
}

// UnescapeDNValue is the inverse of EscapeDNValue: it removes backslash
// escapes, decoding two-hex-digit sequences such as \00 into the byte they
// name. A trailing lone backslash is kept as-is.
func UnescapeDNValue(value string) string {
	if !strings.Contains(value, "\\") {
		return value
	}

	var b strings.Builder
	b.Grow(len(value))

	for i := 0; i < len(value); i++ {
		ch := value[i]
		if ch != '\\' {
			b.WriteByte(ch)
			continue
		}
		if i+2 < len(value) && isHexDigit(value[i+1]) && isHexDigit(value[i+2]) {
			b.WriteByte(hexValue(value[i+1])<<4 | hexValue(value[i+2]))
			i += 2
			continue
		}
		if i+1 < len(value) {
			b.WriteByte(value[i+1])
			i++
			continue
		}
		b.WriteByte('\\')
	}

	return b.String()
}

// NeedsDNEscaping reports whether EscapeDNValue would change the value.
func NeedsDNEscaping(value string) bool {
	if strings.TrimSpace(value) == "" {
		return false
	}

	if value[0] == ' ' || value[0] == '#' || value[len(value)-1] == ' ' {
		return true
	}

	return strings.ContainsAny(value, ",+\"\\<>;\x00")
}

// EscapeFilterValue escapes part of a search filter per RFC 4515, replacing
// \ * ( ) and NUL with their two-hex-digit backslash form. All other bytes
// pass through unchanged, so UTF-8 sequences are preserved. The scan is a
// single pass with one output builder; empty input returns empty output.
func EscapeFilterValue(value string) string {
	if value == "" {
		return value
	}

	var b strings.Builder
	b.Grow(len(value))

	for i := 0; i < len(value); i++ {
		switch value[i] {
		case '\\':
			b.WriteString(`\5c`)
		case '*':
			b.WriteString(`\2a`)
		case '(':
			b.WriteString(`\28`)
		case ')':
			b.WriteString(`\29`)
		case 0:
			b.WriteString(`\00`)
		default:
			b.WriteByte(value[i])
		}
	}

	return b.String()
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hexValue(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
