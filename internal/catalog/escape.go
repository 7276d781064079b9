package catalog

import "strings"

const upperhex = "0123456789ABCDEF"

// EscapeName percent-encodes every byte of name except ASCII letters, digits
// and "_.-~". Unlike url.PathEscape, "/" and sub-delimiters are encoded too.
func EscapeName(name string) string {
	var b strings.Builder
	b.Grow(len(name) * 3)
	for i := 0; i < len(name); i++ {
		c := name[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0x0f])
	}
	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '_', c == '.', c == '-', c == '~':
		return true
	default:
		return false
	}
}
