package core

import "strings"

// NormalizeHeader reduces a header to its comparison form: every byte that
// is not an ASCII letter or digit is dropped and letters are lowercased.
// "Set Code", "set_code" and "SETCODE" all normalize to "setcode".
func NormalizeHeader(header string) string {
	var b strings.Builder
	b.Grow(len(header))
	for i := 0; i < len(header); i++ {
		c := header[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteByte(c)
		case c >= 'A' && c <= 'Z':
			b.WriteByte(c + ('a' - 'A'))
		}
	}
	return b.String()
}
