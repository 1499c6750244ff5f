// Package resolve matches research candidates to stored directory records by
// normalized business name.
package resolve

import "strings"

// Normalize lower-cases s and drops every rune that is not an ASCII letter or
// digit. "Insulation Contractors of Arizona (ICA)" becomes
// "insulationcontractorsofarizonaica".
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteByte(c)
		case c >= 'A' && c <= 'Z':
			b.WriteByte(c + ('a' - 'A'))
		}
	}
	return b.String()
}
