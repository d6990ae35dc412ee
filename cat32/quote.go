package cat32

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// ============================================================
// String Quoting
// ============================================================

const hexDigits = "0123456789abcdef"

// quoteJSON returns s as a JSON string literal with the same escapes
// JSON.stringify uses: \" \\ \b \f \n \r \t, \u00xx for other control
// characters, everything else verbatim. Each byte of invalid UTF-8 becomes
// the lone surrogate escape \udcXX, which no valid text produces.
func quoteJSON(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	writeQuoted(&b, s)
	return b.String()
}

func writeQuoted(b *strings.Builder, s string) {
	b.WriteByte('"')
	for i := 0; i < len(s); {
		c := s[i]
		if c >= 0x20 && c < utf8.RuneSelf && c != '"' && c != '\\' {
			b.WriteByte(c)
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			b.WriteString(`\udc`)
			b.WriteByte(hexDigits[c>>4])
			b.WriteByte(hexDigits[c&0xf])
			i++
			continue
		}
		i += size
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				b.WriteString(`\u00`)
				b.WriteByte(hexDigits[r>>4])
				b.WriteByte(hexDigits[r&0xf])
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
}

// ============================================================
// Ordering
// ============================================================

// compareUTF16 compares two strings by UTF-16 code units, which is the
// order every sort in the canonical form uses. It differs from byte order
// only between supplementary characters and U+E000..U+FFFF. An invalid
// byte orders as the surrogate it is quoted as.
func compareUTF16(a, b string) int {
	x, y := a, b
	for x != "" && y != "" {
		ra, na := decodeUnit(x)
		rb, nb := decodeUnit(y)
		if ra != rb {
			return compareRuneUnits(ra, rb)
		}
		x, y = x[na:], y[nb:]
	}
	switch {
	case x == "" && y == "":
		return strings.Compare(a, b)
	case x == "":
		return -1
	default:
		return 1
	}
}

func decodeUnit(s string) (rune, int) {
	r, n := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError && n == 1 {
		return 0xdc00 | rune(s[0]), 1
	}
	return r, n
}

func compareRuneUnits(ra, rb rune) int {
	a1, a2 := runeUnits(ra)
	b1, b2 := runeUnits(rb)
	if a1 != b1 {
		return cmpRune(a1, b1)
	}
	return cmpRune(a2, b2)
}

func runeUnits(r rune) (rune, rune) {
	if r >= 0x10000 {
		return utf16.EncodeRune(r)
	}
	return r, -1
}

func cmpRune(a, b rune) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
