package cat32

// FNV-1a 32-bit parameters.
const (
	fnvOffset32 uint32 = 0x811c9dc5
	fnvPrime32  uint32 = 0x01000193
)

// Sum32 computes the FNV-1a 32-bit hash of the UTF-8 bytes of s.
func Sum32(s string) uint32 {
	h := fnvOffset32
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime32
	}
	return h
}

// HexHash formats h as 8 lowercase hex digits.
func HexHash(h uint32) string {
	var buf [8]byte
	for i := 7; i >= 0; i-- {
		buf[i] = hexDigits[h&0x0f]
		h >>= 4
	}
	return string(buf[:])
}

// ParseHexHash parses an 8-digit hex hash as produced by HexHash.
func ParseHexHash(s string) (uint32, bool) {
	if len(s) != 8 {
		return 0, false
	}
	var h uint32
	for i := 0; i < 8; i++ {
		d := hexDigit(s[i])
		if d < 0 {
			return 0, false
		}
		h = h<<4 | uint32(d)
	}
	return h, true
}

func hexDigit(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c - 'a' + 10)
	case c >= 'A' && c <= 'F':
		return int(c - 'A' + 10)
	default:
		return -1
	}
}
