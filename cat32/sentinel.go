package cat32

import "strings"

// ============================================================
// Sentinel Scheme
// ============================================================
//
// Values without an unambiguous plain-text form are wrapped in a sentinel:
//
//	NUL "cat32:" <kind> ":" <payload> NUL
//
// A few kinds keep their legacy fixed markers:
//
//	__undefined__        undefined
//	__date__:<iso>       date (or __date__:invalid)
//	__symbol__:<json>    symbol
//	__bigint__:          legacy bigint prefix, reserved only
//	__string__:          escaped string literal
//
// Any string that could be mistaken for one of these is escaped before it
// is quoted, so a real sentinel and a look-alike string never collide.

const (
	sentinelPrefix = "\x00cat32:"
	sentinelSuffix = "\x00"

	holePayload         = "__hole__"
	undefinedSentinel   = "__undefined__"
	datePrefix          = "__date__:"
	dateInvalidPayload  = "invalid"
	symbolPrefix        = "__symbol__:"
	bigintLegacyPrefix  = "__bigint__:"
	stringLiteralPrefix = "__string__:"

	kindNumber        = "number"
	kindBigInt        = "bigint"
	kindHole          = "hole"
	kindRegExp        = "regexp"
	kindMap           = "map"
	kindSet           = "set"
	kindMapEntryIndex = "map-entry-index"

	mapEntryIndexSegment = sentinelPrefix + kindMapEntryIndex + ":"
)

var (
	holeSentinelRaw = TypeSentinel(kindHole, holePayload)
	holeSentinel    = quoteJSON(holeSentinelRaw)
)

// TypeSentinel returns NUL "cat32:" kind ":" payload NUL.
func TypeSentinel(kind, payload string) string {
	var b strings.Builder
	b.Grow(len(sentinelPrefix) + len(kind) + len(payload) + 2)
	b.WriteString(sentinelPrefix)
	b.WriteString(kind)
	b.WriteByte(':')
	b.WriteString(payload)
	b.WriteString(sentinelSuffix)
	return b.String()
}

// Escape returns s prefixed with "__string__:" when s could be mistaken for
// a sentinel, and s unchanged otherwise.
//
// Escaping already escaped text wraps it once more; a prefix the caller
// wrote is never stripped. Escape is injective, so distinct strings always
// stay distinct.
func Escape(s string) string {
	if isReserved(s) {
		return stringLiteralPrefix + s
	}
	return s
}

// IsReserved reports whether Escape would change s.
func IsReserved(s string) bool {
	return isReserved(s)
}

// isReserved reports whether s looks like a sentinel, or is an escaped
// string whose remainder does.
func isReserved(s string) bool {
	for {
		if looksLikeSentinel(s) {
			return true
		}
		rest, ok := strings.CutPrefix(s, stringLiteralPrefix)
		if !ok {
			return false
		}
		s = rest
	}
}

func looksLikeSentinel(s string) bool {
	switch {
	case s == undefinedSentinel:
		return true
	case strings.HasPrefix(s, sentinelPrefix):
		return true
	case strings.HasPrefix(s, datePrefix),
		strings.HasPrefix(s, symbolPrefix),
		strings.HasPrefix(s, bigintLegacyPrefix):
		return true
	case strings.Contains(s, mapEntryIndexSegment):
		return true
	}
	return false
}
