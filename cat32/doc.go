// Package cat32 deterministically assigns arbitrary values to one of 32
// stable buckets.
//
// Assignment happens in two stages:
//   - Canonicalization: a value is rendered to a canonical text that is
//     identical for structurally equal values (independent of property or
//     insertion order) and distinct for values that are not equal, even when
//     a string is crafted to look like one of the encoder's own markers.
//   - Hashing: the canonical text is Unicode-normalized, salted, hashed with
//     FNV-1a/32, and the low five bits pick the bucket.
//
// # Data Model
//
// Scalars: null, undefined, bool, number (including NaN and ±Inf), bigint,
// string, symbol, function, date, regexp, buffer.
// Containers: array (with holes), map (any key kind), set, object.
//
// # Canonical Form
//
//	null / true / false / 42 / 1e+21
//	"text"                         strings are JSON-quoted
//	[1,"\u0000cat32:hole:__hole__\u0000"]
//	{"a":1,"b":[true]}             object keys sorted
//	"\u0000cat32:map:[[\"k\",\"1\"]]\u0000"
//	"\u0000cat32:set:[1,2]\u0000"
//
// Values that have no plain JSON form are wrapped in a sentinel
// NUL "cat32:" kind ":" payload NUL, or one of the legacy markers
// (__undefined__, __date__:, __symbol__:). Strings that look like a marker
// are escaped with the __string__: prefix; see Escape.
//
// # Example
//
//	c, err := cat32.New(cat32.WithSalt("projX"), cat32.WithNamespace("v1"))
//	if err != nil {
//		return err
//	}
//	a, err := c.Assign(cat32.Record(
//		cat32.F("id", cat32.Int(123)),
//		cat32.F("tags", cat32.Array(cat32.Str("a"), cat32.Str("b"))),
//	))
//	// a.Index in 0..31, a.Label "A".."5", a.Hash 8 hex digits
//
// # Concurrency
//
// Encoding and assignment are safe for concurrent use. The only shared
// mutable state is the identity registry for local symbols, which is guarded
// by a mutex and releases entries once the symbol is garbage collected.
package cat32
