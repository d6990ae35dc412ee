package cat32

import (
	"fmt"
	"math"
	"math/big"
	"slices"
	"strings"
	"time"
)

// Kind represents cat32 value kinds.
type Kind uint8

const (
	KindNull Kind = iota
	KindUndefined
	KindBool
	KindNumber
	KindBigInt
	KindStr
	KindSymbol
	KindFunc
	KindArray
	KindDate
	KindRegExp
	KindBuffer
	KindMap
	KindSet
	KindObject
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindUndefined:
		return "undefined"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindBigInt:
		return "bigint"
	case KindStr:
		return "string"
	case KindSymbol:
		return "symbol"
	case KindFunc:
		return "function"
	case KindArray:
		return "array"
	case KindDate:
		return "date"
	case KindRegExp:
		return "regexp"
	case KindBuffer:
		return "buffer"
	case KindMap:
		return "map"
	case KindSet:
		return "set"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// maxDateMillis is the largest absolute timestamp a date can hold.
const maxDateMillis = 8.64e15

// Value represents a cat32 input value.
//
// Containers (array, map, set, object) are identified by pointer, which is
// what cycle detection and map-key identity rely on.
type Value struct {
	kind Kind

	// Scalar values (only one valid based on kind)
	boolVal bool
	numVal  float64
	bigVal  *big.Int
	strVal  string // str, func source
	symVal  *Symbol
	dateMs  int64
	dateOK  bool
	reVal   *pattern
	bufVal  *buffer

	// Container values
	items   []*Value // array (nil is a hole), set
	entries []mapEntry
	props   []property
}

type pattern struct {
	source string
	flags  string
}

type mapEntry struct {
	key   *Value
	value *Value
}

type property struct {
	name   string
	sym    *Symbol
	value  *Value
	hidden bool
}

// Field is a string-keyed property used by Record.
type Field struct {
	Key   string
	Value *Value
}

// F creates a Field.
func F(key string, v *Value) Field {
	return Field{Key: key, Value: v}
}

// MapEntry is a key/value pair used by MapOf.
type MapEntry struct {
	Key   *Value
	Value *Value
}

// E creates a MapEntry.
func E(key, v *Value) MapEntry {
	return MapEntry{Key: key, Value: v}
}

// orNull maps a nil pointer to an explicit null.
func orNull(v *Value) *Value {
	if v == nil {
		return Null()
	}
	return v
}

// ============================================================
// Constructors
// ============================================================

// Null creates a null value.
func Null() *Value {
	return &Value{kind: KindNull}
}

// Undefined creates the "not present" value.
func Undefined() *Value {
	return &Value{kind: KindUndefined}
}

// Bool creates a boolean value.
func Bool(v bool) *Value {
	return &Value{kind: KindBool, boolVal: v}
}

// Number creates a number value. NaN and ±Inf are allowed.
func Number(v float64) *Value {
	return &Value{kind: KindNumber, numVal: v}
}

// Int creates a number value from an integer.
func Int(v int64) *Value {
	return Number(float64(v))
}

// BigInt creates an arbitrary-precision integer value. The argument is copied.
func BigInt(v *big.Int) *Value {
	n := new(big.Int)
	if v != nil {
		n.Set(v)
	}
	return &Value{kind: KindBigInt, bigVal: n}
}

// BigIntFromInt64 creates an arbitrary-precision integer value.
func BigIntFromInt64(v int64) *Value {
	return &Value{kind: KindBigInt, bigVal: big.NewInt(v)}
}

// Str creates a string value.
func Str(v string) *Value {
	return &Value{kind: KindStr, strVal: v}
}

// Sym creates a symbol value.
func Sym(s *Symbol) *Value {
	if s == nil {
		s = NewSymbol("")
	}
	return &Value{kind: KindSymbol, symVal: s}
}

// Func creates a callable value rendered by its display text.
func Func(source string) *Value {
	return &Value{kind: KindFunc, strVal: source}
}

// Array creates an array value. A nil element is a hole.
func Array(items ...*Value) *Value {
	list := make([]*Value, len(items))
	copy(list, items)
	return &Value{kind: KindArray, items: list}
}

// SparseArray creates an array of the given length where every index is a hole.
func SparseArray(length int) *Value {
	if length < 0 {
		length = 0
	}
	return &Value{kind: KindArray, items: make([]*Value, length)}
}

// Date creates a date value with millisecond precision.
func Date(t time.Time) *Value {
	return DateMillis(t.UnixMilli())
}

// DateMillis creates a date from milliseconds since the Unix epoch.
// Timestamps beyond ±8.64e15 ms are invalid.
func DateMillis(ms int64) *Value {
	ok := ms >= -maxDateMillis && ms <= maxDateMillis
	return &Value{kind: KindDate, dateMs: ms, dateOK: ok}
}

// InvalidDate creates a date that holds no time.
func InvalidDate() *Value {
	return &Value{kind: KindDate}
}

// RegExp creates a pattern value. Flags are stored in canonical order.
func RegExp(source, flags string) *Value {
	return &Value{kind: KindRegExp, reVal: &pattern{source: source, flags: canonFlags(flags)}}
}

// NewMap creates an empty map.
func NewMap() *Value {
	return &Value{kind: KindMap}
}

// MapOf creates a map from entries. Later entries replace earlier ones with
// the same key.
func MapOf(entries ...MapEntry) *Value {
	m := NewMap()
	for _, e := range entries {
		m.MapSet(e.Key, e.Value)
	}
	return m
}

// NewSet creates a set from items. Duplicate items are kept once.
func NewSet(items ...*Value) *Value {
	s := &Value{kind: KindSet}
	for _, it := range items {
		s.Add(it)
	}
	return s
}

// Object creates an empty object.
func Object() *Value {
	return &Value{kind: KindObject}
}

// Record creates an object from string-keyed fields.
func Record(fields ...Field) *Value {
	o := Object()
	for _, f := range fields {
		o.Set(f.Key, f.Value)
	}
	return o
}

// canonFlags orders regexp flags the way RegExp.prototype.flags reports them.
func canonFlags(flags string) string {
	const order = "dgimsuvy"
	var b strings.Builder
	for i := 0; i < len(order); i++ {
		if strings.IndexByte(flags, order[i]) >= 0 {
			b.WriteByte(order[i])
		}
	}
	var extra []byte
	for i := 0; i < len(flags); i++ {
		c := flags[i]
		if strings.IndexByte(order, c) < 0 && !slices.Contains(extra, c) {
			extra = append(extra, c)
		}
	}
	slices.Sort(extra)
	b.Write(extra)
	return b.String()
}

// ============================================================
// Mutators
// ============================================================

// Append adds items to the end of an array.
func (v *Value) Append(items ...*Value) *Value {
	v.mustBe(KindArray, "Append")
	v.items = append(v.items, items...)
	return v
}

// SetIndex stores item at index i, growing the array with holes if needed.
func (v *Value) SetIndex(i int, item *Value) *Value {
	v.mustBe(KindArray, "SetIndex")
	if i < 0 {
		panic(fmt.Sprintf("cat32: SetIndex: negative index %d", i))
	}
	for len(v.items) <= i {
		v.items = append(v.items, nil)
	}
	v.items[i] = orNull(item)
	return v
}

// Set stores an enumerable string-keyed property, replacing any previous value.
func (v *Value) Set(key string, item *Value) *Value {
	return v.Define(key, item, true)
}

// SetSymbol stores an enumerable symbol-keyed property.
func (v *Value) SetSymbol(sym *Symbol, item *Value) *Value {
	return v.DefineSymbol(sym, item, true)
}

// Define stores a string-keyed property. Non-enumerable properties do not
// take part in canonicalization.
func (v *Value) Define(key string, item *Value, enumerable bool) *Value {
	v.mustBe(KindObject, "Define")
	for i := range v.props {
		if v.props[i].sym == nil && v.props[i].name == key {
			v.props[i].value = orNull(item)
			v.props[i].hidden = !enumerable
			return v
		}
	}
	v.props = append(v.props, property{name: key, value: orNull(item), hidden: !enumerable})
	return v
}

// DefineSymbol stores a symbol-keyed property.
func (v *Value) DefineSymbol(sym *Symbol, item *Value, enumerable bool) *Value {
	v.mustBe(KindObject, "DefineSymbol")
	if sym == nil {
		panic("cat32: DefineSymbol: nil symbol")
	}
	for i := range v.props {
		if v.props[i].sym != nil && v.props[i].sym.same(sym) {
			v.props[i].value = orNull(item)
			v.props[i].hidden = !enumerable
			return v
		}
	}
	v.props = append(v.props, property{sym: sym, value: orNull(item), hidden: !enumerable})
	return v
}

// MapSet stores a map entry. Keys are compared with SameValueZero: primitives
// by value, containers and other objects by identity.
func (v *Value) MapSet(key, item *Value) *Value {
	v.mustBe(KindMap, "MapSet")
	key = orNull(key)
	for i := range v.entries {
		if sameValueZero(v.entries[i].key, key) {
			v.entries[i].value = orNull(item)
			return v
		}
	}
	v.entries = append(v.entries, mapEntry{key: key, value: orNull(item)})
	return v
}

// Add inserts an item into a set unless an equal item (SameValueZero) exists.
func (v *Value) Add(item *Value) *Value {
	v.mustBe(KindSet, "Add")
	item = orNull(item)
	for _, it := range v.items {
		if sameValueZero(it, item) {
			return v
		}
	}
	v.items = append(v.items, item)
	return v
}

func (v *Value) mustBe(k Kind, op string) {
	if v == nil || v.kind != k {
		panic(fmt.Sprintf("cat32: %s: expected %s, got %s", op, k, v.Kind()))
	}
}

// ============================================================
// Accessors
// ============================================================

// Kind returns the value kind.
func (v *Value) Kind() Kind {
	if v == nil {
		return KindNull
	}
	return v.kind
}

// Len returns the number of elements, entries, or enumerable properties of a
// container, and 0 for scalars.
func (v *Value) Len() int {
	if v == nil {
		return 0
	}
	switch v.kind {
	case KindArray, KindSet:
		return len(v.items)
	case KindMap:
		return len(v.entries)
	case KindObject:
		n := 0
		for _, p := range v.props {
			if !p.hidden {
				n++
			}
		}
		return n
	default:
		return 0
	}
}

// sameValueZero reports whether two values are the same map key or set member.
func sameValueZero(a, b *Value) bool {
	if a == b {
		return true
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull, KindUndefined:
		return true
	case KindBool:
		return a.boolVal == b.boolVal
	case KindNumber:
		if math.IsNaN(a.numVal) && math.IsNaN(b.numVal) {
			return true
		}
		return a.numVal == b.numVal
	case KindBigInt:
		return a.bigVal.Cmp(b.bigVal) == 0
	case KindStr:
		return a.strVal == b.strVal
	case KindSymbol:
		return a.symVal.same(b.symVal)
	default:
		return false
	}
}
