package cat32

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// ============================================================
// Canonical Encoder
// ============================================================

// Encoder renders values as canonical text. Symbols are resolved through
// its registry. An Encoder holds no per-call state and is safe for
// concurrent use.
type Encoder struct {
	registry *Registry
}

// NewEncoder creates an encoder backed by r. A nil registry selects the
// process-wide default.
func NewEncoder(r *Registry) *Encoder {
	if r == nil {
		r = DefaultRegistry()
	}
	return &Encoder{registry: r}
}

var defaultEncoder = NewEncoder(nil)

// Encode returns the canonical text of v using the default registry.
//
// Two values encode to the same text exactly when they are structurally
// equal under the canonical rules: object keys and set members are sorted,
// map keys are grouped by the property key they coerce to, and values
// without a plain JSON form are wrapped in sentinels. A container that
// contains itself fails with ErrCyclicValue.
func Encode(v *Value) (string, error) {
	return defaultEncoder.Encode(v)
}

// MustEncode is like Encode but panics on error.
func MustEncode(v *Value) string {
	s, err := Encode(v)
	if err != nil {
		panic(err)
	}
	return s
}

// Encode returns the canonical text of v.
func (e *Encoder) Encode(v *Value) (string, error) {
	st := encodeState{registry: e.registry}
	return st.encode(v)
}

// PropertyKeyOf returns the property key v coerces to, resolving symbols
// through the encoder's registry.
func (e *Encoder) PropertyKeyOf(v *Value) string {
	return propertyKey(e.registry, v, nil)
}

// encodeState is the state of one Encode call. visiting holds the
// containers on the current path.
type encodeState struct {
	registry *Registry
	visiting map[*Value]struct{}
}

func (s *encodeState) enter(v *Value) error {
	if s.visiting == nil {
		s.visiting = make(map[*Value]struct{})
	}
	if _, ok := s.visiting[v]; ok {
		return cyclicError(v)
	}
	s.visiting[v] = struct{}{}
	return nil
}

func (s *encodeState) leave(v *Value) {
	delete(s.visiting, v)
}

func (s *encodeState) encode(v *Value) (string, error) {
	if v == nil {
		return "null", nil
	}

	switch v.kind {
	case KindNull:
		return "null", nil
	case KindUndefined:
		return quoteJSON(undefinedSentinel), nil
	case KindBool:
		if v.boolVal {
			return "true", nil
		}
		return "false", nil
	case KindNumber:
		return encodeNumber(v.numVal), nil
	case KindBigInt:
		return quoteJSON(TypeSentinel(kindBigInt, v.bigVal.String())), nil
	case KindStr:
		return quoteJSON(Escape(v.strVal)), nil
	case KindSymbol:
		return quoteJSON(s.registry.SentinelFor(v.symVal)), nil
	case KindFunc:
		return v.strVal, nil
	case KindDate:
		return quoteJSON(dateSentinel(v)), nil
	case KindRegExp:
		return quoteJSON(regexpSentinel(v.reVal)), nil
	case KindBuffer:
		return quoteJSON(TypeSentinel(v.bufVal.sentinelKind(), v.bufVal.payload())), nil
	case KindArray:
		return s.encodeArray(v)
	case KindMap:
		return s.encodeMap(v)
	case KindSet:
		return s.encodeSet(v)
	case KindObject:
		return s.encodeObject(v)
	default:
		return "", fmt.Errorf("cat32: unknown value kind %d", v.kind)
	}
}

// ============================================================
// Scalars
// ============================================================

func encodeNumber(f float64) string {
	if isFiniteNumber(f) {
		return formatNumber(f)
	}
	return quoteJSON(TypeSentinel(kindNumber, formatNumber(f)))
}

// dateSentinel returns __date__:<iso> or __date__:invalid.
func dateSentinel(v *Value) string {
	if !v.dateOK {
		return datePrefix + dateInvalidPayload
	}
	return datePrefix + isoString(v.dateMs)
}

// isoString formats ms as YYYY-MM-DDTHH:MM:SS.mmmZ. Years outside 0..9999
// use the expanded ±YYYYYY form.
func isoString(ms int64) string {
	t := time.UnixMilli(ms).UTC()
	var b strings.Builder
	b.Grow(27)
	switch year := t.Year(); {
	case year >= 0 && year <= 9999:
		fmt.Fprintf(&b, "%04d", year)
	case year < 0:
		fmt.Fprintf(&b, "-%06d", -year)
	default:
		fmt.Fprintf(&b, "+%06d", year)
	}
	fmt.Fprintf(&b, "-%02d-%02dT%02d:%02d:%02d.%03dZ",
		int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond()/int(time.Millisecond))
	return b.String()
}

func regexpSentinel(p *pattern) string {
	return TypeSentinel(kindRegExp, "["+quoteJSON(p.source)+","+quoteJSON(p.flags)+"]")
}

// ============================================================
// Containers
// ============================================================

func (s *encodeState) encodeArray(v *Value) (string, error) {
	if err := s.enter(v); err != nil {
		return "", err
	}
	defer s.leave(v)

	var b strings.Builder
	b.WriteByte('[')
	for i, item := range v.items {
		if i > 0 {
			b.WriteByte(',')
		}
		if item == nil {
			b.WriteString(holeSentinel)
			continue
		}
		enc, err := s.encode(item)
		if err != nil {
			return "", err
		}
		b.WriteString(enc)
	}
	b.WriteByte(']')
	return b.String(), nil
}

func (s *encodeState) encodeSet(v *Value) (string, error) {
	if err := s.enter(v); err != nil {
		return "", err
	}
	defer s.leave(v)

	members := make([]string, 0, len(v.items))
	for _, item := range v.items {
		enc, err := s.encode(item)
		if err != nil {
			return "", err
		}
		members = append(members, enc)
	}
	slices.SortFunc(members, compareUTF16)
	return quoteJSON(TypeSentinel(kindSet, "["+strings.Join(members, ",")+"]")), nil
}

type objectField struct {
	sortKey string
	emitKey string
	value   string
}

func (s *encodeState) encodeObject(v *Value) (string, error) {
	if err := s.enter(v); err != nil {
		return "", err
	}
	defer s.leave(v)

	fields := make([]objectField, 0, len(v.props))
	for _, p := range v.props {
		if p.hidden {
			continue
		}
		var f objectField
		if p.sym != nil {
			f.sortKey = s.registry.SentinelFor(p.sym)
			f.emitKey = f.sortKey
		} else {
			f.sortKey = p.name
			f.emitKey = Escape(p.name)
		}
		enc, err := s.encode(p.value)
		if err != nil {
			return "", err
		}
		f.value = enc
		fields = append(fields, f)
	}
	slices.SortFunc(fields, func(a, b objectField) int {
		return cmp.Or(compareUTF16(a.sortKey, b.sortKey), compareUTF16(a.emitKey, b.emitKey))
	})

	var b strings.Builder
	b.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		writeQuoted(&b, f.emitKey)
		b.WriteByte(':')
		b.WriteString(f.value)
	}
	b.WriteByte('}')
	return b.String(), nil
}

// mapItem is one encoded map entry.
type mapItem struct {
	propKey string
	key     string
	value   string
	safe    bool
	order   int
}

// encodeMap groups entries by the property key their key coerces to.
// A group made only of coercion-safe keys collapses to its smallest entry
// and is emitted under the property key. Any other group keeps every entry,
// each tagged with a map-entry-index sentinel carrying the property key, the
// encoded key and its position, so distinct keys never merge.
func (s *encodeState) encodeMap(v *Value) (string, error) {
	if err := s.enter(v); err != nil {
		return "", err
	}
	defer s.leave(v)

	items := make([]mapItem, 0, len(v.entries))
	for i, e := range v.entries {
		key, err := s.encode(e.key)
		if err != nil {
			return "", err
		}
		value, err := s.encode(e.value)
		if err != nil {
			return "", err
		}
		items = append(items, mapItem{
			propKey: propertyKey(s.registry, e.key, nil),
			key:     key,
			value:   value,
			safe:    coercionSafe(e.key),
			order:   i,
		})
	}
	slices.SortFunc(items, func(a, b mapItem) int {
		return cmp.Or(
			compareUTF16(a.propKey, b.propKey),
			compareUTF16(a.key, b.key),
			compareUTF16(a.value, b.value),
			cmp.Compare(a.order, b.order),
		)
	})

	var b strings.Builder
	b.WriteByte('[')
	n := 0
	pair := func(k, val string) {
		if n > 0 {
			b.WriteByte(',')
		}
		n++
		b.WriteByte('[')
		writeQuoted(&b, k)
		b.WriteByte(',')
		writeQuoted(&b, val)
		b.WriteByte(']')
	}

	for start := 0; start < len(items); {
		end := start + 1
		for end < len(items) && items[end].propKey == items[start].propKey {
			end++
		}
		bucket := items[start:end]
		start = end

		if allSafe(bucket) {
			pair(bucket[0].propKey, bucket[0].value)
			continue
		}
		for i, it := range bucket {
			index := "[" + quoteJSON(it.propKey) + "," + quoteJSON(it.key) + "," + strconv.Itoa(i) + "]"
			pair(TypeSentinel(kindMapEntryIndex, index), it.value)
		}
	}
	b.WriteByte(']')
	return quoteJSON(TypeSentinel(kindMap, b.String())), nil
}

func allSafe(bucket []mapItem) bool {
	for _, it := range bucket {
		if !it.safe {
			return false
		}
	}
	return true
}
