package cat32

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// ============================================================
// JSON Bridge
// ============================================================

// FromJSON decodes a single JSON document into a Value. Objects become
// records, arrays become arrays and numbers become float64 numbers, the way
// JSON.parse reads them.
func FromJSON(data []byte) (*Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("JSON parse error: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("JSON parse error: trailing data after document")
	}
	return fromJSONValue(v)
}

func fromJSONValue(v any) (*Value, error) {
	switch val := v.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(val), nil
	case json.Number:
		f, err := strconv.ParseFloat(val.String(), 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return nil, fmt.Errorf("number %s: %w", val, err)
		}
		return Number(f), nil
	case string:
		return Str(val), nil
	case []any:
		arr := Array()
		for i, elem := range val {
			item, err := fromJSONValue(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr.Append(item)
		}
		return arr, nil
	case map[string]any:
		obj := Object()
		for k, elem := range val {
			item, err := fromJSONValue(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj.Set(k, item)
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported JSON type: %T", v)
	}
}

// ============================================================
// Go Bridge
// ============================================================

// maxSafeInteger is the largest integer a float64 holds exactly.
const maxSafeInteger = 1<<53 - 1

var (
	valueType   = reflect.TypeFor[*Value]()
	symbolType  = reflect.TypeFor[*Symbol]()
	bigIntType  = reflect.TypeFor[big.Int]()
	timeType    = reflect.TypeFor[time.Time]()
	numberType  = reflect.TypeFor[json.Number]()
	rawJSONType = reflect.TypeFor[json.RawMessage]()
)

// FromGo converts a Go value into a Value:
//
//	nil, nil pointer/map/slice   null
//	bool, string                 boolean, string
//	integers                     number, or bigint beyond ±(2^53-1)
//	floats, json.Number          number
//	*big.Int                     bigint
//	time.Time                    date
//	[]byte                       Uint8Array
//	json.RawMessage              decoded with FromJSON
//	slices, arrays               array
//	map[string]T                 object
//	other maps                   map
//	structs                      object of exported fields, honouring json tags
//	*Value, *Symbol              used as is
//
// Pointers, maps and slices reached again through themselves produce a
// cyclic Value, which Encode then rejects.
func FromGo(x any) (*Value, error) {
	b := goBridge{memo: make(map[memoKey]*Value)}
	return b.convert(reflect.ValueOf(x))
}

type memoKey struct {
	ptr uintptr
	len int
	typ reflect.Type
}

type goBridge struct {
	memo map[memoKey]*Value
}

func (b *goBridge) convert(rv reflect.Value) (*Value, error) {
	if !rv.IsValid() {
		return Null(), nil
	}

	switch rv.Type() {
	case valueType:
		return orNull(rv.Interface().(*Value)), nil
	case symbolType:
		if rv.IsNil() {
			return Null(), nil
		}
		return Sym(rv.Interface().(*Symbol)), nil
	case bigIntType:
		n := rv.Interface().(big.Int)
		return BigInt(&n), nil
	case timeType:
		return Date(rv.Interface().(time.Time)), nil
	case numberType:
		f, err := strconv.ParseFloat(rv.String(), 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return nil, fmt.Errorf("json.Number %q: %w", rv.String(), err)
		}
		return Number(f), nil
	case rawJSONType:
		if rv.Len() == 0 {
			return Null(), nil
		}
		return FromJSON(rv.Bytes())
	}

	switch rv.Kind() {
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.String:
		return Str(rv.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := rv.Int()
		if n > maxSafeInteger || n < -maxSafeInteger {
			return BigIntFromInt64(n), nil
		}
		return Int(n), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n := rv.Uint()
		if n > maxSafeInteger {
			return BigInt(new(big.Int).SetUint64(n)), nil
		}
		return Int(int64(n)), nil
	case reflect.Float32, reflect.Float64:
		return Number(rv.Float()), nil
	case reflect.Interface:
		if rv.IsNil() {
			return Null(), nil
		}
		return b.convert(rv.Elem())
	case reflect.Pointer:
		return b.convertPointer(rv)
	case reflect.Slice:
		if rv.IsNil() {
			return Null(), nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return TypedArray(Uint8Array, rv.Bytes()), nil
		}
		var key memoKey
		if rv.Len() > 0 {
			key = memoKey{ptr: rv.Pointer(), len: rv.Len(), typ: rv.Type()}
		}
		return b.convertList(rv, key)
	case reflect.Array:
		return b.convertList(rv, memoKey{})
	case reflect.Map:
		return b.convertMap(rv)
	case reflect.Struct:
		return b.convertStruct(rv)
	default:
		return nil, fmt.Errorf("cat32: unsupported Go type %s", rv.Type())
	}
}

func (b *goBridge) convertPointer(rv reflect.Value) (*Value, error) {
	if rv.IsNil() {
		return Null(), nil
	}
	switch rv.Type().Elem() {
	case bigIntType:
		return BigInt(rv.Interface().(*big.Int)), nil
	case timeType:
		return b.convert(rv.Elem())
	}
	key := memoKey{ptr: rv.Pointer(), typ: rv.Type()}
	if v, ok := b.memo[key]; ok {
		return v, nil
	}

	// A pointer to a container shares the container's Value so a cycle
	// through the pointer closes on the same node.
	elem := rv.Elem()
	switch elem.Kind() {
	case reflect.Struct:
		obj := Object()
		b.memo[key] = obj
		return obj, b.fillStruct(obj, elem)
	case reflect.Slice, reflect.Array, reflect.Map:
		v, err := b.convert(elem)
		b.memo[key] = v
		return v, err
	default:
		return b.convert(elem)
	}
}

func (b *goBridge) convertList(rv reflect.Value, key memoKey) (*Value, error) {
	if key.ptr != 0 {
		if v, ok := b.memo[key]; ok {
			return v, nil
		}
	}
	arr := Array()
	if key.ptr != 0 {
		b.memo[key] = arr
	}
	for i := 0; i < rv.Len(); i++ {
		item, err := b.convert(rv.Index(i))
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		arr.Append(item)
	}
	return arr, nil
}

func (b *goBridge) convertMap(rv reflect.Value) (*Value, error) {
	if rv.IsNil() {
		return Null(), nil
	}
	key := memoKey{ptr: rv.Pointer(), typ: rv.Type()}
	if v, ok := b.memo[key]; ok {
		return v, nil
	}

	stringKeys := rv.Type().Key().Kind() == reflect.String
	var out *Value
	if stringKeys {
		out = Object()
	} else {
		out = NewMap()
	}
	b.memo[key] = out

	iter := rv.MapRange()
	for iter.Next() {
		val, err := b.convert(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("map value: %w", err)
		}
		if stringKeys {
			out.Set(iter.Key().String(), val)
			continue
		}
		k, err := b.convert(iter.Key())
		if err != nil {
			return nil, fmt.Errorf("map key: %w", err)
		}
		out.MapSet(k, val)
	}
	return out, nil
}

func (b *goBridge) convertStruct(rv reflect.Value) (*Value, error) {
	obj := Object()
	return obj, b.fillStruct(obj, rv)
}

func (b *goBridge) fillStruct(obj *Value, rv reflect.Value) error {
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, omitEmpty, skip := jsonFieldName(field)
		if skip {
			continue
		}
		fv := rv.Field(i)
		if omitEmpty && fv.IsZero() {
			continue
		}
		val, err := b.convert(fv)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", t.Name(), field.Name, err)
		}
		obj.Set(name, val)
	}
	return nil
}

// jsonFieldName reads the json struct tag: the key name, omitempty, and
// whether the field is skipped with "-".
func jsonFieldName(f reflect.StructField) (name string, omitEmpty, skip bool) {
	tag, ok := f.Tag.Lookup("json")
	if !ok {
		return f.Name, false, false
	}
	if tag == "-" {
		return "", false, true
	}
	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = f.Name
	}
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		if opt == "omitempty" {
			omitEmpty = true
		}
	}
	return name, omitEmpty, false
}
