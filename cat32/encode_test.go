package cat32

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeScalars(t *testing.T) {
	huge, _ := new(big.Int).SetString("12345678901234567890", 10)

	tests := []struct {
		name  string
		input *Value
		want  string
	}{
		{"nil", nil, `null`},
		{"null", Null(), `null`},
		{"undefined", Undefined(), `"__undefined__"`},
		{"true", Bool(true), `true`},
		{"false", Bool(false), `false`},
		{"integer", Int(123), `123`},
		{"fraction", Number(1.5), `1.5`},
		{"negative zero", Number(math.Copysign(0, -1)), `0`},
		{"large exponent", Number(1e21), `1e+21`},
		{"small exponent", Number(1e-7), `1e-7`},
		{"nan", Number(math.NaN()), `"\u0000cat32:number:NaN\u0000"`},
		{"infinity", Number(math.Inf(1)), `"\u0000cat32:number:Infinity\u0000"`},
		{"negative infinity", Number(math.Inf(-1)), `"\u0000cat32:number:-Infinity\u0000"`},
		{"bigint", BigInt(huge), `"\u0000cat32:bigint:12345678901234567890\u0000"`},
		{"negative bigint", BigIntFromInt64(-5), `"\u0000cat32:bigint:-5\u0000"`},
		{"string", Str("hello"), `"hello"`},
		{"string escapes", Str("a\"b\\c\n\t\x01"), `"a\"b\\c\n\t\u0001"`},
		{"string null text", Str("null"), `"null"`},
		{"reserved undefined", Str("__undefined__"), `"__string__:__undefined__"`},
		{"reserved date", Str("__date__:2020"), `"__string__:__date__:2020"`},
		{"reserved hole", Str("\x00cat32:hole:__hole__\x00"), `"__string__:\u0000cat32:hole:__hole__\u0000"`},
		{"function", Func("function f() { return 1 }"), `function f() { return 1 }`},
		{"registered symbol", Sym(SymbolFor("app")), `"__symbol__:[\"global\",\"app\"]"`},
		{"epoch", DateMillis(0), `"__date__:1970-01-01T00:00:00.000Z"`},
		{"before epoch", DateMillis(-1), `"__date__:1969-12-31T23:59:59.999Z"`},
		{"max date", DateMillis(8.64e15), `"__date__:+275760-09-13T00:00:00.000Z"`},
		{"negative year", DateMillis(-62198755200000), `"__date__:-000001-01-01T00:00:00.000Z"`},
		{"out of range date", DateMillis(8.64e15 + 1), `"__date__:invalid"`},
		{"invalid date", InvalidDate(), `"__date__:invalid"`},
		{"regexp", RegExp("a+b", "ig"), `"\u0000cat32:regexp:[\"a+b\",\"gi\"]\u0000"`},
		{"arraybuffer", ArrayBuffer([]byte{1, 2}), `"\u0000cat32:arraybuffer:byteLength=2;hex=0102\u0000"`},
		{"sharedarraybuffer", SharedArrayBuffer(nil), `"\u0000cat32:sharedarraybuffer:byteLength=0;hex=\u0000"`},
		{"typed array", TypedArray(Uint16Array, []byte{1, 0, 2, 0}), `"\u0000cat32:typedarray:kind=Uint16Array;byteOffset=0;byteLength=4;length=2;hex=01000200\u0000"`},
		{"data view", TypedArrayAt(DataView, []byte{0xff}, 3), `"\u0000cat32:typedarray:kind=DataView;byteOffset=3;byteLength=1;hex=ff\u0000"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeContainers(t *testing.T) {
	tests := []struct {
		name  string
		input *Value
		want  string
	}{
		{"empty array", Array(), `[]`},
		{"array", Array(Int(1), Str("x"), Null(), Undefined()), `[1,"x",null,"__undefined__"]`},
		{"array hole", Array(Int(1), nil, Int(3)), `[1,"\u0000cat32:hole:__hole__\u0000",3]`},
		{"sparse array", SparseArray(2), `["\u0000cat32:hole:__hole__\u0000","\u0000cat32:hole:__hole__\u0000"]`},
		{"nested array", Array(Array(Int(1)), Array()), `[[1],[]]`},
		{"empty object", Object(), `{}`},
		{"sorted keys", Record(F("b", Int(2)), F("a", Int(1))), `{"a":1,"b":2}`},
		{"nested record", Record(F("x", Record(F("z", Null()), F("y", Bool(true))))), `{"x":{"y":true,"z":null}}`},
		{"escaped key", Record(F("__date__:k", Int(1))), `{"__string__:__date__:k":1}`},
		{"utf16 key order", Record(F("｡", Int(2)), F("\U0001F600", Int(1))), "{\"\U0001F600\":1,\"｡\":2}"},
		{"empty set", NewSet(), `"\u0000cat32:set:[]\u0000"`},
		{"set", NewSet(Int(2), Str("a"), Int(1)), `"\u0000cat32:set:[\"a\",1,2]\u0000"`},
		{"empty map", NewMap(), `"\u0000cat32:map:[]\u0000"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeObjectProperties(t *testing.T) {
	t.Run("non-enumerable skipped", func(t *testing.T) {
		obj := Object().Set("a", Int(1)).Define("hidden", Int(2), false)
		assert.Equal(t, `{"a":1}`, MustEncode(obj))
		assert.Equal(t, 1, obj.Len())
	})

	t.Run("symbol key", func(t *testing.T) {
		obj := Object().Set("a", Int(1)).SetSymbol(SymbolFor("k"), Bool(true))
		assert.Equal(t, `{"__symbol__:[\"global\",\"k\"]":true,"a":1}`, MustEncode(obj))
	})

	t.Run("text key that looks like a symbol key", func(t *testing.T) {
		asText := Object().Set(`__symbol__:["global","k"]`, Int(1))
		asSymbol := Object().SetSymbol(SymbolFor("k"), Int(1))
		assert.NotEqual(t, MustEncode(asText), MustEncode(asSymbol))

		both := Object().SetSymbol(SymbolFor("k"), Int(2)).Set(`__symbol__:["global","k"]`, Int(1))
		assert.Equal(t,
			`{"__string__:__symbol__:[\"global\",\"k\"]":1,"__symbol__:[\"global\",\"k\"]":2}`,
			MustEncode(both))
	})

	t.Run("hidden symbol skipped", func(t *testing.T) {
		obj := Object().DefineSymbol(NewSymbol("s"), Int(1), false)
		assert.Equal(t, `{}`, MustEncode(obj))
	})

	t.Run("set replaces", func(t *testing.T) {
		obj := Record(F("a", Int(1)), F("a", Int(2)))
		assert.Equal(t, `{"a":2}`, MustEncode(obj))
	})
}

func TestEncodeDistinguishesKinds(t *testing.T) {
	values := []*Value{
		Null(),
		Undefined(),
		Str("null"),
		Str("undefined"),
		Str("__undefined__"),
		Int(1),
		Str("1"),
		BigIntFromInt64(1),
		Bool(true),
		Str("true"),
		Array(),
		Object(),
		NewSet(),
		NewMap(),
		Array(Int(1)),
		NewSet(Int(1)),
		Record(F("k", Int(1))),
		MapOf(E(Str("k"), Int(1))),
		Array(nil),
		Array(Str("\x00cat32:hole:__hole__\x00")),
		Array(Undefined()),
		Array(Null()),
		DateMillis(0),
		Str("__date__:1970-01-01T00:00:00.000Z"),
		InvalidDate(),
		Str("__date__:invalid"),
		Number(math.NaN()),
		Str("NaN"),
		Str("\x00cat32:number:NaN\x00"),
		RegExp("a", "g"),
		Str("/a/g"),
		ArrayBuffer([]byte{1}),
		SharedArrayBuffer([]byte{1}),
		TypedArray(Uint8Array, []byte{1}),
		Sym(SymbolFor("k")),
		Str(`__symbol__:["global","k"]`),
		Str("\xff"),
		Str("\xfe"),
		Str("\ufffd"),
		Str(`\udcff`),
		Record(F("\xff", Int(1))),
		Record(F("\xfe", Int(1))),
		Record(F("\ufffd", Int(1))),
		MapOf(E(Str("\xff"), Int(1))),
		MapOf(E(Str("\ufffd"), Int(1))),
	}

	seen := make(map[string]int)
	for i, v := range values {
		enc, err := Encode(v)
		require.NoError(t, err)
		if j, dup := seen[enc]; dup {
			t.Errorf("values %d and %d both encode to %s", j, i, enc)
		}
		seen[enc] = i
	}
}

func TestEncodeInvalidUTF8(t *testing.T) {
	tests := []struct {
		name  string
		input *Value
		want  string
	}{
		{"text", Str("\xff"), `"\udcff"`},
		{"replacement character", Str("\ufffd"), "\"\ufffd\""},
		{"mixed", Str("a\xfeb"), `"a\udcfeb"`},
		{"record key", Record(F("\xfe", Int(1))), `{"\udcfe":1}`},
		{"record keys ordered", Record(F("\ufffd", Int(2)), F("\xff", Int(1))), "{\"\\udcff\":1,\"\ufffd\":2}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MustEncode(tt.input))
		})
	}
}

func TestEncodeSetOrderIndependent(t *testing.T) {
	a := NewSet(Str("x"), Int(1), Record(F("k", Null())))
	b := NewSet(Record(F("k", Null())), Int(1), Str("x"))
	assert.Equal(t, MustEncode(a), MustEncode(b))
}

func TestSetSameValueZero(t *testing.T) {
	s := NewSet(Number(math.NaN()), Number(math.NaN()), Int(0), Number(math.Copysign(0, -1)))
	assert.Equal(t, 2, s.Len())

	// Distinct containers are distinct members even when equal in content.
	s = NewSet(Array(), Array())
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, `"\u0000cat32:set:[[],[]]\u0000"`, MustEncode(s))
}

func TestEncodeSharedReferenceIsNotCycle(t *testing.T) {
	shared := Array(Int(1))
	v := Record(F("a", shared), F("b", shared))
	got, err := Encode(v)
	require.NoError(t, err)
	assert.Equal(t, `{"a":[1],"b":[1]}`, got)
}

func TestEncodeCycles(t *testing.T) {
	selfArray := Array()
	selfArray.Append(selfArray)

	selfObject := Object()
	selfObject.Set("nested", Record(F("back", selfObject)))

	selfSet := NewSet()
	selfSet.Add(selfSet)

	selfMapValue := NewMap()
	selfMapValue.MapSet(Str("k"), selfMapValue)

	selfMapKey := NewMap()
	selfMapKey.MapSet(selfMapKey, Int(1))

	tests := []struct {
		name  string
		input *Value
	}{
		{"array", selfArray},
		{"object", selfObject},
		{"set", selfSet},
		{"map value", selfMapValue},
		{"map key", selfMapKey},
		{"wrapped", Array(Int(1), Record(F("x", selfArray)))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrCyclicValue)
			assert.Contains(t, err.Error(), "cyclic object")
			assert.True(t, IsInvalidInput(err))

			var ce *Error
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, KindCyclicValue, ce.Kind)
			assert.Equal(t, "Encode", ce.Op)
		})
	}
}

func TestMustEncodePanics(t *testing.T) {
	a := Array()
	a.Append(a)
	assert.Panics(t, func() { MustEncode(a) })
	assert.NotPanics(t, func() { MustEncode(Int(1)) })
}

func TestRegExpFlags(t *testing.T) {
	assert.Equal(t, MustEncode(RegExp("x", "yg")), MustEncode(RegExp("x", "gy")))
	assert.Equal(t, `"\u0000cat32:regexp:[\"x\",\"dgimsuvy\"]\u0000"`, MustEncode(RegExp("x", "yvusmigd")))
	assert.NotEqual(t, MustEncode(RegExp("x", "g")), MustEncode(RegExp("x", "")))
}

func TestValueMutatorsPanicOnWrongKind(t *testing.T) {
	assert.Panics(t, func() { Str("x").Append(Int(1)) })
	assert.Panics(t, func() { Array().Set("k", Int(1)) })
	assert.Panics(t, func() { Object().MapSet(Int(1), Int(1)) })
	assert.Panics(t, func() { NewMap().Add(Int(1)) })
	assert.Panics(t, func() { Array().SetIndex(-1, Int(1)) })
	assert.Panics(t, func() { Object().DefineSymbol(nil, Int(1), true) })
}

func TestSetIndexGrowsWithHoles(t *testing.T) {
	a := Array().SetIndex(2, Int(7))
	assert.Equal(t, 3, a.Len())
	assert.Equal(t, `["\u0000cat32:hole:__hole__\u0000","\u0000cat32:hole:__hole__\u0000",7]`, MustEncode(a))

	a.SetIndex(0, nil)
	assert.Equal(t, `[null,"\u0000cat32:hole:__hole__\u0000",7]`, MustEncode(a))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "null", (*Value)(nil).Kind().String())
	assert.Equal(t, "bigint", BigIntFromInt64(1).Kind().String())
	assert.Equal(t, "buffer", ArrayBuffer(nil).Kind().String())
	assert.Equal(t, "unknown", Kind(200).String())
}

func BenchmarkEncodeRecord(b *testing.B) {
	v := Record(
		F("id", Int(123)),
		F("tags", Array(Str("a"), Str("b"), Str("c"))),
		F("meta", MapOf(E(Str("k"), Int(1)), E(Int(2), Bool(true)))),
		F("seen", NewSet(Int(3), Int(1), Int(2))),
	)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Encode(v); err != nil {
			b.Fatal(err)
		}
	}
}
