package cat32

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeSentinel(t *testing.T) {
	assert.Equal(t, "\x00cat32:kind:payload\x00", TypeSentinel("kind", "payload"))
	assert.Equal(t, "\x00cat32:hole:__hole__\x00", holeSentinelRaw)
	assert.Equal(t, `"\u0000cat32:hole:__hole__\u0000"`, holeSentinel)
}

func TestEscape(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"plain", "plain"},
		{"__undefined__", "__string__:__undefined__"},
		{"__undefined__x", "__undefined__x"},
		{"x__undefined__", "x__undefined__"},
		{"__date__:2020", "__string__:__date__:2020"},
		{"__date__", "__date__"},
		{"__symbol__:[]", "__string__:__symbol__:[]"},
		{"__bigint__:1", "__string__:__bigint__:1"},
		{"\x00cat32:anything", "__string__:\x00cat32:anything"},
		{"x\x00cat32:anything", "x\x00cat32:anything"},
		{"x\x00cat32:map-entry-index:y", "__string__:x\x00cat32:map-entry-index:y"},
		{"__string__:", "__string__:"},
		{"__string__:plain", "__string__:plain"},
		{"__string__:__date__:x", "__string__:__string__:__date__:x"},
		{"__string__:__string__:__undefined__", "__string__:__string__:__string__:__undefined__"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Escape(tt.input))
			assert.Equal(t, tt.want != tt.input, IsReserved(tt.input))
		})
	}
}

func TestEscapeInjective(t *testing.T) {
	parts := []string{"", "__string__:", "__date__:", "__undefined__", "\x00cat32:", "x", "__symbol__:"}

	var inputs []string
	for _, a := range parts {
		for _, b := range parts {
			for _, c := range parts {
				inputs = append(inputs, a+b+c)
			}
		}
	}

	seen := make(map[string]string)
	for _, in := range inputs {
		out := Escape(in)
		if prev, ok := seen[out]; ok && prev != in {
			t.Errorf("Escape(%q) == Escape(%q) == %q", prev, in, out)
		}
		seen[out] = in
	}
}

func TestEscapeWrapsOnce(t *testing.T) {
	s := "__date__:x"
	once := Escape(s)
	twice := Escape(once)
	assert.Equal(t, "__string__:"+s, once)
	assert.Equal(t, "__string__:"+once, twice)
}
