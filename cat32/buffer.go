package cat32

import (
	"encoding/hex"
	"strconv"
	"strings"
)

// BufferKind distinguishes raw buffers from typed views.
type BufferKind uint8

const (
	BufferArray  BufferKind = iota // ArrayBuffer
	BufferShared                   // SharedArrayBuffer
	BufferView                     // typed array or DataView
)

// ElementType names the element type of a typed view.
type ElementType string

const (
	Int8Array         ElementType = "Int8Array"
	Uint8Array        ElementType = "Uint8Array"
	Uint8ClampedArray ElementType = "Uint8ClampedArray"
	Int16Array        ElementType = "Int16Array"
	Uint16Array       ElementType = "Uint16Array"
	Int32Array        ElementType = "Int32Array"
	Uint32Array       ElementType = "Uint32Array"
	Float32Array      ElementType = "Float32Array"
	Float64Array      ElementType = "Float64Array"
	BigInt64Array     ElementType = "BigInt64Array"
	BigUint64Array    ElementType = "BigUint64Array"
	DataView          ElementType = "DataView"
)

// Size returns the element width in bytes, or 0 for DataView.
func (e ElementType) Size() int {
	switch e {
	case Int8Array, Uint8Array, Uint8ClampedArray:
		return 1
	case Int16Array, Uint16Array:
		return 2
	case Int32Array, Uint32Array, Float32Array:
		return 4
	case Float64Array, BigInt64Array, BigUint64Array:
		return 8
	default:
		return 0
	}
}

type buffer struct {
	kind       BufferKind
	elem       ElementType
	byteOffset int
	data       []byte
}

// ArrayBuffer creates a buffer value. The bytes are copied.
func ArrayBuffer(data []byte) *Value {
	return &Value{kind: KindBuffer, bufVal: &buffer{kind: BufferArray, data: cloneBytes(data)}}
}

// SharedArrayBuffer creates a shared buffer value. The bytes are copied.
func SharedArrayBuffer(data []byte) *Value {
	return &Value{kind: KindBuffer, bufVal: &buffer{kind: BufferShared, data: cloneBytes(data)}}
}

// TypedArray creates a typed view over data starting at byte offset 0.
func TypedArray(elem ElementType, data []byte) *Value {
	return TypedArrayAt(elem, data, 0)
}

// TypedArrayAt creates a typed view. data holds only the bytes the view
// covers; byteOffset records where the view starts in its backing buffer.
func TypedArrayAt(elem ElementType, data []byte, byteOffset int) *Value {
	return &Value{kind: KindBuffer, bufVal: &buffer{
		kind:       BufferView,
		elem:       elem,
		byteOffset: byteOffset,
		data:       cloneBytes(data),
	}}
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// sentinelKind returns the sentinel kind tag of the buffer.
func (b *buffer) sentinelKind() string {
	switch b.kind {
	case BufferShared:
		return "sharedarraybuffer"
	case BufferView:
		return "typedarray"
	default:
		return "arraybuffer"
	}
}

// payload renders the buffer sentinel payload.
//
//	arraybuffer:  byteLength=N;hex=..
//	typedarray:   kind=Uint8Array;byteOffset=O;byteLength=N;length=M;hex=..
func (b *buffer) payload() string {
	var sb strings.Builder
	if b.kind == BufferView {
		sb.WriteString("kind=")
		sb.WriteString(string(b.elem))
		sb.WriteString(";byteOffset=")
		sb.WriteString(strconv.Itoa(b.byteOffset))
		sb.WriteByte(';')
	}
	sb.WriteString("byteLength=")
	sb.WriteString(strconv.Itoa(len(b.data)))
	if b.kind == BufferView {
		if size := b.elem.Size(); size > 0 {
			sb.WriteString(";length=")
			sb.WriteString(strconv.Itoa(len(b.data) / size))
		}
	}
	sb.WriteString(";hex=")
	sb.WriteString(hex.EncodeToString(b.data))
	return sb.String()
}

// tag returns the object tag used when a buffer is coerced to a property key.
func (b *buffer) tag() string {
	switch b.kind {
	case BufferShared:
		return "SharedArrayBuffer"
	case BufferView:
		return string(b.elem)
	default:
		return "ArrayBuffer"
	}
}
