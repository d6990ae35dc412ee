package cat32

import (
	"errors"
	"fmt"
)

// Sentinel errors for cat32 error conditions.
// These errors can be used with errors.Is() for error checking.
var (
	// ErrCyclicValue indicates a container was reached again while it was
	// still being encoded.
	ErrCyclicValue = errors.New("cyclic object")

	// ErrInvalidConfig indicates a categorizer option is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrIndexOutOfRange indicates an override index outside 0..31, or one
	// that is not a finite integer.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Error kinds categorize errors by their type.
const (
	// KindCyclicValue represents a cycle found while encoding.
	KindCyclicValue = "cyclic_value"

	// KindInvalidConfiguration represents a rejected categorizer option.
	KindInvalidConfiguration = "invalid_configuration"

	// KindOutOfRangeOverride represents an override index outside 0..31.
	KindOutOfRangeOverride = "out_of_range_override"
)

// Error is a structured error carrying the operation that failed and the
// category of the failure. It supports errors.Is() and errors.As().
type Error struct {
	// Op is the operation that failed (e.g., "Encode", "New").
	Op string

	// Kind categorizes the error (e.g., KindCyclicValue).
	Kind string

	// Err is the underlying error.
	Err error

	// Context carries optional debugging details.
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("cat32: %s: %s", e.Op, e.Kind)
	}
	if len(e.Context) > 0 {
		return fmt.Sprintf("cat32: %s (%s): %v [context: %+v]", e.Op, e.Kind, e.Err, e.Context)
	}
	return fmt.Sprintf("cat32: %s (%s): %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by Kind (and Op when set), or delegates to the
// underlying error.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		if t.Kind != "" && e.Kind == t.Kind && (t.Op == "" || e.Op == t.Op) {
			return true
		}
	}
	return errors.Is(e.Err, target)
}

// IsInvalidInput reports whether err is one of the input or configuration
// errors a caller is expected to fix: a cyclic value, an invalid
// configuration, or an out-of-range override.
func IsInvalidInput(err error) bool {
	var ce *Error
	if !errors.As(err, &ce) {
		return false
	}
	switch ce.Kind {
	case KindCyclicValue, KindInvalidConfiguration, KindOutOfRangeOverride:
		return true
	}
	return false
}

func cyclicError(v *Value) *Error {
	return &Error{
		Op:      "Encode",
		Kind:    KindCyclicValue,
		Err:     ErrCyclicValue,
		Context: map[string]any{"kind": v.Kind().String()},
	}
}

func configError(format string, args ...any) *Error {
	return &Error{
		Op:   "New",
		Kind: KindInvalidConfiguration,
		Err:  fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...),
	}
}

func rangeError(n float64) *Error {
	return &Error{
		Op:   "New",
		Kind: KindOutOfRangeOverride,
		Err:  fmt.Errorf("%w: %s", ErrIndexOutOfRange, formatNumber(n)),
	}
}
