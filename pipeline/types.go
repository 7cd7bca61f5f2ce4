// Package pipeline defines the intermediate representation of a pipeline:
// typed variables, operator calls, literals, and the fingerprint that keys
// the compile cache.
package pipeline

import (
	"fmt"
	"strconv"
	"strings"
)

// Type is the scalar type tag of a value, variable, or argument.
type Type string

const (
	TypeI32      Type = "i32"
	TypeI64      Type = "i64"
	TypeF32      Type = "f32"
	TypeF64      Type = "f64"
	TypeStr      Type = "str"
	TypeListI32  Type = "list<i32>"
	TypeListI64  Type = "list<i64>"
	TypeListF64  Type = "list<f64>"
	TypeListStr  Type = "list<str>"
	TypeUnknown  Type = "unknown"
)

// IsList reports whether t is one of the list<...> types.
func (t Type) IsList() bool {
	return strings.HasPrefix(string(t), "list<")
}

// ElementType returns the scalar element type of a list type, or
// TypeUnknown if t is not a list type.
func (t Type) ElementType() Type {
	switch t {
	case TypeListI32:
		return TypeI32
	case TypeListI64:
		return TypeI64
	case TypeListF64:
		return TypeF64
	case TypeListStr:
		return TypeStr
	default:
		return TypeUnknown
	}
}

// IsNumeric reports whether t is one of the scalar numeric types.
func (t Type) IsNumeric() bool {
	switch t {
	case TypeI32, TypeI64, TypeF32, TypeF64:
		return true
	default:
		return false
	}
}

// Valid reports whether t is a recognized scalar type tag.
func (t Type) Valid() bool {
	switch t {
	case TypeI32, TypeI64, TypeF32, TypeF64, TypeStr,
		TypeListI32, TypeListI64, TypeListF64, TypeListStr, TypeUnknown:
		return true
	default:
		return false
	}
}

// Value is a tagged union over the scalar types. The zero Value has an
// empty Tag (not TypeUnknown) and carries no payload.
type Value struct {
	Tag Type

	i   int64
	f   float64
	s   string
	li  []int64
	lf  []float64
	ls  []string
}

// NewI32 builds an i32 Value.
func NewI32(v int32) Value { return Value{Tag: TypeI32, i: int64(v)} }

// NewI64 builds an i64 Value.
func NewI64(v int64) Value { return Value{Tag: TypeI64, i: v} }

// NewF32 builds an f32 Value.
func NewF32(v float32) Value { return Value{Tag: TypeF32, f: float64(v)} }

// NewF64 builds an f64 Value.
func NewF64(v float64) Value { return Value{Tag: TypeF64, f: v} }

// NewStr builds a str Value.
func NewStr(v string) Value { return Value{Tag: TypeStr, s: v} }

// NewListI64 builds a list<i64> Value.
func NewListI64(v []int64) Value { return Value{Tag: TypeListI64, li: append([]int64(nil), v...)} }

// NewListF64 builds a list<f64> Value.
func NewListF64(v []float64) Value { return Value{Tag: TypeListF64, lf: append([]float64(nil), v...)} }

// NewListStr builds a list<str> Value.
func NewListStr(v []string) Value { return Value{Tag: TypeListStr, ls: append([]string(nil), v...)} }

// Int returns the value's integer payload, widening i32 to int64.
func (v Value) Int() int64 { return v.i }

// Float returns the value's float payload, widening f32 to float64.
func (v Value) Float() float64 { return v.f }

// Str returns the value's string payload.
func (v Value) Str() string { return v.s }

// ListI64 returns the value's list<i64> payload.
func (v Value) ListI64() []int64 { return v.li }

// ListF64 returns the value's list<f64> payload.
func (v Value) ListF64() []float64 { return v.lf }

// ListStr returns the value's list<str> payload.
func (v Value) ListStr() []string { return v.ls }

// AsF64 coerces the value to float64 regardless of its tag, for operators
// whose arguments widen implicitly. Lists and strings coerce to 0.
func (v Value) AsF64() float64 {
	switch v.Tag {
	case TypeI32, TypeI64:
		return float64(v.i)
	case TypeF32, TypeF64:
		return v.f
	default:
		return 0
	}
}

// AsI64 coerces the value to int64 regardless of its tag.
func (v Value) AsI64() int64 {
	switch v.Tag {
	case TypeI32, TypeI64:
		return v.i
	case TypeF32, TypeF64:
		return int64(v.f)
	default:
		return 0
	}
}

func (v Value) String() string {
	switch v.Tag {
	case TypeI32, TypeI64:
		return strconv.FormatInt(v.i, 10)
	case TypeF32, TypeF64:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case TypeStr:
		return v.s
	default:
		return fmt.Sprintf("<%s>", v.Tag)
	}
}

// ParseLiteral parses text as a literal of the declared type. It is the
// inverse of the emitter's literal-text lowering: every text form accepted
// here must also be valid to emit verbatim in generated source.
func ParseLiteral(text string, t Type) (Value, error) {
	switch t {
	case TypeI32:
		n, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return Value{}, fmt.Errorf("parse i32 literal %q: %w", text, err)
		}
		return NewI32(int32(n)), nil
	case TypeI64:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("parse i64 literal %q: %w", text, err)
		}
		return NewI64(n), nil
	case TypeF32:
		f, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return Value{}, fmt.Errorf("parse f32 literal %q: %w", text, err)
		}
		return NewF32(float32(f)), nil
	case TypeF64:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, fmt.Errorf("parse f64 literal %q: %w", text, err)
		}
		return NewF64(f), nil
	case TypeStr:
		return NewStr(text), nil
	default:
		return Value{}, fmt.Errorf("type %s has no literal form", t)
	}
}

// SanitizeIdent rewrites s into a target-language-safe identifier:
// non-alphanumeric, non-underscore characters become '_', and a leading
// digit is prefixed with "p_".
func SanitizeIdent(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := b.String()
	if out == "" {
		return "p_"
	}
	if out[0] >= '0' && out[0] <= '9' {
		return "p_" + out
	}
	return out
}
