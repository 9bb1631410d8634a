// Package values implements the tagged value union stored in a column
// cell: the scalar and vector primitives a tuple-id maps to, plus their
// byte-exact serializers.
package values

import (
	"fmt"

	"github.com/cottontaildb/cottontail/pkg/primitives"
)

// Type tags the concrete shape of a Value. It is what a ColumnHeader
// persists as its "type name".
type Type int

const (
	Boolean Type = iota
	Byte
	Short
	Int
	Long
	Float
	Double
	String
	Complex32
	Complex64

	FloatVector
	DoubleVector
	Complex32Vector
	Complex64Vector
	BitVector
)

func (t Type) String() string {
	switch t {
	case Boolean:
		return "BOOLEAN"
	case Byte:
		return "BYTE"
	case Short:
		return "SHORT"
	case Int:
		return "INT"
	case Long:
		return "LONG"
	case Float:
		return "FLOAT"
	case Double:
		return "DOUBLE"
	case String:
		return "STRING"
	case Complex32:
		return "COMPLEX32"
	case Complex64:
		return "COMPLEX64"
	case FloatVector:
		return "FLOAT_VEC"
	case DoubleVector:
		return "DOUBLE_VEC"
	case Complex32Vector:
		return "COMPLEX32_VEC"
	case Complex64Vector:
		return "COMPLEX64_VEC"
	case BitVector:
		return "BIT_VEC"
	default:
		return "UNKNOWN"
	}
}

// IsVector reports whether t is one of the fixed-length vector variants.
func (t Type) IsVector() bool {
	switch t {
	case FloatVector, DoubleVector, Complex32Vector, Complex64Vector, BitVector:
		return true
	default:
		return false
	}
}

// Value is a tagged container for one column cell. Every concrete type in
// this package implements it.
type Value interface {
	Type() Type
	Serialize() []byte
	String() string
	Equals(other Value) bool
	Hash() primitives.HashCode
}

// Vector is the subset of Value implemented by the fixed-length vector
// variants, adding the logical (element count) and physical (byte) sizes
// a column header records alongside the type name.
type Vector interface {
	Value
	LogicalSize() int
	PhysicalSize() int
}

// ErrTypeMismatch is returned by Deserialize when asked to decode a value
// as a type the bytes don't match in length.
type ErrTypeMismatch struct {
	Type Type
	Want int
	Got  int
}

func (e *ErrTypeMismatch) Error() string {
	return fmt.Sprintf("values: %s expects %d bytes, got %d", e.Type, e.Want, e.Got)
}
