package column

import (
	"fmt"

	"github.com/cottontaildb/cottontail/pkg/values"
)

// Schema describes the fixed shape of every value a column holds: its
// value.Type, a declared size (vector dimension, or the maximum byte
// length of a STRING value), and whether a null cell is permitted.
//
// LogicalSize is ignored for scalar types other than STRING.
type Schema struct {
	Type        values.Type
	LogicalSize int
	Nullable    bool
}

// ValueSize returns the fixed number of bytes one value of this schema
// occupies on disk, not counting the one-byte slot flag.
func (s Schema) ValueSize() int {
	switch s.Type {
	case values.Boolean, values.Byte:
		return 1
	case values.Short:
		return 2
	case values.Int, values.Float:
		return 4
	case values.Long, values.Double, values.Complex32:
		return 8
	case values.Complex64:
		return 16
	case values.String:
		return 4 + s.LogicalSize
	case values.FloatVector:
		return s.LogicalSize * 4
	case values.DoubleVector, values.Complex32Vector:
		return s.LogicalSize * 8
	case values.Complex64Vector:
		return s.LogicalSize * 16
	case values.BitVector:
		return (s.LogicalSize + 7) / 8
	default:
		return 0
	}
}

// decode parses buf (exactly ValueSize bytes, the bytes that follow a
// present slot's flag byte) into a values.Value of this schema's type.
func (s Schema) decode(buf []byte) (values.Value, error) {
	switch s.Type {
	case values.Boolean:
		return values.DeserializeBoolean(buf)
	case values.Byte:
		return values.DeserializeByte(buf)
	case values.Short:
		return values.DeserializeShort(buf)
	case values.Int:
		return values.DeserializeInt(buf)
	case values.Long:
		return values.DeserializeLong(buf)
	case values.Float:
		return values.DeserializeFloat(buf)
	case values.Double:
		return values.DeserializeDouble(buf)
	case values.String:
		return values.DeserializeString(trimStringBuf(buf))
	case values.Complex32:
		return values.DeserializeComplex32(buf)
	case values.Complex64:
		return values.DeserializeComplex64(buf)
	case values.FloatVector:
		return values.DeserializeFloatVector(buf, s.LogicalSize)
	case values.DoubleVector:
		return values.DeserializeDoubleVector(buf, s.LogicalSize)
	case values.Complex32Vector:
		return values.DeserializeComplex32Vector(buf, s.LogicalSize)
	case values.Complex64Vector:
		return values.DeserializeComplex64Vector(buf, s.LogicalSize)
	case values.BitVector:
		return values.DeserializeBitVector(buf, s.LogicalSize)
	default:
		return nil, fmt.Errorf("column: unknown value type %d", s.Type)
	}
}

// encode serialises v into a freshly allocated ValueSize()-byte slice,
// zero-padding fixed-width slots (STRING) whose content is shorter than
// the schema's declared maximum.
func (s Schema) encode(v values.Value) ([]byte, error) {
	if v.Type() != s.Type {
		return nil, fmt.Errorf("column: value type %s does not match column type %s", v.Type(), s.Type)
	}
	raw := v.Serialize()
	out := make([]byte, s.ValueSize())
	if len(raw) > len(out) {
		return nil, fmt.Errorf("column: value of %d bytes exceeds declared slot size %d", len(raw), len(out))
	}
	copy(out, raw)
	return out, nil
}

// trimStringBuf undoes the zero-padding encode applies past a STRING
// value's declared 4-byte length prefix and actual content.
func trimStringBuf(buf []byte) []byte {
	if len(buf) < 4 {
		return buf
	}
	n := int(buf[0])<<24 | int(buf[1])<<16 | int(buf[2])<<8 | int(buf[3])
	if 4+n > len(buf) || n < 0 {
		return buf
	}
	return buf[:4+n]
}
