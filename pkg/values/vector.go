package values

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/cottontaildb/cottontail/pkg/primitives"
)

// FloatVectorValue is a fixed-length sequence of float32 components.
type FloatVectorValue []float32

func NewFloatVector(v []float32) FloatVectorValue { return FloatVectorValue(append([]float32(nil), v...)) }
func (v FloatVectorValue) Type() Type              { return FloatVector }
func (v FloatVectorValue) LogicalSize() int         { return len(v) }
func (v FloatVectorValue) PhysicalSize() int        { return len(v) * 4 }
func (v FloatVectorValue) String() string {
	return formatFloats(v)
}
func (v FloatVectorValue) Serialize() []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.BigEndian.PutUint32(buf[i*4:i*4+4], math.Float32bits(f))
	}
	return buf
}
func (v FloatVectorValue) Equals(other Value) bool {
	o, ok := other.(FloatVectorValue)
	if !ok || len(o) != len(v) {
		return false
	}
	for i := range v {
		if v[i] != o[i] {
			return false
		}
	}
	return true
}
func (v FloatVectorValue) Hash() primitives.HashCode {
	return primitives.HashCode(fnvSum(v.Serialize()))
}

func DeserializeFloatVector(buf []byte, n int) (FloatVectorValue, error) {
	if len(buf) != n*4 {
		return nil, &ErrTypeMismatch{Type: FloatVector, Want: n * 4, Got: len(buf)}
	}
	out := make(FloatVectorValue, n)
	for i := 0; i < n; i++ {
		out[i] = math.Float32frombits(binary.BigEndian.Uint32(buf[i*4 : i*4+4]))
	}
	return out, nil
}

// DoubleVectorValue is a fixed-length sequence of float64 components.
type DoubleVectorValue []float64

func NewDoubleVector(v []float64) DoubleVectorValue {
	return DoubleVectorValue(append([]float64(nil), v...))
}
func (v DoubleVectorValue) Type() Type      { return DoubleVector }
func (v DoubleVectorValue) LogicalSize() int { return len(v) }
func (v DoubleVectorValue) PhysicalSize() int { return len(v) * 8 }
func (v DoubleVectorValue) String() string {
	return formatFloats64(v)
}
func (v DoubleVectorValue) Serialize() []byte {
	buf := make([]byte, len(v)*8)
	for i, f := range v {
		binary.BigEndian.PutUint64(buf[i*8:i*8+8], math.Float64bits(f))
	}
	return buf
}
func (v DoubleVectorValue) Equals(other Value) bool {
	o, ok := other.(DoubleVectorValue)
	if !ok || len(o) != len(v) {
		return false
	}
	for i := range v {
		if v[i] != o[i] {
			return false
		}
	}
	return true
}
func (v DoubleVectorValue) Hash() primitives.HashCode {
	return primitives.HashCode(fnvSum(v.Serialize()))
}

func DeserializeDoubleVector(buf []byte, n int) (DoubleVectorValue, error) {
	if len(buf) != n*8 {
		return nil, &ErrTypeMismatch{Type: DoubleVector, Want: n * 8, Got: len(buf)}
	}
	out := make(DoubleVectorValue, n)
	for i := 0; i < n; i++ {
		out[i] = math.Float64frombits(binary.BigEndian.Uint64(buf[i*8 : i*8+8]))
	}
	return out, nil
}

// Complex32VectorValue is a fixed-length sequence of complex64 components.
type Complex32VectorValue []complex64

func NewComplex32Vector(v []complex64) Complex32VectorValue {
	return Complex32VectorValue(append([]complex64(nil), v...))
}
func (v Complex32VectorValue) Type() Type      { return Complex32Vector }
func (v Complex32VectorValue) LogicalSize() int { return len(v) }
func (v Complex32VectorValue) PhysicalSize() int { return len(v) * 8 }
func (v Complex32VectorValue) String() string {
	parts := make([]string, len(v))
	for i, c := range v {
		parts[i] = fmt.Sprintf("%g", c)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
func (v Complex32VectorValue) Serialize() []byte {
	buf := make([]byte, len(v)*8)
	for i, c := range v {
		binary.BigEndian.PutUint32(buf[i*8:i*8+4], math.Float32bits(real(c)))
		binary.BigEndian.PutUint32(buf[i*8+4:i*8+8], math.Float32bits(imag(c)))
	}
	return buf
}
func (v Complex32VectorValue) Equals(other Value) bool {
	o, ok := other.(Complex32VectorValue)
	if !ok || len(o) != len(v) {
		return false
	}
	for i := range v {
		if v[i] != o[i] {
			return false
		}
	}
	return true
}
func (v Complex32VectorValue) Hash() primitives.HashCode {
	return primitives.HashCode(fnvSum(v.Serialize()))
}

func DeserializeComplex32Vector(buf []byte, n int) (Complex32VectorValue, error) {
	if len(buf) != n*8 {
		return nil, &ErrTypeMismatch{Type: Complex32Vector, Want: n * 8, Got: len(buf)}
	}
	out := make(Complex32VectorValue, n)
	for i := 0; i < n; i++ {
		re := math.Float32frombits(binary.BigEndian.Uint32(buf[i*8 : i*8+4]))
		im := math.Float32frombits(binary.BigEndian.Uint32(buf[i*8+4 : i*8+8]))
		out[i] = complex(re, im)
	}
	return out, nil
}

// Complex64VectorValue is a fixed-length sequence of complex128 components.
type Complex64VectorValue []complex128

func NewComplex64Vector(v []complex128) Complex64VectorValue {
	return Complex64VectorValue(append([]complex128(nil), v...))
}
func (v Complex64VectorValue) Type() Type      { return Complex64Vector }
func (v Complex64VectorValue) LogicalSize() int { return len(v) }
func (v Complex64VectorValue) PhysicalSize() int { return len(v) * 16 }
func (v Complex64VectorValue) String() string {
	parts := make([]string, len(v))
	for i, c := range v {
		parts[i] = fmt.Sprintf("%g", c)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
func (v Complex64VectorValue) Serialize() []byte {
	buf := make([]byte, len(v)*16)
	for i, c := range v {
		binary.BigEndian.PutUint64(buf[i*16:i*16+8], math.Float64bits(real(c)))
		binary.BigEndian.PutUint64(buf[i*16+8:i*16+16], math.Float64bits(imag(c)))
	}
	return buf
}
func (v Complex64VectorValue) Equals(other Value) bool {
	o, ok := other.(Complex64VectorValue)
	if !ok || len(o) != len(v) {
		return false
	}
	for i := range v {
		if v[i] != o[i] {
			return false
		}
	}
	return true
}
func (v Complex64VectorValue) Hash() primitives.HashCode {
	return primitives.HashCode(fnvSum(v.Serialize()))
}

func DeserializeComplex64Vector(buf []byte, n int) (Complex64VectorValue, error) {
	if len(buf) != n*16 {
		return nil, &ErrTypeMismatch{Type: Complex64Vector, Want: n * 16, Got: len(buf)}
	}
	out := make(Complex64VectorValue, n)
	for i := 0; i < n; i++ {
		re := math.Float64frombits(binary.BigEndian.Uint64(buf[i*16 : i*16+8]))
		im := math.Float64frombits(binary.BigEndian.Uint64(buf[i*16+8 : i*16+16]))
		out[i] = complex(re, im)
	}
	return out, nil
}

// BitVectorValue is a fixed-length sequence of booleans packed 8 per byte,
// most-significant bit first. Used as the operand type for hamming
// distance.
type BitVectorValue struct {
	bits []bool
}

func NewBitVector(bits []bool) BitVectorValue {
	return BitVectorValue{bits: append([]bool(nil), bits...)}
}
func (v BitVectorValue) Type() Type      { return BitVector }
func (v BitVectorValue) LogicalSize() int { return len(v.bits) }
func (v BitVectorValue) PhysicalSize() int { return (len(v.bits) + 7) / 8 }
func (v BitVectorValue) Bit(i int) bool   { return v.bits[i] }
func (v BitVectorValue) String() string {
	sb := strings.Builder{}
	sb.WriteByte('[')
	for i, b := range v.bits {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if b {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	sb.WriteByte(']')
	return sb.String()
}
func (v BitVectorValue) Serialize() []byte {
	buf := make([]byte, v.PhysicalSize())
	for i, b := range v.bits {
		if b {
			buf[i/8] |= 1 << (7 - uint(i%8))
		}
	}
	return buf
}
func (v BitVectorValue) Equals(other Value) bool {
	o, ok := other.(BitVectorValue)
	if !ok || len(o.bits) != len(v.bits) {
		return false
	}
	for i := range v.bits {
		if v.bits[i] != o.bits[i] {
			return false
		}
	}
	return true
}
func (v BitVectorValue) Hash() primitives.HashCode {
	return primitives.HashCode(fnvSum(v.Serialize()))
}

func DeserializeBitVector(buf []byte, n int) (BitVectorValue, error) {
	if len(buf) != (n+7)/8 {
		return BitVectorValue{}, &ErrTypeMismatch{Type: BitVector, Want: (n + 7) / 8, Got: len(buf)}
	}
	bits := make([]bool, n)
	for i := 0; i < n; i++ {
		bits[i] = buf[i/8]&(1<<(7-uint(i%8))) != 0
	}
	return BitVectorValue{bits: bits}, nil
}

func formatFloats(v []float32) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = fmt.Sprintf("%g", f)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func formatFloats64(v []float64) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = fmt.Sprintf("%g", f)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

var (
	_ Vector = FloatVectorValue(nil)
	_ Vector = DoubleVectorValue(nil)
	_ Vector = Complex32VectorValue(nil)
	_ Vector = Complex64VectorValue(nil)
	_ Vector = BitVectorValue{}
)
