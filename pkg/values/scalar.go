package values

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"strconv"

	"github.com/cottontaildb/cottontail/pkg/primitives"
)

// BooleanValue is a one-byte boolean cell.
type BooleanValue bool

func NewBoolean(v bool) BooleanValue { return BooleanValue(v) }
func (v BooleanValue) Type() Type    { return Boolean }
func (v BooleanValue) String() string {
	return strconv.FormatBool(bool(v))
}
func (v BooleanValue) Serialize() []byte {
	if v {
		return []byte{1}
	}
	return []byte{0}
}
func (v BooleanValue) Equals(other Value) bool {
	o, ok := other.(BooleanValue)
	return ok && o == v
}
func (v BooleanValue) Hash() primitives.HashCode {
	return primitives.HashCode(fnvSum(v.Serialize()))
}

func DeserializeBoolean(buf []byte) (BooleanValue, error) {
	if len(buf) != 1 {
		return false, &ErrTypeMismatch{Type: Boolean, Want: 1, Got: len(buf)}
	}
	return BooleanValue(buf[0] != 0), nil
}

// ByteValue is a single signed byte cell.
type ByteValue int8

func NewByte(v int8) ByteValue { return ByteValue(v) }
func (v ByteValue) Type() Type { return Byte }
func (v ByteValue) String() string {
	return strconv.FormatInt(int64(v), 10)
}
func (v ByteValue) Serialize() []byte {
	return []byte{byte(v)}
}
func (v ByteValue) Equals(other Value) bool {
	o, ok := other.(ByteValue)
	return ok && o == v
}
func (v ByteValue) Hash() primitives.HashCode {
	return primitives.HashCode(fnvSum(v.Serialize()))
}

func DeserializeByte(buf []byte) (ByteValue, error) {
	if len(buf) != 1 {
		return 0, &ErrTypeMismatch{Type: Byte, Want: 1, Got: len(buf)}
	}
	return ByteValue(int8(buf[0])), nil
}

// ShortValue is a 16-bit signed integer cell.
type ShortValue int16

func NewShort(v int16) ShortValue { return ShortValue(v) }
func (v ShortValue) Type() Type   { return Short }
func (v ShortValue) String() string {
	return strconv.FormatInt(int64(v), 10)
}
func (v ShortValue) Serialize() []byte {
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, uint16(v))
	return buf
}
func (v ShortValue) Equals(other Value) bool {
	o, ok := other.(ShortValue)
	return ok && o == v
}
func (v ShortValue) Hash() primitives.HashCode {
	return primitives.HashCode(fnvSum(v.Serialize()))
}

func DeserializeShort(buf []byte) (ShortValue, error) {
	if len(buf) != 2 {
		return 0, &ErrTypeMismatch{Type: Short, Want: 2, Got: len(buf)}
	}
	return ShortValue(int16(binary.BigEndian.Uint16(buf))), nil
}

// IntValue is a 32-bit signed integer cell.
type IntValue int32

func NewInt(v int32) IntValue { return IntValue(v) }
func (v IntValue) Type() Type { return Int }
func (v IntValue) String() string {
	return strconv.FormatInt(int64(v), 10)
}
func (v IntValue) Serialize() []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(v))
	return buf
}
func (v IntValue) Equals(other Value) bool {
	o, ok := other.(IntValue)
	return ok && o == v
}
func (v IntValue) Hash() primitives.HashCode {
	return primitives.HashCode(fnvSum(v.Serialize()))
}

func DeserializeInt(buf []byte) (IntValue, error) {
	if len(buf) != 4 {
		return 0, &ErrTypeMismatch{Type: Int, Want: 4, Got: len(buf)}
	}
	return IntValue(int32(binary.BigEndian.Uint32(buf))), nil
}

// LongValue is a 64-bit signed integer cell.
type LongValue int64

func NewLong(v int64) LongValue { return LongValue(v) }
func (v LongValue) Type() Type  { return Long }
func (v LongValue) String() string {
	return strconv.FormatInt(int64(v), 10)
}
func (v LongValue) Serialize() []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(v))
	return buf
}
func (v LongValue) Equals(other Value) bool {
	o, ok := other.(LongValue)
	return ok && o == v
}
func (v LongValue) Hash() primitives.HashCode {
	return primitives.HashCode(fnvSum(v.Serialize()))
}

func DeserializeLong(buf []byte) (LongValue, error) {
	if len(buf) != 8 {
		return 0, &ErrTypeMismatch{Type: Long, Want: 8, Got: len(buf)}
	}
	return LongValue(int64(binary.BigEndian.Uint64(buf))), nil
}

// FloatValue is a 32-bit floating point cell.
type FloatValue float32

func NewFloat(v float32) FloatValue { return FloatValue(v) }
func (v FloatValue) Type() Type     { return Float }
func (v FloatValue) String() string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}
func (v FloatValue) Serialize() []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, math.Float32bits(float32(v)))
	return buf
}
func (v FloatValue) Equals(other Value) bool {
	o, ok := other.(FloatValue)
	return ok && o == v
}
func (v FloatValue) Hash() primitives.HashCode {
	return primitives.HashCode(fnvSum(v.Serialize()))
}

func DeserializeFloat(buf []byte) (FloatValue, error) {
	if len(buf) != 4 {
		return 0, &ErrTypeMismatch{Type: Float, Want: 4, Got: len(buf)}
	}
	return FloatValue(math.Float32frombits(binary.BigEndian.Uint32(buf))), nil
}

// DoubleValue is a 64-bit floating point cell.
type DoubleValue float64

func NewDouble(v float64) DoubleValue { return DoubleValue(v) }
func (v DoubleValue) Type() Type      { return Double }
func (v DoubleValue) String() string {
	return strconv.FormatFloat(float64(v), 'g', -1, 64)
}
func (v DoubleValue) Serialize() []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, math.Float64bits(float64(v)))
	return buf
}
func (v DoubleValue) Equals(other Value) bool {
	o, ok := other.(DoubleValue)
	return ok && o == v
}
func (v DoubleValue) Hash() primitives.HashCode {
	return primitives.HashCode(fnvSum(v.Serialize()))
}

func DeserializeDouble(buf []byte) (DoubleValue, error) {
	if len(buf) != 8 {
		return 0, &ErrTypeMismatch{Type: Double, Want: 8, Got: len(buf)}
	}
	return DoubleValue(math.Float64frombits(binary.BigEndian.Uint64(buf))), nil
}

// StringValue is a UTF-8 string cell. Its on-disk form is a 4-byte length
// prefix followed by the raw bytes; the column layer caps the declared
// byte length so fixed-slot addressing still applies.
type StringValue string

func NewString(v string) StringValue { return StringValue(v) }
func (v StringValue) Type() Type     { return String }
func (v StringValue) String() string { return string(v) }
func (v StringValue) Serialize() []byte {
	buf := make([]byte, 4+len(v))
	binary.BigEndian.PutUint32(buf[0:4], uint32(len(v)))
	copy(buf[4:], v)
	return buf
}
func (v StringValue) Equals(other Value) bool {
	o, ok := other.(StringValue)
	return ok && o == v
}
func (v StringValue) Hash() primitives.HashCode {
	return primitives.HashCode(fnvSum([]byte(v)))
}

func DeserializeString(buf []byte) (StringValue, error) {
	if len(buf) < 4 {
		return "", &ErrTypeMismatch{Type: String, Want: 4, Got: len(buf)}
	}
	n := binary.BigEndian.Uint32(buf[0:4])
	if len(buf) < int(4+n) {
		return "", &ErrTypeMismatch{Type: String, Want: int(4 + n), Got: len(buf)}
	}
	return StringValue(buf[4 : 4+n]), nil
}

// Complex32Value is a complex number with float32 real/imaginary parts.
type Complex32Value complex64

func NewComplex32(v complex64) Complex32Value { return Complex32Value(v) }
func (v Complex32Value) Type() Type           { return Complex32 }
func (v Complex32Value) String() string {
	return fmt.Sprintf("%g", complex64(v))
}
func (v Complex32Value) Serialize() []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint32(buf[0:4], math.Float32bits(real(complex64(v))))
	binary.BigEndian.PutUint32(buf[4:8], math.Float32bits(imag(complex64(v))))
	return buf
}
func (v Complex32Value) Equals(other Value) bool {
	o, ok := other.(Complex32Value)
	return ok && o == v
}
func (v Complex32Value) Hash() primitives.HashCode {
	return primitives.HashCode(fnvSum(v.Serialize()))
}

func DeserializeComplex32(buf []byte) (Complex32Value, error) {
	if len(buf) != 8 {
		return 0, &ErrTypeMismatch{Type: Complex32, Want: 8, Got: len(buf)}
	}
	re := math.Float32frombits(binary.BigEndian.Uint32(buf[0:4]))
	im := math.Float32frombits(binary.BigEndian.Uint32(buf[4:8]))
	return Complex32Value(complex(re, im)), nil
}

// Complex64Value is a complex number with float64 real/imaginary parts.
type Complex64Value complex128

func NewComplex64(v complex128) Complex64Value { return Complex64Value(v) }
func (v Complex64Value) Type() Type            { return Complex64 }
func (v Complex64Value) String() string {
	return fmt.Sprintf("%g", complex128(v))
}
func (v Complex64Value) Serialize() []byte {
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[0:8], math.Float64bits(real(complex128(v))))
	binary.BigEndian.PutUint64(buf[8:16], math.Float64bits(imag(complex128(v))))
	return buf
}
func (v Complex64Value) Equals(other Value) bool {
	o, ok := other.(Complex64Value)
	return ok && o == v
}
func (v Complex64Value) Hash() primitives.HashCode {
	return primitives.HashCode(fnvSum(v.Serialize()))
}

func DeserializeComplex64(buf []byte) (Complex64Value, error) {
	if len(buf) != 16 {
		return 0, &ErrTypeMismatch{Type: Complex64, Want: 16, Got: len(buf)}
	}
	re := math.Float64frombits(binary.BigEndian.Uint64(buf[0:8]))
	im := math.Float64frombits(binary.BigEndian.Uint64(buf[8:16]))
	return Complex64Value(complex(re, im)), nil
}

func fnvSum(data []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(data)
	return h.Sum64()
}
