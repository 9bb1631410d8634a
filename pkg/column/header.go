package column

import (
	"encoding/binary"
	"fmt"

	"github.com/cottontaildb/cottontail/pkg/values"
)

const headerIdentifier = "COTTONC"

// headerEncodedSize is the fixed byte width of an encoded Header: a 7-byte
// identifier, a 2-byte format version, a 1-byte type tag, a 4-byte logical
// size, a 1-byte nullability flag, an 8-byte live element count, an 8-byte
// ever-allocated slot count and two 8-byte millisecond timestamps.
const headerEncodedSize = 7 + 2 + 1 + 4 + 1 + 8 + 8 + 8 + 8

const headerFormatVersion uint16 = 1

// Header is the record a column stores at tuple id 1: its type, shape,
// live element count, the high-water mark of tuple ids ever handed out by
// insert, and creation/modification timestamps.
type Header struct {
	Schema         Schema
	ElementCount   uint64
	AllocatedSlots uint64
	CreatedMillis  int64
	ModifiedMillis int64
}

func (h Header) encode() []byte {
	buf := make([]byte, headerEncodedSize)
	copy(buf[0:7], headerIdentifier)
	binary.BigEndian.PutUint16(buf[7:9], headerFormatVersion)
	buf[9] = byte(h.Schema.Type)
	binary.BigEndian.PutUint32(buf[10:14], uint32(h.Schema.LogicalSize))
	if h.Schema.Nullable {
		buf[14] = 1
	}
	binary.BigEndian.PutUint64(buf[15:23], h.ElementCount)
	binary.BigEndian.PutUint64(buf[23:31], h.AllocatedSlots)
	binary.BigEndian.PutUint64(buf[31:39], uint64(h.CreatedMillis))
	binary.BigEndian.PutUint64(buf[39:47], uint64(h.ModifiedMillis))
	return buf
}

func decodeHeader(buf []byte) (Header, error) {
	if len(buf) < headerEncodedSize {
		return Header{}, fmt.Errorf("column: header record too short: got %d bytes, want %d", len(buf), headerEncodedSize)
	}
	if string(buf[0:7]) != headerIdentifier {
		return Header{}, fmt.Errorf("column: bad header identifier %q", buf[0:7])
	}
	if v := binary.BigEndian.Uint16(buf[7:9]); v != headerFormatVersion {
		return Header{}, fmt.Errorf("column: unsupported header version %d", v)
	}
	return Header{
		Schema: Schema{
			Type:        values.Type(buf[9]),
			LogicalSize: int(int32(binary.BigEndian.Uint32(buf[10:14]))),
			Nullable:    buf[14] != 0,
		},
		ElementCount:   binary.BigEndian.Uint64(buf[15:23]),
		AllocatedSlots: binary.BigEndian.Uint64(buf[23:31]),
		CreatedMillis:  int64(binary.BigEndian.Uint64(buf[31:39])),
		ModifiedMillis: int64(binary.BigEndian.Uint64(buf[39:47])),
	}, nil
}
