package entity

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/cottontaildb/cottontail/pkg/column"
	"github.com/cottontaildb/cottontail/pkg/values"
)

const headerIdentifier = "COTTONE"
const headerFormatVersion uint16 = 1

// ColumnDef describes one column an entity owns, as recorded in its
// header: a name and the on-disk schema of its col_<name>.db file.
type ColumnDef struct {
	Name   string
	Schema column.Schema
}

// IndexDef describes one secondary index an entity owns, as recorded in
// its header: a name, a type tag, the driving columns, the column it
// projects, and its uniqueness constraint.
type IndexDef struct {
	Name     string
	Type     string
	Columns  []string
	Produces string
	Unique   bool
}

// Header is the entity's own metadata record: its row count and the
// column/index definitions that make up its schema.
type Header struct {
	RowCount uint64
	Columns  []ColumnDef
	Indexes  []IndexDef
}

func writeString(buf *bytes.Buffer, s string) {
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(s)))
	buf.Write(lenBuf[:])
	buf.WriteString(s)
}

func readString(buf *bytes.Reader) (string, error) {
	var lenBuf [2]byte
	if _, err := buf.Read(lenBuf[:]); err != nil {
		return "", err
	}
	n := binary.BigEndian.Uint16(lenBuf[:])
	out := make([]byte, n)
	if _, err := buf.Read(out); err != nil {
		return "", err
	}
	return string(out), nil
}

func (h Header) encode() ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteString(headerIdentifier)
	var versionBuf [2]byte
	binary.BigEndian.PutUint16(versionBuf[:], headerFormatVersion)
	buf.Write(versionBuf[:])

	var rowCountBuf [8]byte
	binary.BigEndian.PutUint64(rowCountBuf[:], h.RowCount)
	buf.Write(rowCountBuf[:])

	var countBuf [2]byte
	binary.BigEndian.PutUint16(countBuf[:], uint16(len(h.Columns)))
	buf.Write(countBuf[:])
	for _, c := range h.Columns {
		writeString(buf, c.Name)
		buf.WriteByte(byte(c.Schema.Type))
		var sizeBuf [4]byte
		binary.BigEndian.PutUint32(sizeBuf[:], uint32(int32(c.Schema.LogicalSize)))
		buf.Write(sizeBuf[:])
		if c.Schema.Nullable {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	}

	binary.BigEndian.PutUint16(countBuf[:], uint16(len(h.Indexes)))
	buf.Write(countBuf[:])
	for _, idx := range h.Indexes {
		writeString(buf, idx.Name)
		writeString(buf, idx.Type)
		binary.BigEndian.PutUint16(countBuf[:], uint16(len(idx.Columns)))
		buf.Write(countBuf[:])
		for _, col := range idx.Columns {
			writeString(buf, col)
		}
		writeString(buf, idx.Produces)
		if idx.Unique {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	}

	return buf.Bytes(), nil
}

func decodeHeader(data []byte) (Header, error) {
	r := bytes.NewReader(data)

	magic := make([]byte, len(headerIdentifier))
	if _, err := r.Read(magic); err != nil {
		return Header{}, err
	}
	if string(magic) != headerIdentifier {
		return Header{}, fmt.Errorf("entity: bad header identifier %q", magic)
	}
	var versionBuf [2]byte
	if _, err := r.Read(versionBuf[:]); err != nil {
		return Header{}, err
	}
	if v := binary.BigEndian.Uint16(versionBuf[:]); v != headerFormatVersion {
		return Header{}, fmt.Errorf("entity: unsupported header version %d", v)
	}

	var rowCountBuf [8]byte
	if _, err := r.Read(rowCountBuf[:]); err != nil {
		return Header{}, err
	}
	h := Header{RowCount: binary.BigEndian.Uint64(rowCountBuf[:])}

	var countBuf [2]byte
	if _, err := r.Read(countBuf[:]); err != nil {
		return Header{}, err
	}
	numColumns := binary.BigEndian.Uint16(countBuf[:])
	for i := uint16(0); i < numColumns; i++ {
		name, err := readString(r)
		if err != nil {
			return Header{}, err
		}
		typeByte, err := r.ReadByte()
		if err != nil {
			return Header{}, err
		}
		var sizeBuf [4]byte
		if _, err := r.Read(sizeBuf[:]); err != nil {
			return Header{}, err
		}
		nullableByte, err := r.ReadByte()
		if err != nil {
			return Header{}, err
		}
		h.Columns = append(h.Columns, ColumnDef{
			Name: name,
			Schema: column.Schema{
				Type:        values.Type(typeByte),
				LogicalSize: int(int32(binary.BigEndian.Uint32(sizeBuf[:]))),
				Nullable:    nullableByte != 0,
			},
		})
	}

	if _, err := r.Read(countBuf[:]); err != nil {
		return Header{}, err
	}
	numIndexes := binary.BigEndian.Uint16(countBuf[:])
	for i := uint16(0); i < numIndexes; i++ {
		name, err := readString(r)
		if err != nil {
			return Header{}, err
		}
		typ, err := readString(r)
		if err != nil {
			return Header{}, err
		}
		if _, err := r.Read(countBuf[:]); err != nil {
			return Header{}, err
		}
		numCols := binary.BigEndian.Uint16(countBuf[:])
		cols := make([]string, 0, numCols)
		for j := uint16(0); j < numCols; j++ {
			c, err := readString(r)
			if err != nil {
				return Header{}, err
			}
			cols = append(cols, c)
		}
		produces, err := readString(r)
		if err != nil {
			return Header{}, err
		}
		uniqueByte, err := r.ReadByte()
		if err != nil {
			return Header{}, err
		}
		h.Indexes = append(h.Indexes, IndexDef{Name: name, Type: typ, Columns: cols, Produces: produces, Unique: uniqueByte != 0})
	}

	return h, nil
}
