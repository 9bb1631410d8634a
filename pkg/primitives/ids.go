// Package primitives holds the small value types shared by every layer of
// the engine: tuple and page identifiers, file identifiers, log sequence
// numbers and the scalar predicate operators used by index cost estimation.
package primitives

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// TupleID is the stable, monotonically allocated identifier of a row within
// a column. TupleID 1 is reserved for the column's own header record; user
// values start at 2 and are never reused after a delete.
type TupleID uint64

// HeaderTupleID is the reserved tuple id holding a column's ColumnHeader.
const HeaderTupleID TupleID = 1

// FirstUserTupleID is the smallest tuple id a caller may read or write.
const FirstUserTupleID TupleID = 2

func (t TupleID) IsValid() bool {
	return t >= FirstUserTupleID
}

func (t TupleID) String() string {
	return fmt.Sprintf("tid:%d", uint64(t))
}

// PageID identifies a fixed-size page within a single HARE file. Page 0 is
// always the file header; PageID 0 therefore never denotes a data page.
type PageID uint64

func (p PageID) IsValid() bool {
	return p >= 1
}

func (p PageID) String() string {
	return fmt.Sprintf("page:%d", uint64(p))
}

// FileID is a 64-bit file identifier, either hashed from a file's path
// (Filepath.Hash) or minted at random (NewFileID).
type FileID uint64

func (f FileID) IsValid() bool {
	return f != 0
}

// NewFileID mints a fresh, collision-resistant FileID from a random UUID,
// for callers (schema/entity creation) that need an identifier before any
// file exists on disk to hash.
func NewFileID() FileID {
	id := uuid.New()
	b := [16]byte(id)
	return FileID(binary.BigEndian.Uint64(b[8:16]))
}

func (f FileID) String() string {
	return fmt.Sprintf("file:%d", uint64(f))
}

// LSN is a write-ahead-log sequence number: a counter assigned to each
// record appended to a disk manager's log file, increasing in append order.
type LSN uint64

// HashCode is a generic 64-bit hash, as returned by a value's Hash method
// and used by hash indexes.
type HashCode uint64
