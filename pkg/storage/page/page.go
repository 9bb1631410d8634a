// Package page defines the fixed-size page and file-header layout shared by
// every on-disk file in the storage engine: column files, index bucket
// files, and entity/schema header files.
package page

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/cottontaildb/cottontail/pkg/primitives"
)

const (
	// Size is the size of every page in bytes. PageID 0 << Shift is the
	// file header; user data starts at PageID 1.
	Size = 4096
	// Shift is the bit-shift that turns a PageID into a byte offset.
	Shift = 12
)

// Page is a pinned, fixed-size byte region read from or about to be written
// to a single PageID within one file. It carries no dirty/transaction state
// of its own; that bookkeeping lives in the buffer pool and in Column.Tx.
type Page struct {
	id   primitives.PageID
	data [Size]byte
}

// New returns a zero-filled page for the given id.
func New(id primitives.PageID) *Page {
	return &Page{id: id}
}

// FromBytes wraps an existing Size-byte buffer as a page, copying it in.
func FromBytes(id primitives.PageID, buf []byte) (*Page, error) {
	if len(buf) != Size {
		return nil, fmt.Errorf("page: want %d bytes, got %d", Size, len(buf))
	}
	p := &Page{id: id}
	copy(p.data[:], buf)
	return p, nil
}

func (p *Page) ID() primitives.PageID { return p.id }

// Bytes returns the page's backing array as a slice. Callers that mutate it
// are responsible for persisting the change through a DiskManager.
func (p *Page) Bytes() []byte { return p.data[:] }

// Offset returns this page's byte offset within its file.
func Offset(id primitives.PageID) int64 { return int64(id) << Shift }

const headerMagic = "HARE"

// FileKind tags what a file's data pages hold, stored in the header so an
// accidental open of the wrong file is caught early.
type FileKind uint32

const (
	KindColumn FileKind = iota + 1
	KindHashIndexBuckets
	KindEntityHeader
	KindSchemaHeader
)

// headerVersion is the on-disk format version of FileHeader itself.
const headerVersion uint8 = 1

const (
	sanityClean uint8 = 0
	sanityInUse uint8 = 1
)

// FileHeader is the page-0 layout of every HARE file: a 4-byte ASCII
// identifier, a file-type tag, a format version, a sanity flag, the total
// and freed page counts, a CRC32C over every data page, and the timestamp
// of the last WAL record applied. Remaining bytes are reserved and zero.
type FileHeader struct {
	Kind          FileKind
	Version       uint8
	sanityInUse   bool
	TotalPages    uint64
	FreedPages    uint32
	Checksum      uint64
	LastWALMillis uint64
}

// NewFileHeader builds a fresh header for a newly created file. TotalPages
// starts at 1 to account for the header page itself.
func NewFileHeader(kind FileKind) *FileHeader {
	return &FileHeader{Kind: kind, Version: headerVersion, TotalPages: 1}
}

func (h *FileHeader) IsInUse() bool  { return h.sanityInUse }
func (h *FileHeader) MarkInUse()     { h.sanityInUse = true }
func (h *FileHeader) MarkClean()     { h.sanityInUse = false }

// Encode serialises the header into a Size-byte page-0 image. Checksum
// must already reflect the caller's CRC32C computation over the data pages.
func (h *FileHeader) Encode() []byte {
	buf := make([]byte, Size)
	copy(buf[0:4], headerMagic)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(h.Kind))
	buf[8] = h.Version
	if h.sanityInUse {
		buf[9] = sanityInUse
	} else {
		buf[9] = sanityClean
	}
	binary.LittleEndian.PutUint64(buf[10:18], h.TotalPages)
	binary.LittleEndian.PutUint32(buf[18:22], h.FreedPages)
	binary.LittleEndian.PutUint64(buf[22:30], h.Checksum)
	binary.LittleEndian.PutUint64(buf[30:38], h.LastWALMillis)
	return buf
}

// DecodeFileHeader parses a page-0 image, validating the magic identifier
// and version. A mismatch is reported as a corruption error by the caller.
func DecodeFileHeader(buf []byte) (*FileHeader, error) {
	if len(buf) != Size {
		return nil, fmt.Errorf("file header: want %d bytes, got %d", Size, len(buf))
	}
	if string(buf[0:4]) != headerMagic {
		return nil, fmt.Errorf("file header: bad identifier %q", buf[0:4])
	}
	h := &FileHeader{
		Kind:          FileKind(binary.LittleEndian.Uint32(buf[4:8])),
		Version:       buf[8],
		sanityInUse:   buf[9] == sanityInUse,
		TotalPages:    binary.LittleEndian.Uint64(buf[10:18]),
		FreedPages:    binary.LittleEndian.Uint32(buf[18:22]),
		Checksum:      binary.LittleEndian.Uint64(buf[22:30]),
		LastWALMillis: binary.LittleEndian.Uint64(buf[30:38]),
	}
	if h.Version != headerVersion {
		return nil, fmt.Errorf("file header: unsupported version %d", h.Version)
	}
	return h, nil
}

// ChecksumPages computes the CRC32C (Castagnoli) checksum over the
// concatenation of every data page, in ascending PageID order.
func ChecksumPages(pages [][]byte) uint64 {
	table := crc32.MakeTable(crc32.Castagnoli)
	var crc uint32
	for _, p := range pages {
		crc = crc32.Update(crc, table, p)
	}
	return uint64(crc)
}
