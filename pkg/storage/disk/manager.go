// Package disk implements the disk manager: the layer that turns a path on
// disk into a HARE file of fixed-size pages, managing the file header,
// the mandatory exclusive file lock, and commit/rollback semantics.
//
// Two variants are provided. Direct writes through to the file on every
// update and allocate; its commit is a durability-only fsync of the header
// and its rollback is unsupported. WriteAheadLogged buffers updates in a
// sibling log file; commit applies the buffered writes to the main file
// and truncates the log, rollback discards the log untouched.
package disk

import (
	"fmt"
	"time"

	"github.com/cottontaildb/cottontail/pkg/dberrors"
	"github.com/cottontaildb/cottontail/pkg/primitives"
	"github.com/cottontaildb/cottontail/pkg/storage/page"
)

// DefaultLockTimeout is used when a caller does not supply one.
const DefaultLockTimeout = 5 * time.Second

var (
	_ Manager = (*Direct)(nil)
	_ Manager = (*WriteAheadLogged)(nil)
)

// Manager is the disk manager contract. PageID 0 is never a valid argument
// to Read/Update/Free; it is reserved for the file header and managed
// internally.
type Manager interface {
	// Read fills and returns the Size-byte page at id.
	Read(id primitives.PageID) ([]byte, error)
	// Update persists data (variant-specific) as the new content of id.
	Update(id primitives.PageID, data []byte) error
	// Allocate assigns the next free PageID, stores data there, and
	// increments the header's page count.
	Allocate(data []byte) (primitives.PageID, error)
	// Free counts id as freed in the header. Accounting-only: it does not
	// shrink the file or make the PageID available for reuse by Allocate.
	Free(id primitives.PageID) error
	// Commit applies outstanding variant-specific buffering and fsyncs.
	Commit() error
	// Rollback discards outstanding variant-specific buffering.
	Rollback() error
	// Close releases the file lock and flushes the header with
	// sanity = clean.
	Close() error
	// Header returns a snapshot of the current file header.
	Header() page.FileHeader
}

// base is the shared open-protocol and header-bookkeeping logic both
// variants build on.
type base struct {
	file   *page.BaseFile
	header *page.FileHeader
}

func openBase(path primitives.Filepath, kind page.FileKind, lockTimeout time.Duration) (*base, error) {
	bf, err := page.Open(path)
	if err != nil {
		return nil, dberrors.Wrap(dberrors.Storage, "open", err)
	}

	fd := int(bf.Handle().Fd())
	if err := acquireExclusive(fd, lockTimeout); err != nil {
		bf.Close()
		return nil, err
	}

	numPages, err := bf.NumPages()
	if err != nil {
		bf.Close()
		return nil, dberrors.Wrap(dberrors.Storage, "stat", err)
	}

	var header *page.FileHeader
	if numPages == 0 {
		header = page.NewFileHeader(kind)
		if err := writeHeader(bf, header); err != nil {
			bf.Close()
			return nil, err
		}
	} else {
		header, err = readAndValidateHeader(bf, kind, numPages)
		if err != nil {
			bf.Close()
			return nil, err
		}
	}

	header.MarkInUse()
	if err := writeHeader(bf, header); err != nil {
		bf.Close()
		return nil, err
	}

	return &base{file: bf, header: header}, nil
}

func readAndValidateHeader(bf *page.BaseFile, kind page.FileKind, numPages uint64) (*page.FileHeader, error) {
	raw, err := bf.Read(0)
	if err != nil {
		return nil, dberrors.Wrap(dberrors.Storage, "read-header", err)
	}
	header, err := page.DecodeFileHeader(raw)
	if err != nil {
		return nil, dberrors.Wrap(dberrors.Database, "corruption", err)
	}
	if header.Kind != kind {
		return nil, dberrors.New(dberrors.Database, "corruption",
			fmt.Sprintf("file header kind mismatch: got %d, want %d", header.Kind, kind))
	}
	if header.TotalPages < 1 || header.TotalPages > numPages {
		return nil, dberrors.New(dberrors.Database, "corruption",
			fmt.Sprintf("header page count %d inconsistent with file size (%d pages on disk)", header.TotalPages, numPages))
	}

	if header.IsInUse() {
		pages := make([][]byte, 0, header.TotalPages-1)
		for id := primitives.PageID(1); uint64(id) < header.TotalPages; id++ {
			data, err := bf.Read(id)
			if err != nil {
				return nil, dberrors.Wrap(dberrors.Storage, "read", err)
			}
			pages = append(pages, data)
		}
		if page.ChecksumPages(pages) != header.Checksum {
			return nil, dberrors.New(dberrors.Database, "corruption", "checksum mismatch on reopen of a file left in-use")
		}
	}

	return header, nil
}

func writeHeader(bf *page.BaseFile, header *page.FileHeader) error {
	if err := bf.Write(0, header.Encode()); err != nil {
		return dberrors.Wrap(dberrors.Storage, "write-header", err)
	}
	return nil
}

// recomputeChecksum reads every live data page and updates header.Checksum.
func (b *base) recomputeChecksum() error {
	pages := make([][]byte, 0, b.header.TotalPages-1)
	for id := primitives.PageID(1); uint64(id) < b.header.TotalPages; id++ {
		data, err := b.file.Read(id)
		if err != nil {
			return dberrors.Wrap(dberrors.Storage, "read", err)
		}
		pages = append(pages, data)
	}
	b.header.Checksum = page.ChecksumPages(pages)
	return nil
}

func (b *base) read(id primitives.PageID) ([]byte, error) {
	if !page.InBounds(id, b.header) {
		return nil, dberrors.New(dberrors.Storage, "page-out-of-bounds", fmt.Sprintf("page id %s out of bounds", id))
	}
	data, err := b.file.Read(id)
	if err != nil {
		return nil, dberrors.Wrap(dberrors.Storage, "io", err)
	}
	return data, nil
}

func (b *base) free(id primitives.PageID) error {
	if !page.InBounds(id, b.header) {
		return dberrors.New(dberrors.Storage, "page-out-of-bounds", fmt.Sprintf("page id %s out of bounds", id))
	}
	b.header.FreedPages++
	return nil
}

func (b *base) closeLocked(fd int) error {
	b.header.MarkClean()
	if err := b.recomputeChecksum(); err != nil {
		return err
	}
	if err := writeHeader(b.file, b.header); err != nil {
		return err
	}
	if err := releaseLock(fd); err != nil {
		return err
	}
	return b.file.Close()
}

func (b *base) headerSnapshot() page.FileHeader {
	return *b.header
}
