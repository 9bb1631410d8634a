package disk

import (
	"fmt"
	"time"

	"github.com/cottontaildb/cottontail/pkg/dberrors"
	"github.com/cottontaildb/cottontail/pkg/primitives"
	"github.com/cottontaildb/cottontail/pkg/storage/page"
)

// Direct is the write-through disk manager variant: every Update and
// Allocate is persisted to the file immediately. Commit is a durability-only
// fsync of the header; Rollback is unsupported since nothing is buffered to
// discard.
type Direct struct {
	*base
	fd int
}

// OpenDirect opens path as a Direct-variant HARE file of the given kind.
func OpenDirect(path primitives.Filepath, kind page.FileKind, lockTimeout time.Duration) (*Direct, error) {
	b, err := openBase(path, kind, lockTimeout)
	if err != nil {
		return nil, err
	}
	return &Direct{base: b, fd: int(b.file.Handle().Fd())}, nil
}

func (d *Direct) Read(id primitives.PageID) ([]byte, error) {
	return d.read(id)
}

func (d *Direct) Update(id primitives.PageID, data []byte) error {
	if !page.InBounds(id, d.header) {
		return dberrors.New(dberrors.Storage, "page-out-of-bounds", fmt.Sprintf("page id %s out of bounds", id))
	}
	if err := d.file.Write(id, data); err != nil {
		return dberrors.Wrap(dberrors.Storage, "io", err)
	}
	return nil
}

func (d *Direct) Allocate(data []byte) (primitives.PageID, error) {
	id, err := d.file.Allocate()
	if err != nil {
		return 0, dberrors.Wrap(dberrors.Storage, "io", err)
	}
	if err := d.file.Write(id, data); err != nil {
		return 0, dberrors.Wrap(dberrors.Storage, "io", err)
	}
	d.header.TotalPages++
	if err := writeHeader(d.file, d.header); err != nil {
		return 0, err
	}
	return id, nil
}

func (d *Direct) Free(id primitives.PageID) error {
	if err := d.free(id); err != nil {
		return err
	}
	return writeHeader(d.file, d.header)
}

// Commit fsyncs the header. All data is already durable from the preceding
// write-through Updates and Allocates.
func (d *Direct) Commit() error {
	if err := d.recomputeChecksum(); err != nil {
		return err
	}
	return writeHeader(d.file, d.header)
}

// Rollback is unsupported by the Direct variant: there is nothing buffered
// to discard, since every write already reached the file.
func (d *Direct) Rollback() error {
	return dberrors.New(dberrors.Storage, "rollback-unsupported", "the direct disk manager does not support rollback")
}

func (d *Direct) Close() error {
	return d.closeLocked(d.fd)
}

func (d *Direct) Header() page.FileHeader {
	return d.headerSnapshot()
}
