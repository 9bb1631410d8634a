package disk

import (
	"fmt"
	"time"

	"github.com/cottontaildb/cottontail/pkg/dberrors"
	"github.com/cottontaildb/cottontail/pkg/primitives"
	"github.com/cottontaildb/cottontail/pkg/storage/page"
	"github.com/cottontaildb/cottontail/pkg/storage/wal"
)

// WriteAheadLogged is the disk manager variant that buffers every update
// and allocate in a sibling .wal log instead of the main file. Commit
// applies every buffered record to the main file, recomputes the checksum,
// and truncates the log; Rollback discards the log and reverts the header
// to its state at the last commit.
type WriteAheadLogged struct {
	*base
	fd  int
	log *wal.Log

	// overlay holds pages written this transaction but not yet applied to
	// the main file, so Read reflects uncommitted writes.
	overlay map[primitives.PageID][]byte

	// committed is a snapshot of the header taken after the last commit
	// (or at open), restored verbatim on Rollback.
	committed page.FileHeader
}

// OpenWriteAheadLogged opens path and its sibling <path>.wal log as a
// WriteAheadLogged-variant HARE file of the given kind.
func OpenWriteAheadLogged(path primitives.Filepath, kind page.FileKind, lockTimeout time.Duration) (*WriteAheadLogged, error) {
	b, err := openBase(path, kind, lockTimeout)
	if err != nil {
		return nil, err
	}

	logPath := path + ".wal"
	l, err := wal.Open(logPath)
	if err != nil {
		b.file.Close()
		return nil, dberrors.Wrap(dberrors.Storage, "wal-open", err)
	}

	w := &WriteAheadLogged{
		base:      b,
		fd:        int(b.file.Handle().Fd()),
		log:       l,
		overlay:   make(map[primitives.PageID][]byte),
		committed: b.headerSnapshot(),
	}

	for _, rec := range l.Pending() {
		w.overlay[rec.PageID] = rec.Data
		// A replayed record may be a page that was allocated but never
		// committed; advance the in-memory page count so the next
		// Allocate does not reassign its id.
		if uint64(rec.PageID)+1 > w.header.TotalPages {
			w.header.TotalPages = uint64(rec.PageID) + 1
		}
	}
	return w, nil
}

// Read returns overlay (uncommitted) content first, falling back to the
// main file. A page present only in the overlay may be ahead of the
// main file's committed TotalPages, so the overlay check runs before the
// bounds check.
func (w *WriteAheadLogged) Read(id primitives.PageID) ([]byte, error) {
	if data, ok := w.overlay[id]; ok {
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	}
	if !page.InBounds(id, w.header) {
		return nil, dberrors.New(dberrors.Storage, "page-out-of-bounds", fmt.Sprintf("page id %s out of bounds", id))
	}
	return w.read(id)
}

func (w *WriteAheadLogged) Update(id primitives.PageID, data []byte) error {
	if !page.InBounds(id, w.header) {
		return dberrors.New(dberrors.Storage, "page-out-of-bounds", fmt.Sprintf("page id %s out of bounds", id))
	}
	if _, err := w.log.Append(id, data); err != nil {
		return dberrors.Wrap(dberrors.Storage, "wal-io", err)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	w.overlay[id] = buf
	return nil
}

// Allocate assigns the next PageID in memory and logs its initial content
// as an update; the page only becomes physically part of the main file on
// Commit.
func (w *WriteAheadLogged) Allocate(data []byte) (primitives.PageID, error) {
	id := primitives.PageID(w.header.TotalPages)
	w.header.TotalPages++

	if _, err := w.log.Append(id, data); err != nil {
		return 0, dberrors.Wrap(dberrors.Storage, "wal-io", err)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	w.overlay[id] = buf
	return id, nil
}

func (w *WriteAheadLogged) Free(id primitives.PageID) error {
	return w.free(id)
}

// Commit applies every buffered write to the main file in log order,
// recomputes the checksum, persists the header, then truncates the log.
func (w *WriteAheadLogged) Commit() error {
	for _, rec := range w.log.Pending() {
		if err := w.file.Write(rec.PageID, rec.Data); err != nil {
			return dberrors.Wrap(dberrors.Storage, "io", err)
		}
	}
	if err := w.recomputeChecksum(); err != nil {
		return err
	}
	if err := writeHeader(w.file, w.header); err != nil {
		return err
	}
	if err := w.log.Commit(); err != nil {
		return dberrors.Wrap(dberrors.Storage, "wal-io", err)
	}

	w.overlay = make(map[primitives.PageID][]byte)
	w.committed = w.headerSnapshot()
	return nil
}

// Rollback discards the log and reverts the in-memory header to its state
// at the last commit; the main file was never touched.
func (w *WriteAheadLogged) Rollback() error {
	if err := w.log.Discard(); err != nil {
		return dberrors.Wrap(dberrors.Storage, "wal-io", err)
	}
	w.overlay = make(map[primitives.PageID][]byte)
	*w.header = w.committed
	return nil
}

// Close persists only the last-committed header state; any pages still
// buffered in the sibling log remain there for replay on the next open,
// since the main file never received their content.
func (w *WriteAheadLogged) Close() error {
	*w.header = w.committed
	w.header.MarkClean()
	if err := writeHeader(w.file, w.header); err != nil {
		return err
	}
	if err := releaseLock(w.fd); err != nil {
		return err
	}
	if err := w.file.Close(); err != nil {
		return dberrors.Wrap(dberrors.Storage, "io", err)
	}
	return w.log.Close()
}

func (w *WriteAheadLogged) Header() page.FileHeader {
	return w.headerSnapshot()
}
