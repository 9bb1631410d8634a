// Package wal implements the sibling write-ahead log file used by the
// write-ahead-logged disk manager variant. Each page update is appended as
// a record instead of being written to the main file immediately; commit
// replays the buffered records into the main file and truncates the log,
// rollback discards the log outright.
package wal

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/cottontaildb/cottontail/pkg/primitives"
)

// commitSentinel is the PageID value written before a commit record's
// length field to distinguish it from a page-update record on replay.
const commitSentinel = ^uint64(0)

// Record is a single buffered page update: the page it targets, the bytes
// to write there, and the log sequence number assigned when it was
// appended.
type Record struct {
	PageID primitives.PageID
	Data   []byte
	LSN    primitives.LSN
}

// Log is the append-only sibling file for one HARE file's disk manager.
// All public methods are safe for concurrent use.
type Log struct {
	mu      sync.Mutex
	file    *os.File
	path    string
	nextLSN uint64
	records []Record
}

// Open opens or creates the log file at path and replays any records left
// over from a previous, uncommitted session into memory so the caller can
// inspect or discard them before resuming writes.
func Open(path primitives.Filepath) (*Log, error) {
	f, err := os.OpenFile(string(path), os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("wal: opening %s: %w", path, err)
	}

	l := &Log{file: f, path: string(path)}
	if err := l.loadExisting(); err != nil {
		f.Close()
		return nil, err
	}
	return l, nil
}

func (l *Log) loadExisting() error {
	if _, err := l.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("wal: seek: %w", err)
	}
	r := bufio.NewReader(l.file)

	for {
		rec, committed, err := readRecord(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("wal: replay %s: %w", l.path, err)
		}
		if committed {
			// A commit marker with no preceding crash means the records
			// before it were already applied by a prior Commit that
			// crashed before truncation; treat the log as empty.
			l.records = nil
			continue
		}
		if uint64(rec.LSN) >= l.nextLSN {
			l.nextLSN = uint64(rec.LSN) + 1
		}
		l.records = append(l.records, *rec)
	}

	if _, err := l.file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("wal: seek end: %w", err)
	}
	return nil
}

// Append buffers a page update, returning its assigned LSN. The record is
// not durable until Commit is called.
func (l *Log) Append(pageID primitives.PageID, data []byte) (primitives.LSN, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lsn := primitives.LSN(l.nextLSN)
	l.nextLSN++

	rec := Record{PageID: pageID, Data: append([]byte(nil), data...), LSN: lsn}
	if err := writeRecord(l.file, rec); err != nil {
		return 0, fmt.Errorf("wal: append: %w", err)
	}
	l.records = append(l.records, rec)
	return lsn, nil
}

// Pending returns the records buffered since the last Commit/Discard, in
// append order.
func (l *Log) Pending() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Commit writes the commit marker, fsyncs, and clears the buffered
// records. Callers must have already applied every pending record to the
// main file before calling Commit.
func (l *Log) Commit() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := writeCommitMarker(l.file); err != nil {
		return fmt.Errorf("wal: commit marker: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("wal: commit sync: %w", err)
	}
	return l.truncateLocked()
}

// Discard truncates the log without applying its records, for rollback.
func (l *Log) Discard() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.truncateLocked()
}

func (l *Log) truncateLocked() error {
	if err := l.file.Truncate(0); err != nil {
		return fmt.Errorf("wal: truncate: %w", err)
	}
	if _, err := l.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("wal: seek: %w", err)
	}
	l.records = nil
	return nil
}

func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

func writeRecord(w io.Writer, rec Record) error {
	header := make([]byte, 8+4)
	binary.BigEndian.PutUint64(header[0:8], uint64(rec.PageID))
	binary.BigEndian.PutUint32(header[8:12], uint32(len(rec.Data)))
	if _, err := w.Write(header); err != nil {
		return err
	}
	if _, err := w.Write(rec.Data); err != nil {
		return err
	}
	lsnBuf := make([]byte, 8)
	binary.BigEndian.PutUint64(lsnBuf, uint64(rec.LSN))
	_, err := w.Write(lsnBuf)
	return err
}

func writeCommitMarker(w io.Writer) error {
	header := make([]byte, 8+4)
	binary.BigEndian.PutUint64(header[0:8], commitSentinel)
	_, err := w.Write(header)
	return err
}

// readRecord reads one record or commit marker. On a commit marker it
// returns (nil, true, nil).
func readRecord(r *bufio.Reader) (*Record, bool, error) {
	header := make([]byte, 8+4)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, false, err
	}
	pageID := binary.BigEndian.Uint64(header[0:8])
	length := binary.BigEndian.Uint32(header[8:12])

	if pageID == commitSentinel {
		return nil, true, nil
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, false, fmt.Errorf("truncated record body: %w", err)
	}

	lsnBuf := make([]byte, 8)
	if _, err := io.ReadFull(r, lsnBuf); err != nil {
		return nil, false, fmt.Errorf("truncated record lsn: %w", err)
	}

	return &Record{
		PageID: primitives.PageID(pageID),
		Data:   data,
		LSN:    primitives.LSN(binary.BigEndian.Uint64(lsnBuf)),
	}, false, nil
}
