// Package hash implements spec.md §4.5's reference index: an on-disk hash
// map from a driving column's value to a list of tuple ids. The unique
// variant stores a single tid per key and rejects duplicate keys; the
// non-unique variant stores a packed tid list per key.
package hash

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/cottontaildb/cottontail/pkg/dberrors"
	"github.com/cottontaildb/cottontail/pkg/index"
	"github.com/cottontaildb/cottontail/pkg/primitives"
	"github.com/cottontaildb/cottontail/pkg/recordset"
	"github.com/cottontaildb/cottontail/pkg/storage/disk"
	"github.com/cottontaildb/cottontail/pkg/storage/page"
	"github.com/cottontaildb/cottontail/pkg/values"
)

var _ index.Index = (*Index)(nil)

type entry struct {
	key []byte
	tid primitives.TupleID
}

// Index is an on-disk hash index over a single driving column.
type Index struct {
	name     string
	column   string
	produces string
	unique   bool

	disk disk.Manager

	mu      sync.RWMutex
	buckets map[uint64][]entry
}

// Open opens or creates the bucket file at path for column, producing
// produces (usually the driving column's own value) under the given
// uniqueness constraint.
func Open(path primitives.Filepath, name, column, produces string, unique bool, lockTimeout time.Duration) (*Index, error) {
	dm, err := disk.OpenDirect(path, page.KindHashIndexBuckets, lockTimeout)
	if err != nil {
		return nil, err
	}
	idx := &Index{name: name, column: column, produces: produces, unique: unique, disk: dm, buckets: map[uint64][]entry{}}
	if dm.Header().TotalPages > 1 {
		if err := idx.load(); err != nil {
			dm.Close()
			return nil, err
		}
	}
	return idx, nil
}

func (idx *Index) Name() string        { return idx.name }
func (idx *Index) Type() index.Type    { return index.Hash }
func (idx *Index) Columns() []string   { return []string{idx.column} }
func (idx *Index) Produces() []string  { return []string{idx.produces} }
func (idx *Index) Close() error        { return idx.disk.Close() }

// CanProcess reports whether p is an EQUAL or IN predicate on this index's
// driving column.
func (idx *Index) CanProcess(p index.Predicate) bool {
	if p.Column != idx.column {
		return false
	}
	return p.Op == primitives.Equals || p.Op == primitives.In
}

// Cost is O(1) for an EQUAL lookup and O(|values|) for an IN lookup.
func (idx *Index) Cost(p index.Predicate) index.Cost {
	n := 1.0
	if p.Op == primitives.In {
		n = float64(len(p.Values))
	}
	return index.Cost{Disk: n, Memory: n, Compute: n}
}

// Filter evaluates p, returning one row per matching (needle, tid) pair.
func (idx *Index) Filter(p index.Predicate) (*recordset.Recordset, error) {
	if !idx.CanProcess(p) {
		return nil, dberrors.New(dberrors.Query, "unsupported-predicate",
			fmt.Sprintf("hash index %s cannot process predicate on %s %s", idx.name, p.Column, p.Op))
	}
	needles := p.Values
	if p.Op == primitives.Equals {
		needles = []values.Value{p.Value}
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	rs := recordset.New(idx.produces)
	for _, needle := range needles {
		key := needle.Serialize()
		h := uint64(needle.Hash())
		for _, e := range idx.buckets[h] {
			if !bytesEqual(e.key, key) {
				continue
			}
			rs.Append(recordset.Row{TupleID: e.tid, Values: map[string]values.Value{idx.produces: needle}})
		}
	}
	return rs, nil
}

// Rebuild clears the index and re-derives it from source, grouping tuple
// ids by their driving-column value.
func (idx *Index) Rebuild(source index.ColumnSource) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	fresh := map[uint64][]entry{}
	var insertErr error
	err := source.ForEach(func(tid primitives.TupleID, v values.Value) error {
		if v == nil {
			return nil
		}
		h := uint64(v.Hash())
		key := v.Serialize()
		if idx.unique {
			for _, e := range fresh[h] {
				if bytesEqual(e.key, key) {
					insertErr = dberrors.New(dberrors.Validation, "duplicate-key",
						fmt.Sprintf("hash index %s: duplicate key on rebuild", idx.name))
					return insertErr
				}
			}
		}
		fresh[h] = append(fresh[h], entry{key: key, tid: tid})
		return nil
	})
	if err != nil {
		return err
	}

	idx.buckets = fresh
	return idx.persist()
}

// Update applies an incremental stream of row-level changes. An UPDATE is
// treated as delete-old + insert-new iff the indexed value changed.
func (idx *Index) Update(events []index.Event) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, ev := range events {
		switch ev.Type {
		case index.EventInsert:
			if err := idx.insertLocked(ev.New, ev.TupleID); err != nil {
				return err
			}
		case index.EventDelete:
			idx.removeLocked(ev.Old, ev.TupleID)
		case index.EventUpdate:
			if ev.Old != nil && ev.New != nil && bytesEqual(ev.Old.Serialize(), ev.New.Serialize()) {
				continue
			}
			idx.removeLocked(ev.Old, ev.TupleID)
			if err := idx.insertLocked(ev.New, ev.TupleID); err != nil {
				return err
			}
		}
	}
	return idx.persist()
}

func (idx *Index) insertLocked(v values.Value, tid primitives.TupleID) error {
	if v == nil {
		return nil
	}
	h := uint64(v.Hash())
	key := v.Serialize()
	if idx.unique {
		for _, e := range idx.buckets[h] {
			if bytesEqual(e.key, key) {
				return dberrors.New(dberrors.Validation, "duplicate-key",
					fmt.Sprintf("hash index %s: duplicate key", idx.name))
			}
		}
	}
	idx.buckets[h] = append(idx.buckets[h], entry{key: key, tid: tid})
	return nil
}

func (idx *Index) removeLocked(v values.Value, tid primitives.TupleID) {
	if v == nil {
		return
	}
	h := uint64(v.Hash())
	key := v.Serialize()
	bucket := idx.buckets[h]
	for i, e := range bucket {
		if e.tid == tid && bytesEqual(e.key, key) {
			idx.buckets[h] = append(bucket[:i], bucket[i+1:]...)
			return
		}
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// persist serialises the bucket map and writes it across as many pages as
// needed, reusing already-allocated pages before allocating new ones (the
// file never shrinks; spec.md leaves free-page reuse as accounting-only).
func (idx *Index) persist() error {
	buf := idx.encode()
	needed := (len(buf) + page.Size - 1) / page.Size
	total := idx.disk.Header().TotalPages
	for i := 0; i < needed; i++ {
		chunk := make([]byte, page.Size)
		start := i * page.Size
		end := start + page.Size
		if end > len(buf) {
			end = len(buf)
		}
		copy(chunk, buf[start:end])

		pid := primitives.PageID(i + 1)
		var err error
		if uint64(pid) < total {
			err = idx.disk.Update(pid, chunk)
		} else {
			_, err = idx.disk.Allocate(chunk)
		}
		if err != nil {
			return dberrors.Wrap(dberrors.Storage, "io", err)
		}
	}
	return idx.disk.Commit()
}

func (idx *Index) load() error {
	total := idx.disk.Header().TotalPages
	buf := make([]byte, 0, (total-1)*page.Size)
	for pid := primitives.PageID(1); uint64(pid) < total; pid++ {
		data, err := idx.disk.Read(pid)
		if err != nil {
			return dberrors.Wrap(dberrors.Storage, "io", err)
		}
		buf = append(buf, data...)
	}
	return idx.decode(buf)
}

// encode lays the bucket map out as: u32 payload length, u32 bucket count,
// then per bucket u64 hash, u16 entry count, then per entry u32 key
// length, key bytes, u64 tid.
func (idx *Index) encode() []byte {
	size := 8
	for _, entries := range idx.buckets {
		size += 8 + 2
		for _, e := range entries {
			size += 4 + len(e.key) + 8
		}
	}
	buf := make([]byte, 4+size)
	binary.BigEndian.PutUint32(buf[0:4], uint32(size))
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(idx.buckets)))
	off := 8
	for h, entries := range idx.buckets {
		binary.BigEndian.PutUint64(buf[off:off+8], h)
		off += 8
		binary.BigEndian.PutUint16(buf[off:off+2], uint16(len(entries)))
		off += 2
		for _, e := range entries {
			binary.BigEndian.PutUint32(buf[off:off+4], uint32(len(e.key)))
			off += 4
			copy(buf[off:off+len(e.key)], e.key)
			off += len(e.key)
			binary.BigEndian.PutUint64(buf[off:off+8], uint64(e.tid))
			off += 8
		}
	}
	return buf[:4+size]
}

func (idx *Index) decode(buf []byte) error {
	if len(buf) < 4 {
		idx.buckets = map[uint64][]entry{}
		return nil
	}
	payload := binary.BigEndian.Uint32(buf[0:4])
	if int(4+payload) > len(buf) {
		return fmt.Errorf("hash index: truncated payload: have %d bytes, want %d", len(buf), 4+payload)
	}
	buf = buf[4 : 4+payload]
	if len(buf) < 4 {
		return fmt.Errorf("hash index: truncated bucket count")
	}
	bucketCount := binary.BigEndian.Uint32(buf[0:4])
	off := 4
	buckets := make(map[uint64][]entry, bucketCount)
	for i := uint32(0); i < bucketCount; i++ {
		h := binary.BigEndian.Uint64(buf[off : off+8])
		off += 8
		n := binary.BigEndian.Uint16(buf[off : off+2])
		off += 2
		entries := make([]entry, 0, n)
		for j := uint16(0); j < n; j++ {
			keyLen := binary.BigEndian.Uint32(buf[off : off+4])
			off += 4
			key := append([]byte(nil), buf[off:off+int(keyLen)]...)
			off += int(keyLen)
			tid := primitives.TupleID(binary.BigEndian.Uint64(buf[off : off+8]))
			off += 8
			entries = append(entries, entry{key: key, tid: tid})
		}
		buckets[h] = entries
	}
	idx.buckets = buckets
	return nil
}
