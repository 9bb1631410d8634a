// Package column implements the tuple-id-keyed value log described in
// spec.md §4.3: a col_<name>.db file of fixed-size slots, record id 1
// holding the ColumnHeader, and a Column.Tx transaction type carrying the
// CLEAN/DIRTY/ERROR/CLOSED life cycle and two-lock discipline over it.
package column

import (
	"sync"
	"time"

	"github.com/cottontaildb/cottontail/pkg/dberrors"
	"github.com/cottontaildb/cottontail/pkg/primitives"
	"github.com/cottontaildb/cottontail/pkg/storage/buffer"
	"github.com/cottontaildb/cottontail/pkg/storage/disk"
	"github.com/cottontaildb/cottontail/pkg/storage/page"
)

// poolCapacity is the number of pages a column keeps resident. A column's
// working set is usually small: the header page plus whatever range a
// scan is currently touching.
const poolCapacity = 64

// slot flags, stored as the first byte of every fixed-size slot.
const (
	slotDeleted byte = 0
	slotPresent byte = 1
	slotNull    byte = 2
)

// Column is one column file: a fixed-size-slot page store addressed by
// tuple id, plus the two process-local locks spec.md §4.3 requires every
// transaction to acquire.
type Column struct {
	name           string
	schema         Schema
	disk           *disk.WriteAheadLogged
	pool           *buffer.Pool
	slotSize       int
	recordsPerPage uint64

	globalLock sync.RWMutex // read for the life of any Tx, write only by Close
	txLock     sync.RWMutex // read for readers, write for the single active writer
}

// Open opens or creates the column file at path with the given schema.
// Schema is ignored (and the file's persisted schema wins) when the file
// already contains a header record.
func Open(path primitives.Filepath, name string, schema Schema, lockTimeout time.Duration) (*Column, error) {
	dm, err := disk.OpenWriteAheadLogged(path, page.KindColumn, lockTimeout)
	if err != nil {
		return nil, err
	}

	c := &Column{name: name, schema: schema, disk: dm}
	c.pool = buffer.New(poolCapacity, dm)
	c.slotSize = 1 + maxInt(schema.ValueSize(), headerEncodedSize)
	c.recordsPerPage = uint64(page.Size / c.slotSize)
	if c.recordsPerPage == 0 {
		dm.Close()
		return nil, dberrors.New(dberrors.Validation, "slot-too-large",
			"column slot size exceeds the page size")
	}

	if dm.Header().TotalPages <= 1 {
		if err := c.initialise(); err != nil {
			dm.Close()
			return nil, err
		}
		return c, nil
	}

	h, err := c.readHeaderRecord()
	if err != nil {
		dm.Close()
		return nil, err
	}
	c.schema = h.Schema
	c.slotSize = 1 + maxInt(c.schema.ValueSize(), headerEncodedSize)
	c.recordsPerPage = uint64(page.Size / c.slotSize)
	return c, nil
}

// initialise writes the header record for a brand-new column file and
// commits immediately; this happens outside of any user transaction.
func (c *Column) initialise() error {
	now := time.Now().UnixMilli()
	h := Header{Schema: c.schema, CreatedMillis: now, ModifiedMillis: now, AllocatedSlots: 1}
	if err := c.ensurePage(1); err != nil {
		return err
	}
	if err := c.writeSlot(1, slotPresent, h.encode()); err != nil {
		return err
	}
	if err := c.pool.FlushAll(); err != nil {
		return err
	}
	return c.disk.Commit()
}

// Name returns the column's identifier within its owning entity.
func (c *Column) Name() string { return c.name }

// Close flushes and releases the underlying file. It takes the global
// lock in write mode, which blocks until every open transaction has
// released its read-mode hold.
func (c *Column) Close() error {
	c.globalLock.Lock()
	defer c.globalLock.Unlock()

	if err := c.pool.FlushAll(); err != nil {
		return err
	}
	return c.disk.Close()
}

// locate maps a tuple id to the page and within-page byte offset of its
// slot.
func (c *Column) locate(tid primitives.TupleID) (primitives.PageID, int) {
	idx := uint64(tid) - 1
	pageID := primitives.PageID(1 + idx/c.recordsPerPage)
	offset := int(idx%c.recordsPerPage) * c.slotSize
	return pageID, offset
}

// ensurePage allocates pages until pageID exists in the underlying file.
func (c *Column) ensurePage(pageID primitives.PageID) error {
	for c.disk.Header().TotalPages <= uint64(pageID) {
		zero := make([]byte, page.Size)
		if _, err := c.disk.Allocate(zero); err != nil {
			return dberrors.Wrap(dberrors.Storage, "allocate", err)
		}
	}
	return nil
}

func (c *Column) readSlot(tid primitives.TupleID) (byte, []byte, error) {
	pageID, offset := c.locate(tid)
	handle, err := c.pool.Get(pageID)
	if err != nil {
		return 0, nil, dberrors.Wrap(dberrors.Storage, "read", err)
	}
	defer handle.Release()

	data := handle.Data()
	flag := data[offset]
	value := make([]byte, c.slotSize-1)
	copy(value, data[offset+1:offset+c.slotSize])
	return flag, value, nil
}

func (c *Column) writeSlot(tid primitives.TupleID, flag byte, value []byte) error {
	pageID, offset := c.locate(tid)
	if err := c.ensurePage(pageID); err != nil {
		return err
	}
	handle, err := c.pool.Get(pageID)
	if err != nil {
		return dberrors.Wrap(dberrors.Storage, "write", err)
	}
	defer handle.Release()

	data := handle.Data()
	data[offset] = flag
	for i := range data[offset+1 : offset+c.slotSize] {
		data[offset+1+i] = 0
	}
	copy(data[offset+1:offset+c.slotSize], value)
	handle.MarkDirty()
	return nil
}

func (c *Column) readHeaderRecord() (Header, error) {
	_, raw, err := c.readSlot(primitives.HeaderTupleID)
	if err != nil {
		return Header{}, err
	}
	h, err := decodeHeader(raw)
	if err != nil {
		return Header{}, dberrors.Wrap(dberrors.Database, "corruption", err)
	}
	return h, nil
}

func (c *Column) writeHeaderRecord(h Header) error {
	return c.writeSlot(primitives.HeaderTupleID, slotPresent, h.encode())
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
