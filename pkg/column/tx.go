package column

import (
	"sync"
	"time"

	"github.com/cottontaildb/cottontail/pkg/dberrors"
	"github.com/cottontaildb/cottontail/pkg/primitives"
	"github.com/cottontaildb/cottontail/pkg/txn"
	"github.com/cottontaildb/cottontail/pkg/values"
)

// Tx is a transaction against one Column. Its header field is a private
// working copy loaded at Begin and persisted on every mutation; since the
// tx lock never allows a writer and a reader to overlap, this also gives
// every Tx a stable, as-of-Begin snapshot of the element count and the
// tuple id high-water mark.
type Tx struct {
	column *Column
	id     *txn.ID
	mode   txn.Mode

	mu         sync.Mutex
	status     txn.Status
	heldWrite  bool
	header     Header
}

// Begin opens a transaction in the given mode, taking the column's global
// lock in read mode (so Close blocks until this Tx ends) and its tx lock
// in read mode (shared with other readers, exclusive of any writer).
func (c *Column) Begin(mode txn.Mode) (*Tx, error) {
	c.globalLock.RLock()
	c.txLock.RLock()

	h, err := c.readHeaderRecord()
	if err != nil {
		c.txLock.RUnlock()
		c.globalLock.RUnlock()
		return nil, err
	}

	return &Tx{column: c, id: txn.New(), mode: mode, status: txn.Clean, header: h}, nil
}

func (t *Tx) ID() *txn.ID        { return t.id }
func (t *Tx) Status() txn.Status { t.mu.Lock(); defer t.mu.Unlock(); return t.status }

var errClosed = dberrors.New(dberrors.Transaction, "closed-tx", "transaction is closed")
var errInError = dberrors.New(dberrors.Transaction, "tx-in-error", "transaction is in the error state; only rollback or close are legal")
var errReadOnly = dberrors.New(dberrors.Transaction, "read-only", "transaction is read-only")
var errWriteLockDenied = dberrors.New(dberrors.Transaction, "write-lock-denied", "another writer holds the column")

func invalidTid(tid primitives.TupleID) *dberrors.Error {
	return dberrors.New(dberrors.Transaction, "invalid-tupleid", tid.String()+" is out of range")
}

// checkReadable validates the tx can serve a non-mutating operation.
func (t *Tx) checkReadable() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch t.status {
	case txn.Closed:
		return errClosed
	case txn.Error:
		return errInError
	default:
		return nil
	}
}

// ensureWritable upgrades the tx lock to write mode on the first mutation
// of this Tx, per spec.md §4.3: the upgrade is a non-blocking tryLock, and
// failure surfaces immediately rather than waiting (avoiding cross-column
// deadlocks).
func (t *Tx) ensureWritable() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.status {
	case txn.Closed:
		return errClosed
	case txn.Error:
		return errInError
	}
	if t.mode == txn.ReadOnly {
		return errReadOnly
	}
	if t.heldWrite {
		return nil
	}

	t.column.txLock.RUnlock()
	if !t.column.txLock.TryLock() {
		t.column.txLock.RLock()
		return errWriteLockDenied
	}
	t.heldWrite = true
	t.status = txn.Dirty
	return nil
}

// fail records a storage exception encountered mid-mutation, moving the tx
// to ERROR per spec.md §4.3.
func (t *Tx) fail(err error) error {
	t.mu.Lock()
	t.status = txn.Error
	t.mu.Unlock()
	return err
}

func (t *Tx) touchHeader() {
	t.header.ModifiedMillis = time.Now().UnixMilli()
}

func (t *Tx) persistHeader() error {
	return t.column.writeHeaderRecord(t.header)
}

// Read returns the value stored at tid, or nil if it is null or deleted.
func (t *Tx) Read(tid primitives.TupleID) (values.Value, error) {
	if err := t.checkReadable(); err != nil {
		return nil, err
	}
	if tid < primitives.FirstUserTupleID || uint64(tid) > t.header.AllocatedSlots {
		return nil, invalidTid(tid)
	}
	flag, raw, err := t.column.readSlot(tid)
	if err != nil {
		return nil, t.fail(err)
	}
	if flag != slotPresent {
		return nil, nil
	}
	v, err := t.column.schema.decode(raw[:t.column.schema.ValueSize()])
	if err != nil {
		return nil, t.fail(dberrors.Wrap(dberrors.Database, "corruption", err))
	}
	return v, nil
}

// Count returns the column's live element count as of this Tx's snapshot.
func (t *Tx) Count() (uint64, error) {
	if err := t.checkReadable(); err != nil {
		return 0, err
	}
	return t.header.ElementCount, nil
}

// MaxTupleID returns the highest tuple id ever allocated.
func (t *Tx) MaxTupleID() (primitives.TupleID, error) {
	if err := t.checkReadable(); err != nil {
		return 0, err
	}
	return primitives.TupleID(t.header.AllocatedSlots), nil
}

// Insert allocates a new tuple id. A nil value pre-allocates the slot
// without writing a value (the slot reads back as null).
func (t *Tx) Insert(v values.Value) (primitives.TupleID, error) {
	if err := t.ensureWritable(); err != nil {
		return 0, err
	}
	if v == nil && !t.column.schema.Nullable {
		return 0, dberrors.New(dberrors.Validation, "null-not-allowed", "column does not permit null values")
	}
	tid := primitives.TupleID(t.header.AllocatedSlots + 1)
	flag, raw := slotNull, []byte(nil)
	if v != nil {
		enc, err := t.column.schema.encode(v)
		if err != nil {
			return 0, dberrors.Wrap(dberrors.Validation, "type-mismatch", err)
		}
		flag, raw = slotPresent, enc
	}
	if err := t.column.writeSlot(tid, flag, raw); err != nil {
		return 0, t.fail(err)
	}
	t.header.AllocatedSlots++
	if flag == slotPresent {
		t.header.ElementCount++
	}
	t.touchHeader()
	if err := t.persistHeader(); err != nil {
		return 0, t.fail(err)
	}
	return tid, nil
}

// InsertAll inserts every value in order, returning their tuple ids.
func (t *Tx) InsertAll(vs []values.Value) ([]primitives.TupleID, error) {
	tids := make([]primitives.TupleID, 0, len(vs))
	for _, v := range vs {
		tid, err := t.Insert(v)
		if err != nil {
			return nil, err
		}
		tids = append(tids, tid)
	}
	return tids, nil
}

// Update replaces the value at tid in place. v == nil stores a null.
func (t *Tx) Update(tid primitives.TupleID, v values.Value) error {
	if err := t.ensureWritable(); err != nil {
		return err
	}
	if tid < primitives.FirstUserTupleID || uint64(tid) > t.header.AllocatedSlots {
		return invalidTid(tid)
	}
	if v == nil && !t.column.schema.Nullable {
		return dberrors.New(dberrors.Validation, "null-not-allowed", "column does not permit null values")
	}
	prevFlag, _, err := t.column.readSlot(tid)
	if err != nil {
		return t.fail(err)
	}

	flag, raw := slotNull, []byte(nil)
	if v != nil {
		enc, err := t.column.schema.encode(v)
		if err != nil {
			return dberrors.Wrap(dberrors.Validation, "type-mismatch", err)
		}
		flag, raw = slotPresent, enc
	}
	if err := t.column.writeSlot(tid, flag, raw); err != nil {
		return t.fail(err)
	}
	t.adjustCount(prevFlag, flag)
	t.touchHeader()
	if err := t.persistHeader(); err != nil {
		return t.fail(err)
	}
	return nil
}

// CompareAndUpdate atomically swaps the value at tid to v iff the current
// value equals exp (nil meaning null on both sides). It reports whether
// the swap happened.
func (t *Tx) CompareAndUpdate(tid primitives.TupleID, exp, v values.Value) (bool, error) {
	current, err := t.Read(tid)
	if err != nil {
		return false, err
	}
	if !valuesEqual(current, exp) {
		return false, nil
	}
	if err := t.Update(tid, v); err != nil {
		return false, err
	}
	return true, nil
}

func valuesEqual(a, b values.Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equals(b)
}

// Delete frees the record at tid, decrementing the element count if it
// held a value.
func (t *Tx) Delete(tid primitives.TupleID) error {
	if err := t.ensureWritable(); err != nil {
		return err
	}
	if tid < primitives.FirstUserTupleID || uint64(tid) > t.header.AllocatedSlots {
		return invalidTid(tid)
	}
	prevFlag, _, err := t.column.readSlot(tid)
	if err != nil {
		return t.fail(err)
	}
	if err := t.column.writeSlot(tid, slotDeleted, nil); err != nil {
		return t.fail(err)
	}
	t.adjustCount(prevFlag, slotDeleted)
	t.touchHeader()
	if err := t.persistHeader(); err != nil {
		return t.fail(err)
	}
	return nil
}

// DeleteAll deletes every tid in tids.
func (t *Tx) DeleteAll(tids []primitives.TupleID) error {
	for _, tid := range tids {
		if err := t.Delete(tid); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tx) adjustCount(prev, next byte) {
	wasLive := prev == slotPresent
	isLive := next == slotPresent
	switch {
	case wasLive && !isLive:
		t.header.ElementCount--
	case !wasLive && isLive:
		t.header.ElementCount++
	}
}

// ForEach visits every live tuple id in ascending order, skipping the
// header record and deleted slots. action receives nil for a null cell.
func (t *Tx) ForEach(action func(primitives.TupleID, values.Value) error) error {
	return t.ForEachRange(primitives.FirstUserTupleID, primitives.TupleID(t.header.AllocatedSlots), action)
}

// ForEachRange is ForEach restricted to the inclusive tuple id range
// [from, to].
func (t *Tx) ForEachRange(from, to primitives.TupleID, action func(primitives.TupleID, values.Value) error) error {
	if err := t.checkReadable(); err != nil {
		return err
	}
	if from < primitives.FirstUserTupleID {
		from = primitives.FirstUserTupleID
	}
	if uint64(to) > t.header.AllocatedSlots {
		to = primitives.TupleID(t.header.AllocatedSlots)
	}
	for tid := from; tid <= to; tid++ {
		flag, raw, err := t.column.readSlot(tid)
		if err != nil {
			return t.fail(err)
		}
		if flag == slotDeleted {
			continue
		}
		var v values.Value
		if flag == slotPresent {
			v, err = t.column.schema.decode(raw[:t.column.schema.ValueSize()])
			if err != nil {
				return t.fail(dberrors.Wrap(dberrors.Database, "corruption", err))
			}
		}
		if err := action(tid, v); err != nil {
			return err
		}
	}
	return nil
}

// Map is ForEach producing a result sequence instead of side effects.
func (t *Tx) Map(action func(primitives.TupleID, values.Value) (any, error)) ([]any, error) {
	var out []any
	err := t.ForEach(func(tid primitives.TupleID, v values.Value) error {
		r, err := action(tid, v)
		if err != nil {
			return err
		}
		out = append(out, r)
		return nil
	})
	return out, err
}

// Commit flushes buffered writes to the disk manager and returns the tx to
// CLEAN, releasing the upgraded write lock back to read mode.
func (t *Tx) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.status {
	case txn.Closed:
		return errClosed
	case txn.Error:
		return errInError
	}

	if err := t.column.pool.FlushAll(); err != nil {
		t.status = txn.Error
		return err
	}
	if err := t.column.disk.Commit(); err != nil {
		t.status = txn.Error
		return err
	}

	t.releaseWriteLocked()
	t.status = txn.Clean
	return nil
}

// Rollback discards every buffered write made by this Tx and returns it to
// CLEAN. Unlike Commit, it is legal from the ERROR state.
func (t *Tx) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status == txn.Closed {
		return errClosed
	}

	t.column.pool.DiscardDirty()
	if err := t.column.disk.Rollback(); err != nil {
		return err
	}
	h, err := t.column.readHeaderRecord()
	if err != nil {
		return err
	}
	t.header = h

	t.releaseWriteLocked()
	t.status = txn.Clean
	return nil
}

func (t *Tx) releaseWriteLocked() {
	if t.heldWrite {
		t.column.txLock.Unlock()
		t.column.txLock.RLock()
		t.heldWrite = false
	}
}

// Close ends the transaction, rolling back first if it is dirty or in
// error, then releasing both of the column's locks this Tx holds.
func (t *Tx) Close() error {
	t.mu.Lock()
	status := t.status
	t.mu.Unlock()
	if status == txn.Closed {
		return nil
	}

	var rollbackErr error
	if status == txn.Dirty || status == txn.Error {
		rollbackErr = t.Rollback()
	}

	t.mu.Lock()
	if t.heldWrite {
		t.column.txLock.Unlock()
	} else {
		t.column.txLock.RUnlock()
	}
	t.column.globalLock.RUnlock()
	t.status = txn.Closed
	t.mu.Unlock()

	return rollbackErr
}
