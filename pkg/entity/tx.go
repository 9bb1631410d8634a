package entity

import (
	"sync"

	"github.com/cottontaildb/cottontail/pkg/column"
	"github.com/cottontaildb/cottontail/pkg/dberrors"
	"github.com/cottontaildb/cottontail/pkg/index"
	"github.com/cottontaildb/cottontail/pkg/primitives"
	"github.com/cottontaildb/cottontail/pkg/recordset"
	"github.com/cottontaildb/cottontail/pkg/txn"
	"github.com/cottontaildb/cottontail/pkg/values"
)

// Tx is a transaction against an Entity. On open it spawns one Column.Tx
// per column and holds a read-locked snapshot of the entity's indexes.
type Tx struct {
	entity *Entity
	id     *txn.ID
	mode   txn.Mode

	mu      sync.Mutex
	status  txn.Status
	columns map[string]*column.Tx
	order   []string // column names in definition order, for insert/commit ordering
	indexes map[string]index.Index
	header  Header
}

// Begin opens a transaction in the given mode, taking closeLock in read
// mode and txLock in read (ReadOnly) or write (ReadWrite) mode, then
// spawning one Column.Tx per column.
func (e *Entity) Begin(mode txn.Mode) (*Tx, error) {
	e.closeLock.RLock()
	if mode == txn.ReadWrite {
		e.txLock.Lock()
	} else {
		e.txLock.RLock()
	}

	e.mu.Lock()
	names := make([]string, 0, len(e.columns))
	for name := range e.columns {
		names = append(names, name)
	}
	e.mu.Unlock()

	columnTxs := make(map[string]*column.Tx, len(names))
	for _, name := range names {
		ctx, err := e.columns[name].Begin(mode)
		if err != nil {
			for _, t := range columnTxs {
				t.Close()
			}
			e.unlockTx(mode)
			e.closeLock.RUnlock()
			return nil, err
		}
		columnTxs[name] = ctx
	}

	e.indexLock.RLock()
	indexSnapshot := make(map[string]index.Index, len(e.indexes))
	for name, idx := range e.indexes {
		indexSnapshot[name] = idx
	}
	e.indexLock.RUnlock()

	header, err := e.readHeader()
	if err != nil {
		for _, t := range columnTxs {
			t.Close()
		}
		e.unlockTx(mode)
		e.closeLock.RUnlock()
		return nil, err
	}

	order := make([]string, 0, len(names))
	for _, def := range header.Columns {
		if _, ok := columnTxs[def.Name]; ok {
			order = append(order, def.Name)
		}
	}

	return &Tx{
		entity:  e,
		id:      txn.New(),
		mode:    mode,
		status:  txn.Clean,
		columns: columnTxs,
		order:   order,
		indexes: indexSnapshot,
		header:  header,
	}, nil
}

func (e *Entity) unlockTx(mode txn.Mode) {
	if mode == txn.ReadWrite {
		e.txLock.Unlock()
	} else {
		e.txLock.RUnlock()
	}
}

func (t *Tx) ID() *txn.ID { return t.id }

// EntityName returns the name of the entity this Tx was opened against.
func (t *Tx) EntityName() string { return t.entity.name }

// Alive reports whether the Tx is still usable (not closed or errored),
// letting a long-running scan poll it between record batches instead of
// only at the call's entry.
func (t *Tx) Alive() error {
	return t.checkReadable()
}

func (t *Tx) checkReadable() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch t.status {
	case txn.Closed:
		return dberrors.New(dberrors.Transaction, "closed-tx", "entity transaction is closed")
	case txn.Error:
		return dberrors.New(dberrors.Transaction, "tx-in-error", "entity transaction is in the error state")
	default:
		return nil
	}
}

func (t *Tx) checkWritable() error {
	if err := t.checkReadable(); err != nil {
		return err
	}
	if t.mode == txn.ReadOnly {
		return dberrors.New(dberrors.Transaction, "read-only", "entity transaction is read-only")
	}
	return nil
}

// Read returns the record at tid: one value per column, or an error if
// any column fails to read it.
func (t *Tx) Read(tid primitives.TupleID) (recordset.Row, error) {
	if err := t.checkReadable(); err != nil {
		return recordset.Row{}, err
	}
	row := recordset.Row{TupleID: tid, Values: make(map[string]values.Value, len(t.columns))}
	for name, ctx := range t.columns {
		v, err := ctx.Read(tid)
		if err != nil {
			return recordset.Row{}, err
		}
		row.Values[name] = v
	}
	return row, nil
}

// ReadMany reads every tid in tids.
func (t *Tx) ReadMany(tids []primitives.TupleID) ([]recordset.Row, error) {
	rows := make([]recordset.Row, 0, len(tids))
	for _, tid := range tids {
		row, err := t.Read(tid)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadAll materialises every row via ForEach.
func (t *Tx) ReadAll() ([]recordset.Row, error) {
	var rows []recordset.Row
	err := t.ForEach(func(row recordset.Row) error {
		rows = append(rows, row)
		return nil
	})
	return rows, err
}

// Count returns the entity's row count as of this Tx's snapshot.
func (t *Tx) Count() (uint64, error) {
	if err := t.checkReadable(); err != nil {
		return 0, err
	}
	return t.header.RowCount, nil
}

// MaxTupleID returns the highest tuple id any column has ever allocated.
func (t *Tx) MaxTupleID() (primitives.TupleID, error) {
	if err := t.checkReadable(); err != nil {
		return 0, err
	}
	var max primitives.TupleID
	for _, ctx := range t.columns {
		m, err := ctx.MaxTupleID()
		if err != nil {
			return 0, err
		}
		if m > max {
			max = m
		}
	}
	return max, nil
}

// drivingColumn is the first column in definition order, used to drive a
// full-row iteration: every other column is read by tid as it visits.
func (t *Tx) drivingColumn() (string, *column.Tx, error) {
	if len(t.order) == 0 {
		return "", nil, dberrors.New(dberrors.Database, "corruption", "entity has no columns")
	}
	name := t.order[0]
	return name, t.columns[name], nil
}

// ForEach iterates every row in ascending tid order, materialising each by
// reading every column for the tid the driving column's iterator visits.
func (t *Tx) ForEach(action func(recordset.Row) error) error {
	if err := t.checkReadable(); err != nil {
		return err
	}
	_, driving, err := t.drivingColumn()
	if err != nil {
		return err
	}
	return driving.ForEach(func(tid primitives.TupleID, _ values.Value) error {
		row, err := t.Read(tid)
		if err != nil {
			return err
		}
		return action(row)
	})
}

// ForEachRange restricts ForEach to the inclusive tuple id range [from, to].
func (t *Tx) ForEachRange(from, to primitives.TupleID, action func(recordset.Row) error) error {
	if err := t.checkReadable(); err != nil {
		return err
	}
	_, driving, err := t.drivingColumn()
	if err != nil {
		return err
	}
	return driving.ForEachRange(from, to, func(tid primitives.TupleID, _ values.Value) error {
		row, err := t.Read(tid)
		if err != nil {
			return err
		}
		return action(row)
	})
}

// Map is ForEach producing a result sequence instead of side effects.
func (t *Tx) Map(action func(recordset.Row) (any, error)) ([]any, error) {
	var out []any
	err := t.ForEach(func(row recordset.Row) error {
		r, err := action(row)
		if err != nil {
			return err
		}
		out = append(out, r)
		return nil
	})
	return out, err
}

// Filter performs a full scan applying predicate to every row, unless the
// predicate is atomic on a single column with an index that can service
// it, in which case the scan is driven from that index instead.
func (t *Tx) Filter(p index.Predicate, predicate func(recordset.Row) bool) ([]recordset.Row, error) {
	for _, idx := range t.indexes {
		if idx.CanProcess(p) {
			rs, err := idx.Filter(p)
			if err != nil {
				return nil, err
			}
			out := make([]recordset.Row, 0, rs.Len())
			for _, r := range rs.Rows {
				row, err := t.Read(r.TupleID)
				if err != nil {
					return nil, err
				}
				out = append(out, row)
			}
			return out, nil
		}
	}

	var out []recordset.Row
	err := t.ForEach(func(row recordset.Row) error {
		if predicate(row) {
			out = append(out, row)
		}
		return nil
	})
	return out, err
}

// Indexes returns the names of every index visible to this Tx.
func (t *Tx) Indexes() []string {
	names := make([]string, 0, len(t.indexes))
	for name := range t.indexes {
		names = append(names, name)
	}
	return names
}

// Index returns the named index, or false if this Tx has no such index.
func (t *Tx) Index(name string) (index.Index, bool) {
	idx, ok := t.indexes[name]
	return idx, ok
}

// Insert inserts record into every column in definition order. Every
// column must return the same tid; a mismatch means the entity is
// corrupt and the Tx enters ERROR.
func (t *Tx) Insert(record map[string]values.Value) (primitives.TupleID, error) {
	if err := t.checkWritable(); err != nil {
		return 0, err
	}

	var tid primitives.TupleID
	for i, name := range t.order {
		got, err := t.columns[name].Insert(record[name])
		if err != nil {
			t.mu.Lock()
			t.status = txn.Error
			t.mu.Unlock()
			return 0, err
		}
		if i == 0 {
			tid = got
		} else if got != tid {
			t.mu.Lock()
			t.status = txn.Error
			t.mu.Unlock()
			return 0, dberrors.New(dberrors.Database, "corruption",
				"columns disagree on the tuple id assigned to the same insert")
		}
	}

	t.header.RowCount++
	if err := t.updateIndexesOnInsert(tid, record); err != nil {
		t.mu.Lock()
		t.status = txn.Error
		t.mu.Unlock()
		return 0, err
	}
	t.mu.Lock()
	if t.status == txn.Clean {
		t.status = txn.Dirty
	}
	t.mu.Unlock()
	return tid, nil
}

// InsertAll inserts every record in order, returning their tuple ids.
func (t *Tx) InsertAll(records []map[string]values.Value) ([]primitives.TupleID, error) {
	tids := make([]primitives.TupleID, 0, len(records))
	for _, r := range records {
		tid, err := t.Insert(r)
		if err != nil {
			return nil, err
		}
		tids = append(tids, tid)
	}
	return tids, nil
}

// Delete removes tid from every column, decrementing the row count.
func (t *Tx) Delete(tid primitives.TupleID) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	old, err := t.Read(tid)
	if err != nil {
		return err
	}
	for _, name := range t.order {
		if err := t.columns[name].Delete(tid); err != nil {
			t.mu.Lock()
			t.status = txn.Error
			t.mu.Unlock()
			return err
		}
	}
	t.header.RowCount--
	if err := t.updateIndexesOnDelete(tid, old.Values); err != nil {
		t.mu.Lock()
		t.status = txn.Error
		t.mu.Unlock()
		return err
	}
	t.mu.Lock()
	if t.status == txn.Clean {
		t.status = txn.Dirty
	}
	t.mu.Unlock()
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

func (t *Tx) updateIndexesOnInsert(tid primitives.TupleID, record map[string]values.Value) error {
	for name, idx := range t.indexes {
		cols := idx.Columns()
		if len(cols) != 1 {
			continue
		}
		if err := idx.Update([]index.Event{{Type: index.EventInsert, TupleID: tid, New: record[cols[0]]}}); err != nil {
			return dberrors.Wrapf(dberrors.Validation, "index-update", err, "index %q rejected insert of tuple %d", name, tid)
		}
	}
	return nil
}

func (t *Tx) updateIndexesOnDelete(tid primitives.TupleID, old map[string]values.Value) error {
	for name, idx := range t.indexes {
		cols := idx.Columns()
		if len(cols) != 1 {
			continue
		}
		if err := idx.Update([]index.Event{{Type: index.EventDelete, TupleID: tid, Old: old[cols[0]]}}); err != nil {
			return dberrors.Wrapf(dberrors.Validation, "index-update", err, "index %q rejected delete of tuple %d", name, tid)
		}
	}
	return nil
}

// Commit commits every column in order, then the entity header store.
func (t *Tx) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status == txn.Closed {
		return dberrors.New(dberrors.Transaction, "closed-tx", "entity transaction is closed")
	}
	if t.status == txn.Error {
		return dberrors.New(dberrors.Transaction, "tx-in-error", "entity transaction is in the error state")
	}

	for _, name := range t.order {
		if err := t.columns[name].Commit(); err != nil {
			t.status = txn.Error
			return err
		}
	}

	if err := t.entity.persistHeader(t.header); err != nil {
		t.status = txn.Error
		return err
	}
	if err := t.entity.headerDisk.Commit(); err != nil {
		t.status = txn.Error
		return err
	}

	t.status = txn.Clean
	return nil
}

// Rollback rolls back every column, then the entity header store.
func (t *Tx) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status == txn.Closed {
		return dberrors.New(dberrors.Transaction, "closed-tx", "entity transaction is closed")
	}

	var firstErr error
	for _, name := range t.order {
		if err := t.columns[name].Rollback(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := t.entity.headerDisk.Rollback(); err != nil && firstErr == nil {
		firstErr = err
	}
	h, err := t.entity.readHeader()
	if err == nil {
		t.header = h
	} else if firstErr == nil {
		firstErr = err
	}

	t.status = txn.Clean
	return firstErr
}

// Close ends the transaction, rolling back first if dirty or in error,
// then releasing the entity's txLock and closeLock.
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

	for _, name := range t.order {
		t.columns[name].Close()
	}

	t.entity.unlockTx(t.mode)
	t.entity.closeLock.RUnlock()

	t.mu.Lock()
	t.status = txn.Closed
	t.mu.Unlock()

	return rollbackErr
}
