// Package entity implements spec.md §4.4: an Entity owns N columns
// sharing a tuple-id space and M secondary indexes, under a three-level
// lock discipline (closeLock, txLock, per-column globalLock).
package entity

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/cottontaildb/cottontail/pkg/column"
	"github.com/cottontaildb/cottontail/pkg/dberrors"
	"github.com/cottontaildb/cottontail/pkg/index"
	"github.com/cottontaildb/cottontail/pkg/index/hash"
	"github.com/cottontaildb/cottontail/pkg/primitives"
	"github.com/cottontaildb/cottontail/pkg/storage/disk"
	"github.com/cottontaildb/cottontail/pkg/storage/page"
	"github.com/cottontaildb/cottontail/pkg/txn"
)

// Entity is a table: a set of columns with a common tuple-id space plus
// secondary indexes, stored under dir as entity_<name>/.
type Entity struct {
	name string
	dir  primitives.Filepath

	lockTimeout time.Duration
	headerDisk  *disk.WriteAheadLogged

	closeLock sync.RWMutex
	txLock    sync.RWMutex
	indexLock sync.RWMutex

	mu      sync.Mutex
	columns map[string]*column.Column
	indexes map[string]index.Index
}

// Open opens the entity directory at dir/entity_<name>, creating it (and
// its column files) from columnDefs if it does not already exist.
func Open(dir primitives.Filepath, name string, columnDefs []ColumnDef, lockTimeout time.Duration) (*Entity, error) {
	entityDir := dir.Join("entity_" + name)
	if err := os.MkdirAll(string(entityDir), 0o755); err != nil {
		return nil, dberrors.Wrap(dberrors.Storage, "mkdir", err)
	}

	hd, err := disk.OpenWriteAheadLogged(entityDir.Join("index.db"), page.KindEntityHeader, lockTimeout)
	if err != nil {
		return nil, err
	}

	e := &Entity{
		name:        name,
		dir:         entityDir,
		lockTimeout: lockTimeout,
		headerDisk:  hd,
		columns:     map[string]*column.Column{},
		indexes:     map[string]index.Index{},
	}

	fresh := hd.Header().TotalPages <= 1
	var header Header
	if fresh {
		header = Header{Columns: columnDefs}
		if err := e.persistHeader(header); err != nil {
			hd.Close()
			return nil, err
		}
		if err := hd.Commit(); err != nil {
			hd.Close()
			return nil, err
		}
	} else {
		header, err = e.readHeader()
		if err != nil {
			hd.Close()
			return nil, err
		}
	}

	for _, def := range header.Columns {
		col, err := column.Open(entityDir.Join("col_"+def.Name+".db"), def.Name, def.Schema, lockTimeout)
		if err != nil {
			e.closeColumnsOpenedSoFar()
			hd.Close()
			return nil, err
		}
		e.columns[def.Name] = col
	}
	for _, def := range header.Indexes {
		idx, err := e.openIndexFile(def)
		if err != nil {
			e.closeColumnsOpenedSoFar()
			hd.Close()
			return nil, err
		}
		e.indexes[def.Name] = idx
	}

	return e, nil
}

func (e *Entity) closeColumnsOpenedSoFar() {
	for _, c := range e.columns {
		c.Close()
	}
}

func (e *Entity) openIndexFile(def IndexDef) (index.Index, error) {
	switch index.Type(def.Type) {
	case index.Hash:
		path := e.dir.Join(fmt.Sprintf("idx_%s_%s.db", def.Type, def.Name))
		return hash.Open(path, def.Name, def.Columns[0], def.Produces, def.Unique, e.lockTimeout)
	default:
		return nil, dberrors.New(dberrors.Database, "unknown-index-type", "unsupported index type "+def.Type)
	}
}

func (e *Entity) readHeader() (Header, error) {
	raw, err := e.headerDisk.Read(1)
	if err != nil {
		return Header{}, dberrors.Wrap(dberrors.Storage, "read-header", err)
	}
	h, err := decodeHeader(raw)
	if err != nil {
		return Header{}, dberrors.Wrap(dberrors.Database, "corruption", err)
	}
	return h, nil
}

func (e *Entity) persistHeader(h Header) error {
	enc, err := h.encode()
	if err != nil {
		return dberrors.Wrap(dberrors.Database, "encode-header", err)
	}
	buf := make([]byte, page.Size)
	if len(enc) > page.Size {
		return dberrors.New(dberrors.Database, "header-too-large", "entity header exceeds one page")
	}
	copy(buf, enc)

	if e.headerDisk.Header().TotalPages <= 1 {
		if _, err := e.headerDisk.Allocate(buf); err != nil {
			return dberrors.Wrap(dberrors.Storage, "io", err)
		}
		return nil
	}
	if err := e.headerDisk.Update(1, buf); err != nil {
		return dberrors.Wrap(dberrors.Storage, "io", err)
	}
	return nil
}

// Name returns the entity's name.
func (e *Entity) Name() string { return e.name }

// Close blocks until every open transaction has ended, then closes every
// column, index, and the entity header store.
func (e *Entity) Close() error {
	e.closeLock.Lock()
	defer e.closeLock.Unlock()

	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	for _, c := range e.columns {
		record(c.Close())
	}
	for _, idx := range e.indexes {
		record(idx.Close())
	}
	record(e.headerDisk.Close())
	return firstErr
}

// CreateIndex takes the write side of indexLock, appends the new index's
// definition to the entity header, commits it, then opens a short-lived
// read-write transaction to rebuild the index. On any failure the header
// change is rolled back and the index file is removed.
func (e *Entity) CreateIndex(name string, typ index.Type, columns []string, produces string, unique bool) error {
	e.indexLock.Lock()
	defer e.indexLock.Unlock()

	if _, exists := e.indexes[name]; exists {
		return dberrors.New(dberrors.Database, "already-exists", "index "+name+" already exists")
	}

	def := IndexDef{Name: name, Type: string(typ), Columns: columns, Produces: produces, Unique: unique}
	header, err := e.readHeader()
	if err != nil {
		return err
	}
	original := header
	header.Indexes = append(header.Indexes, def)

	// revert restores and commits the header as it was before this call.
	revert := func() {
		if e.persistHeader(original) == nil {
			e.headerDisk.Commit()
		}
	}

	idx, err := e.openIndexFile(def)
	if err != nil {
		return dberrors.Wrap(dberrors.Database, "index-create-failure", err)
	}

	if err := e.persistHeader(header); err != nil {
		e.headerDisk.Rollback()
		idx.Close()
		os.Remove(string(e.dir.Join(fmt.Sprintf("idx_%s_%s.db", def.Type, def.Name))))
		return err
	}
	if err := e.headerDisk.Commit(); err != nil {
		e.headerDisk.Rollback()
		idx.Close()
		os.Remove(string(e.dir.Join(fmt.Sprintf("idx_%s_%s.db", def.Type, def.Name))))
		return err
	}

	col, ok := e.columns[columns[0]]
	if !ok {
		revert()
		idx.Close()
		os.Remove(string(e.dir.Join(fmt.Sprintf("idx_%s_%s.db", def.Type, def.Name))))
		return dberrors.New(dberrors.Query, "column-does-not-exist", columns[0])
	}
	tx, err := col.Begin(txn.ReadWrite)
	if err != nil {
		revert()
		idx.Close()
		os.Remove(string(e.dir.Join(fmt.Sprintf("idx_%s_%s.db", def.Type, def.Name))))
		return err
	}
	defer tx.Close()
	if err := idx.Rebuild(tx); err != nil {
		revert()
		idx.Close()
		os.Remove(string(e.dir.Join(fmt.Sprintf("idx_%s_%s.db", def.Type, def.Name))))
		return dberrors.Wrap(dberrors.Database, "index-create-failure", err)
	}

	e.mu.Lock()
	e.indexes[name] = idx
	e.mu.Unlock()
	return nil
}

// DropIndex is symmetric to CreateIndex: it removes the index's header
// entry, commits, then closes the index and deletes its file.
func (e *Entity) DropIndex(name string) error {
	e.indexLock.Lock()
	defer e.indexLock.Unlock()

	e.mu.Lock()
	idx, ok := e.indexes[name]
	e.mu.Unlock()
	if !ok {
		return dberrors.New(dberrors.Database, "does-not-exist", "index "+name+" does not exist")
	}

	header, err := e.readHeader()
	if err != nil {
		return err
	}
	filtered := header.Indexes[:0]
	var def IndexDef
	for _, d := range header.Indexes {
		if d.Name == name {
			def = d
			continue
		}
		filtered = append(filtered, d)
	}
	header.Indexes = filtered

	if err := e.persistHeader(header); err != nil {
		return err
	}
	if err := e.headerDisk.Commit(); err != nil {
		e.headerDisk.Rollback()
		return err
	}

	e.mu.Lock()
	delete(e.indexes, name)
	e.mu.Unlock()

	idx.Close()
	return os.RemoveAll(string(e.dir.Join(fmt.Sprintf("idx_%s_%s.db", def.Type, def.Name))))
}

// AllIndexes returns the names of every index currently registered.
func (e *Entity) AllIndexes() []string {
	e.indexLock.RLock()
	defer e.indexLock.RUnlock()
	names := make([]string, 0, len(e.indexes))
	for name := range e.indexes {
		names = append(names, name)
	}
	return names
}
