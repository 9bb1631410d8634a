package entity

import (
	"testing"

	"github.com/cottontaildb/cottontail/pkg/index"
	"github.com/cottontaildb/cottontail/pkg/primitives"
	"github.com/cottontaildb/cottontail/pkg/txn"
	"github.com/cottontaildb/cottontail/pkg/values"
)

func TestRollbackUndoesInsert(t *testing.T) {
	e := openTestEntity(t)

	tx, err := e.Begin(txn.ReadWrite)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := tx.Insert(map[string]values.Value{
		"id":   values.NewString("p1"),
		"name": values.NewString("alice"),
	}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if err := tx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	rtx, err := e.Begin(txn.ReadOnly)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer rtx.Close()
	count, err := rtx.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 0 {
		t.Fatalf("Count() after rollback = %d, want 0", count)
	}
}

func TestReadOnlyTxRejectsInsert(t *testing.T) {
	e := openTestEntity(t)

	tx, err := e.Begin(txn.ReadOnly)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer tx.Close()

	if _, err := tx.Insert(map[string]values.Value{
		"id":   values.NewString("p1"),
		"name": values.NewString("alice"),
	}); err == nil {
		t.Fatal("expected Insert to fail on a read-only transaction")
	}
}

func TestMaxTupleIDTracksAllocations(t *testing.T) {
	e := openTestEntity(t)

	tx, err := e.Begin(txn.ReadWrite)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	var last primitives.TupleID
	for i := 0; i < 3; i++ {
		tid, err := tx.Insert(map[string]values.Value{
			"id":   values.NewString("p"),
			"name": values.NewString("n"),
		})
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
		last = tid
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	defer tx.Close()

	max, err := tx.MaxTupleID()
	if err != nil {
		t.Fatalf("MaxTupleID: %v", err)
	}
	if max != last {
		t.Fatalf("MaxTupleID() = %d, want %d", max, last)
	}
}

func TestIndexUpdatedOnInsertAndDelete(t *testing.T) {
	e := openTestEntity(t)
	if err := e.CreateIndex("idx_id", index.Hash, []string{"id"}, "id", true); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}

	tx, err := e.Begin(txn.ReadWrite)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	tid, err := tx.Insert(map[string]values.Value{
		"id":   values.NewString("dave"),
		"name": values.NewString("dave"),
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	tx.Close()

	idx, ok := e.indexes["idx_id"]
	if !ok {
		t.Fatal("expected idx_id to be registered")
	}
	rs, err := idx.Filter(index.Predicate{Column: "id", Op: primitives.Equals, Value: values.NewString("dave")})
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if rs.Len() != 1 || rs.Rows[0].TupleID != tid {
		t.Fatalf("Filter(dave) = %+v, want tid %d", rs.Rows, tid)
	}

	tx2, err := e.Begin(txn.ReadWrite)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := tx2.Delete(tid); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := tx2.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	tx2.Close()

	rs, err = idx.Filter(index.Predicate{Column: "id", Op: primitives.Equals, Value: values.NewString("dave")})
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if rs.Len() != 0 {
		t.Fatalf("Filter(dave) after delete = %+v, want empty", rs.Rows)
	}
}

func TestInsertPropagatesUniqueIndexViolation(t *testing.T) {
	e := openTestEntity(t)
	if err := e.CreateIndex("idx_id", index.Hash, []string{"id"}, "id", true); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}

	tx, err := e.Begin(txn.ReadWrite)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := tx.Insert(map[string]values.Value{
		"id":   values.NewString("dup"),
		"name": values.NewString("first"),
	}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	tx.Close()

	tx2, err := e.Begin(txn.ReadWrite)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer tx2.Close()
	if _, err := tx2.Insert(map[string]values.Value{
		"id":   values.NewString("dup"),
		"name": values.NewString("second"),
	}); err == nil {
		t.Fatal("expected Insert to fail on a duplicate unique-index key")
	}
	if _, err := tx2.Insert(map[string]values.Value{
		"id":   values.NewString("third"),
		"name": values.NewString("third"),
	}); err == nil {
		t.Fatal("expected Tx to be in the error state after a failed index update")
	}
}

func TestCloseWithoutCommitRollsBack(t *testing.T) {
	e := openTestEntity(t)

	tx, err := e.Begin(txn.ReadWrite)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := tx.Insert(map[string]values.Value{
		"id":   values.NewString("p1"),
		"name": values.NewString("alice"),
	}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := tx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	rtx, err := e.Begin(txn.ReadOnly)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer rtx.Close()
	count, err := rtx.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 0 {
		t.Fatalf("Count() after uncommitted Close = %d, want 0", count)
	}
}
