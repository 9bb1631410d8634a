package column

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/cottontaildb/cottontail/pkg/primitives"
	"github.com/cottontaildb/cottontail/pkg/txn"
	"github.com/cottontaildb/cottontail/pkg/values"
)

func openTestColumn(t *testing.T, schema Schema) *Column {
	t.Helper()
	path := primitives.Filepath(filepath.Join(t.TempDir(), "col_test.db"))
	c, err := Open(path, "test", schema, time.Second)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestOpenInitialisesHeaderRecord(t *testing.T) {
	c := openTestColumn(t, Schema{Type: values.Int})

	tx, err := c.Begin(txn.ReadOnly)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer tx.Close()

	count, err := tx.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 0 {
		t.Fatalf("Count() = %d, want 0 on a fresh column", count)
	}
	maxTid, err := tx.MaxTupleID()
	if err != nil {
		t.Fatalf("MaxTupleID: %v", err)
	}
	if maxTid != primitives.HeaderTupleID {
		t.Fatalf("MaxTupleID() = %v, want %v", maxTid, primitives.HeaderTupleID)
	}
}

func TestInsertReadRoundTrip(t *testing.T) {
	c := openTestColumn(t, Schema{Type: values.Int})

	tx, err := c.Begin(txn.ReadWrite)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer tx.Close()

	tid, err := tx.Insert(values.NewInt(42))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if tid != primitives.FirstUserTupleID {
		t.Fatalf("Insert tid = %v, want %v", tid, primitives.FirstUserTupleID)
	}

	v, err := tx.Read(tid)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !v.Equals(values.NewInt(42)) {
		t.Fatalf("Read(%v) = %v, want 42", tid, v)
	}

	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
}

func TestInsertNullPreallocatesWithoutWriting(t *testing.T) {
	c := openTestColumn(t, Schema{Type: values.Int, Nullable: true})

	tx, _ := c.Begin(txn.ReadWrite)
	defer tx.Close()

	tid, err := tx.Insert(nil)
	if err != nil {
		t.Fatalf("Insert(nil): %v", err)
	}
	v, err := tx.Read(tid)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if v != nil {
		t.Fatalf("Read(%v) = %v, want nil", tid, v)
	}
	count, _ := tx.Count()
	if count != 0 {
		t.Fatalf("Count() = %d, want 0 after inserting a null", count)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	c := openTestColumn(t, Schema{Type: values.Int})

	tx, _ := c.Begin(txn.ReadWrite)
	defer tx.Close()

	tid, _ := tx.Insert(values.NewInt(1))
	if err := tx.Update(tid, values.NewInt(2)); err != nil {
		t.Fatalf("Update: %v", err)
	}
	v, _ := tx.Read(tid)
	if !v.Equals(values.NewInt(2)) {
		t.Fatalf("Read after Update = %v, want 2", v)
	}

	if err := tx.Delete(tid); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	v, _ = tx.Read(tid)
	if v != nil {
		t.Fatalf("Read after Delete = %v, want nil", v)
	}
	count, _ := tx.Count()
	if count != 0 {
		t.Fatalf("Count() = %d, want 0 after delete", count)
	}
}

func TestCompareAndUpdate(t *testing.T) {
	c := openTestColumn(t, Schema{Type: values.Int})

	tx, _ := c.Begin(txn.ReadWrite)
	defer tx.Close()

	tid, _ := tx.Insert(values.NewInt(10))

	ok, err := tx.CompareAndUpdate(tid, values.NewInt(99), values.NewInt(11))
	if err != nil {
		t.Fatalf("CompareAndUpdate: %v", err)
	}
	if ok {
		t.Fatal("CompareAndUpdate with wrong expectation should not swap")
	}

	ok, err = tx.CompareAndUpdate(tid, values.NewInt(10), values.NewInt(11))
	if err != nil {
		t.Fatalf("CompareAndUpdate: %v", err)
	}
	if !ok {
		t.Fatal("CompareAndUpdate with correct expectation should swap")
	}
	v, _ := tx.Read(tid)
	if !v.Equals(values.NewInt(11)) {
		t.Fatalf("Read after swap = %v, want 11", v)
	}
}

func TestForEachSkipsDeletedAndHeader(t *testing.T) {
	c := openTestColumn(t, Schema{Type: values.Int})

	tx, _ := c.Begin(txn.ReadWrite)
	defer tx.Close()

	a, _ := tx.Insert(values.NewInt(1))
	_, _ = tx.Insert(values.NewInt(2))
	c3, _ := tx.Insert(values.NewInt(3))
	if err := tx.Delete(c3); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	var seen []primitives.TupleID
	err := tx.ForEach(func(tid primitives.TupleID, v values.Value) error {
		seen = append(seen, tid)
		return nil
	})
	if err != nil {
		t.Fatalf("ForEach: %v", err)
	}
	if len(seen) != 2 || seen[0] != a {
		t.Fatalf("ForEach visited %v, want exactly [tid(1), tid(2)]", seen)
	}
}

func TestRollbackDiscardsWrites(t *testing.T) {
	c := openTestColumn(t, Schema{Type: values.Int})

	tx, _ := c.Begin(txn.ReadWrite)
	tid, err := tx.Insert(values.NewInt(7))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	tx.Close()

	tx2, _ := c.Begin(txn.ReadOnly)
	defer tx2.Close()
	count, _ := tx2.Count()
	if count != 0 {
		t.Fatalf("Count() = %d after rollback, want 0", count)
	}
	_ = tid
}

func TestWriteLockDeniedForConcurrentWriters(t *testing.T) {
	c := openTestColumn(t, Schema{Type: values.Int})

	// Both start in shared read mode; neither Begin blocks the other.
	tx1, _ := c.Begin(txn.ReadWrite)
	defer tx1.Close()
	tx2, _ := c.Begin(txn.ReadWrite)
	defer tx2.Close()

	// tx1's upgrade attempt finds tx2 still holding a read lock, so the
	// non-blocking tryLock fails immediately instead of waiting.
	if _, err := tx1.Insert(values.NewInt(1)); err == nil {
		t.Fatal("expected write-lock-denied error while another tx holds the read lock")
	}

	// Once tx2 releases its read hold, tx1 can upgrade.
	if err := tx2.Close(); err != nil {
		t.Fatalf("tx2.Close: %v", err)
	}
	if _, err := tx1.Insert(values.NewInt(1)); err != nil {
		t.Fatalf("Insert after tx2 released its read lock: %v", err)
	}
}

func TestReadOnlyTxRejectsMutation(t *testing.T) {
	c := openTestColumn(t, Schema{Type: values.Int})

	tx, _ := c.Begin(txn.ReadOnly)
	defer tx.Close()
	if _, err := tx.Insert(values.NewInt(1)); err == nil {
		t.Fatal("expected read-only transaction to reject Insert")
	}
}
