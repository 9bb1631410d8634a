package execution

import (
	"testing"
	"time"

	"github.com/cottontaildb/cottontail/pkg/column"
	"github.com/cottontaildb/cottontail/pkg/entity"
	"github.com/cottontaildb/cottontail/pkg/knn"
	"github.com/cottontaildb/cottontail/pkg/primitives"
	"github.com/cottontaildb/cottontail/pkg/recordset"
	"github.com/cottontaildb/cottontail/pkg/txn"
	"github.com/cottontaildb/cottontail/pkg/values"
)

func openTestEntityForScan(t *testing.T, n int) *entity.Entity {
	t.Helper()
	dir := primitives.Filepath(t.TempDir())
	defs := []entity.ColumnDef{
		{Name: "vec", Schema: column.Schema{Type: values.FloatVector, LogicalSize: 4}},
	}
	e, err := entity.Open(dir, "vectors", defs, time.Second)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { e.Close() })

	tx, err := e.Begin(txn.ReadWrite)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	for i := 0; i < n; i++ {
		v := values.FloatVectorValue{float32(i), float32(i), float32(i), float32(i)}
		if _, err := tx.Insert(map[string]values.Value{"vec": v}); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	tx.Close()
	return e
}

func TestLinearScanReturnsKSmallestInAscendingOrder(t *testing.T) {
	e := openTestEntityForScan(t, 20)
	tx, err := e.Begin(txn.ReadOnly)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer tx.Close()

	query := values.FloatVectorValue{0, 0, 0, 0}
	results, err := LinearEntityScanKnn(tx, "vec", []values.Vector{query}, 5, knn.Kernel{Metric: knn.L2}, nil)
	if err != nil {
		t.Fatalf("LinearEntityScanKnn: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d recordsets, want 1", len(results))
	}
	rs := results[0]
	if rs.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", rs.Len())
	}
	col := distanceColumn("vectors")
	prev := -1.0
	for _, row := range rs.Rows {
		d := float64(row.Values[col].(values.DoubleValue))
		if d < prev {
			t.Fatalf("distances not ascending: %v", rs.Rows)
		}
		prev = d
	}
}

func TestParallelScanMatchesLinearScan(t *testing.T) {
	e := openTestEntityForScan(t, 100)
	tx, err := e.Begin(txn.ReadOnly)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer tx.Close()

	query := values.FloatVectorValue{3, 3, 3, 3}
	kernel := knn.Kernel{Metric: knn.L2}

	linear, err := LinearEntityScanKnn(tx, "vec", []values.Vector{query}, 10, kernel, nil)
	if err != nil {
		t.Fatalf("LinearEntityScanKnn: %v", err)
	}
	parallel, err := ParallelEntityScanKnn(tx, "vec", []values.Vector{query}, 10, kernel, nil, 4)
	if err != nil {
		t.Fatalf("ParallelEntityScanKnn: %v", err)
	}

	if linear[0].Len() != parallel[0].Len() {
		t.Fatalf("lengths differ: linear=%d parallel=%d", linear[0].Len(), parallel[0].Len())
	}
	for i := range linear[0].Rows {
		lr, pr := linear[0].Rows[i], parallel[0].Rows[i]
		if lr.TupleID != pr.TupleID {
			t.Fatalf("row %d: tid %d vs %d", i, lr.TupleID, pr.TupleID)
		}
	}
}

func TestPredicateRestrictsScan(t *testing.T) {
	e := openTestEntityForScan(t, 10)
	tx, err := e.Begin(txn.ReadOnly)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer tx.Close()

	query := values.FloatVectorValue{0, 0, 0, 0}
	onlyEven := func(row recordset.Row) bool { return row.TupleID%2 == 0 }
	results, err := LinearEntityScanKnn(tx, "vec", []values.Vector{query}, 20, knn.Kernel{Metric: knn.L2}, onlyEven)
	if err != nil {
		t.Fatalf("LinearEntityScanKnn: %v", err)
	}
	for _, row := range results[0].Rows {
		if row.TupleID%2 != 0 {
			t.Fatalf("predicate leaked odd tid %d", row.TupleID)
		}
	}
}
