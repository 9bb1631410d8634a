// Package execution implements spec.md §4.7's parallel kNN scan: a
// worker-pool fan-out over disjoint tuple-id sub-ranges of an entity,
// computing distances into a private per-query, per-worker heap that are
// merged pairwise once every worker has finished.
package execution

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/cottontaildb/cottontail/pkg/entity"
	"github.com/cottontaildb/cottontail/pkg/knn"
	"github.com/cottontaildb/cottontail/pkg/primitives"
	"github.com/cottontaildb/cottontail/pkg/recordset"
	"github.com/cottontaildb/cottontail/pkg/values"
)

// Predicate optionally restricts a scan to rows for which it returns true.
// A nil predicate matches every row.
type Predicate func(recordset.Row) bool

// distanceColumn names the single DOUBLE column a kNN scan's result
// recordset carries, per spec.md §4.7.
func distanceColumn(entityName string) string {
	return entityName + ".distance"
}

func newHeaps(n, k int) []*knn.HeapSelect {
	heaps := make([]*knn.HeapSelect, n)
	for i := range heaps {
		heaps[i] = knn.NewHeapSelect(k)
	}
	return heaps
}

// scanBatchSize is how many rows scanInto visits between polling the Tx
// for cancellation (closed/errored), per spec.md §5's "checked between
// record batches" cancellation model.
const scanBatchSize = 1024

func scanInto(tx *entity.Tx, column string, queries []values.Vector, kernel knn.Kernel, predicate Predicate, heaps []*knn.HeapSelect, from, to primitives.TupleID, ranged bool) error {
	seen := 0
	visit := func(row recordset.Row) error {
		seen++
		if seen%scanBatchSize == 0 {
			if err := tx.Alive(); err != nil {
				return err
			}
		}
		if predicate != nil && !predicate(row) {
			return nil
		}
		v, ok := row.Values[column].(values.Vector)
		if !ok {
			return nil
		}
		for i, q := range queries {
			d, err := kernel.Distance(v, q)
			if err != nil {
				return err
			}
			heaps[i].Add(knn.Pair{TupleID: row.TupleID, Distance: d})
		}
		return nil
	}
	if ranged {
		return tx.ForEachRange(from, to, visit)
	}
	return tx.ForEach(visit)
}

func drainResults(entityName string, heaps []*knn.HeapSelect) []*recordset.Recordset {
	column := distanceColumn(entityName)
	results := make([]*recordset.Recordset, len(heaps))
	for i, h := range heaps {
		rs := recordset.New(column)
		for _, p := range h.Drain() {
			rs.Append(recordset.Row{TupleID: p.TupleID, Values: map[string]values.Value{column: values.NewDouble(p.Distance)}})
		}
		results[i] = rs
	}
	return results
}

// LinearEntityScanKnn performs a single-threaded kNN scan over column,
// computing one HeapSelect per query vector and returning one recordset
// per query in ascending distance order.
func LinearEntityScanKnn(tx *entity.Tx, column string, queries []values.Vector, k int, kernel knn.Kernel, predicate Predicate) ([]*recordset.Recordset, error) {
	heaps := newHeaps(len(queries), k)
	if err := scanInto(tx, column, queries, kernel, predicate, heaps, 0, 0, false); err != nil {
		return nil, err
	}
	return drainResults(tx.EntityName(), heaps), nil
}

// partition splits [1, maxTupleId] into at most p disjoint sub-ranges of
// equal width, the last absorbing any remainder. Returns no ranges for an
// empty entity (maxTupleId < 1).
func partition(maxTupleID primitives.TupleID, p int) [][2]primitives.TupleID {
	if maxTupleID == 0 {
		return nil
	}
	total := uint64(maxTupleID)
	if p < 1 {
		p = 1
	}
	if uint64(p) > total {
		p = int(total)
	}
	width := total / uint64(p)
	if width == 0 {
		width = 1
	}

	var ranges [][2]primitives.TupleID
	start := uint64(1)
	for i := 0; i < p && start <= total; i++ {
		end := start + width - 1
		if i == p-1 || end > total {
			end = total
		}
		ranges = append(ranges, [2]primitives.TupleID{primitives.TupleID(start), primitives.TupleID(end)})
		start = end + 1
	}
	return ranges
}

// ParallelEntityScanKnn partitions [1, maxTupleId] into parallelism
// disjoint sub-ranges, scans each concurrently via errgroup into a
// private per-worker heap set, then merges every worker's heaps pairwise
// into one top-k heap per query.
func ParallelEntityScanKnn(tx *entity.Tx, column string, queries []values.Vector, k int, kernel knn.Kernel, predicate Predicate, parallelism int) ([]*recordset.Recordset, error) {
	maxTid, err := tx.MaxTupleID()
	if err != nil {
		return nil, err
	}

	ranges := partition(maxTid, parallelism)
	if len(ranges) == 0 {
		return drainResults(tx.EntityName(), newHeaps(len(queries), k)), nil
	}

	perWorker := make([][]*knn.HeapSelect, len(ranges))
	var g errgroup.Group
	for i, r := range ranges {
		i, r := i, r
		g.Go(func() error {
			heaps := newHeaps(len(queries), k)
			if err := scanInto(tx, column, queries, kernel, predicate, heaps, r[0], r[1], true); err != nil {
				return fmt.Errorf("execution: worker for range [%d,%d]: %w", r[0], r[1], err)
			}
			perWorker[i] = heaps
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := newHeaps(len(queries), k)
	for _, heaps := range perWorker {
		for i, h := range heaps {
			merged[i].Merge(h)
		}
	}
	return drainResults(tx.EntityName(), merged), nil
}
