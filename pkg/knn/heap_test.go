package knn

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/cottontaildb/cottontail/pkg/primitives"
)

func TestHeapSelectKeepsKSmallest(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	const n, k = 500, 10

	all := make([]Pair, n)
	for i := 0; i < n; i++ {
		all[i] = Pair{TupleID: primitives.TupleID(i + 2), Distance: r.Float64() * 1000}
	}

	s := NewHeapSelect(k)
	for _, p := range all {
		s.Add(p)
	}
	got := s.Drain()

	sort.Slice(all, func(i, j int) bool { return less(all[i], all[j]) })
	want := all[:k]

	if len(got) != k {
		t.Fatalf("Drain() returned %d pairs, want %d", len(got), k)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pair %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestHeapSelectTieBreaksOnTupleID(t *testing.T) {
	s := NewHeapSelect(1)
	s.Add(Pair{TupleID: 5, Distance: 1.0})
	s.Add(Pair{TupleID: 3, Distance: 1.0})
	got := s.Drain()
	if got[0].TupleID != 3 {
		t.Fatalf("got tid %v, want the smaller tid 3 on a distance tie", got[0].TupleID)
	}
}

func TestHeapSelectMerge(t *testing.T) {
	a := NewHeapSelect(2)
	a.Add(Pair{TupleID: 1, Distance: 5})
	a.Add(Pair{TupleID: 2, Distance: 1})

	b := NewHeapSelect(2)
	b.Add(Pair{TupleID: 3, Distance: 0.5})
	b.Add(Pair{TupleID: 4, Distance: 10})

	a.Merge(b)
	got := a.Drain()
	if len(got) != 2 || got[0].TupleID != 3 || got[1].TupleID != 2 {
		t.Fatalf("Merge result = %+v, want tids [3 2]", got)
	}
}
