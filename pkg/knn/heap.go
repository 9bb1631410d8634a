package knn

import (
	"container/heap"

	"github.com/cottontaildb/cottontail/pkg/primitives"
)

// Pair is one (tuple id, distance) result of a kNN scan.
type Pair struct {
	TupleID  primitives.TupleID
	Distance float64
}

// less orders pairs by ascending distance, tie-breaking on the smaller
// tuple id, matching spec.md's heap-select law.
func less(a, b Pair) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.TupleID < b.TupleID
}

// maxHeap is a container/heap.Interface over Pair ordered so the current
// worst (largest distance, or largest tid on a tie) pair sits at the root,
// letting HeapSelect evict it in O(log k).
type maxHeap []Pair

func (h maxHeap) Len() int            { return len(h) }
func (h maxHeap) Less(i, j int) bool  { return less(h[j], h[i]) }
func (h maxHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x interface{}) { *h = append(*h, x.(Pair)) }
func (h *maxHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// HeapSelect is a bounded min-k selector: it retains at most K pairs, the
// K smallest seen so far under (distance, tupleId) ordering.
type HeapSelect struct {
	k    int
	heap maxHeap
}

// NewHeapSelect creates a selector retaining at most k pairs.
func NewHeapSelect(k int) *HeapSelect {
	return &HeapSelect{k: k}
}

// Add offers a pair to the selector. It is kept if the selector is under
// capacity, or if it is strictly smaller than the current worst kept pair.
func (s *HeapSelect) Add(p Pair) {
	if s.k <= 0 {
		return
	}
	if len(s.heap) < s.k {
		heap.Push(&s.heap, p)
		return
	}
	if less(p, s.heap[0]) {
		s.heap[0] = p
		heap.Fix(&s.heap, 0)
	}
}

// Len reports how many pairs are currently retained.
func (s *HeapSelect) Len() int { return len(s.heap) }

// Drain empties the selector and returns its contents in ascending
// distance order.
func (s *HeapSelect) Drain() []Pair {
	out := make([]Pair, len(s.heap))
	h := s.heap
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&h).(Pair)
	}
	s.heap = nil
	return out
}

// Merge folds other's retained pairs into s via repeated Add, per the
// parallel scan's pairwise worker-heap merge.
func (s *HeapSelect) Merge(other *HeapSelect) {
	for _, p := range other.heap {
		s.Add(p)
	}
}
