package knn

import (
	"math"
	"testing"

	"github.com/cottontaildb/cottontail/pkg/values"
)

func TestL2Distance(t *testing.T) {
	a := values.NewFloatVector([]float32{0, 0})
	b := values.NewFloatVector([]float32{3, 4})
	d, err := Kernel{Metric: L2}.Distance(a, b)
	if err != nil {
		t.Fatalf("Distance: %v", err)
	}
	if math.Abs(d-5) > 1e-9 {
		t.Fatalf("L2 = %v, want 5", d)
	}
}

func TestL1Distance(t *testing.T) {
	a := values.NewDoubleVector([]float64{0, 0, 0})
	b := values.NewDoubleVector([]float64{1, -2, 3})
	d, err := Kernel{Metric: L1}.Distance(a, b)
	if err != nil {
		t.Fatalf("Distance: %v", err)
	}
	if math.Abs(d-6) > 1e-9 {
		t.Fatalf("L1 = %v, want 6", d)
	}
}

func TestLpDistanceMatchesL2AtP2(t *testing.T) {
	a := values.NewFloatVector([]float32{1, 2})
	b := values.NewFloatVector([]float32{4, 6})
	l2, _ := Kernel{Metric: L2}.Distance(a, b)
	lp, _ := Kernel{Metric: Lp, P: 2}.Distance(a, b)
	if math.Abs(l2-lp) > 1e-9 {
		t.Fatalf("Lp(p=2) = %v, want L2 = %v", lp, l2)
	}
}

func TestHaversineZeroAtSamePoint(t *testing.T) {
	a := values.NewDoubleVector([]float64{51.5, -0.12})
	d, err := Kernel{Metric: Haversine}.Distance(a, a)
	if err != nil {
		t.Fatalf("Distance: %v", err)
	}
	if math.Abs(d) > 1e-6 {
		t.Fatalf("Haversine(p, p) = %v, want ~0", d)
	}
}

func TestHammingCountsDifferingBits(t *testing.T) {
	a := values.NewBitVector([]bool{true, false, true, true})
	b := values.NewBitVector([]bool{true, true, true, false})
	d, err := Kernel{Metric: Hamming}.Distance(a, b)
	if err != nil {
		t.Fatalf("Distance: %v", err)
	}
	if d != 2 {
		t.Fatalf("Hamming = %v, want 2", d)
	}
}

func TestVectorSizeMismatchErrors(t *testing.T) {
	a := values.NewFloatVector([]float32{1, 2})
	b := values.NewFloatVector([]float32{1, 2, 3})
	if _, err := (Kernel{Metric: L2}).Distance(a, b); err == nil {
		t.Fatal("expected error for mismatched vector sizes")
	}
}
