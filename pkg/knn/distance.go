// Package knn implements the distance kernels and bounded top-k selector
// used by vector similarity scans. Every kernel promotes its operands to
// float64 internally and returns a non-negative distance.
package knn

import (
	"fmt"
	"math"

	"github.com/cottontaildb/cottontail/pkg/values"
)

// Metric identifies a supported distance kernel.
type Metric int

const (
	L1 Metric = iota
	L2
	Lp
	Cosine
	AbsoluteInnerProduct
	Haversine
	Hamming
)

func (m Metric) String() string {
	switch m {
	case L1:
		return "L1"
	case L2:
		return "L2"
	case Lp:
		return "LP"
	case Cosine:
		return "COSINE"
	case AbsoluteInnerProduct:
		return "ABS_INNER_PRODUCT"
	case Haversine:
		return "HAVERSINE"
	case Hamming:
		return "HAMMING"
	default:
		return "UNKNOWN"
	}
}

// meanEarthRadiusMeters is the mean radius used by the haversine kernel.
const meanEarthRadiusMeters = 6371000.0

// Kernel computes the distance between two vectors of equal logical size.
// P is only consulted by Lp.
type Kernel struct {
	Metric Metric
	P      float64
}

// toFloat64s extracts a vector's components as float64, the common
// representation every kernel below operates on.
func toFloat64s(v values.Vector) ([]float64, error) {
	switch vec := v.(type) {
	case values.FloatVectorValue:
		out := make([]float64, len(vec))
		for i, f := range vec {
			out[i] = float64(f)
		}
		return out, nil
	case values.DoubleVectorValue:
		return append([]float64(nil), vec...), nil
	default:
		return nil, fmt.Errorf("knn: metric %T does not support vector type %s", vec, v.Type())
	}
}

// Distance computes this kernel's distance between a and b, which must
// have equal logical size.
func (k Kernel) Distance(a, b values.Vector) (float64, error) {
	if a.LogicalSize() != b.LogicalSize() {
		return 0, fmt.Errorf("knn: vector size mismatch: %d vs %d", a.LogicalSize(), b.LogicalSize())
	}

	if k.Metric == Hamming {
		return hamming(a, b)
	}

	xs, err := toFloat64s(a)
	if err != nil {
		return 0, err
	}
	ys, err := toFloat64s(b)
	if err != nil {
		return 0, err
	}

	switch k.Metric {
	case L1:
		return l1(xs, ys), nil
	case L2:
		return l2(xs, ys), nil
	case Lp:
		return lp(xs, ys, k.P), nil
	case Cosine:
		return cosine(xs, ys), nil
	case AbsoluteInnerProduct:
		return absInnerProduct(xs, ys), nil
	case Haversine:
		if len(xs) != 2 {
			return 0, fmt.Errorf("knn: haversine requires logical size 2, got %d", len(xs))
		}
		return haversine(xs[0], xs[1], ys[0], ys[1]), nil
	default:
		return 0, fmt.Errorf("knn: unsupported metric %s", k.Metric)
	}
}

func l1(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += math.Abs(a[i] - b[i])
	}
	return sum
}

func l2(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

func lp(a, b []float64, p float64) float64 {
	var sum float64
	for i := range a {
		sum += math.Pow(math.Abs(a[i]-b[i]), p)
	}
	return math.Pow(sum, 1/p)
}

func cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

func absInnerProduct(a, b []float64) float64 {
	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}
	return math.Abs(dot)
}

func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := math.Pi / 180
	dLat := (lat2 - lat1) * toRad
	dLon := (lon2 - lon1) * toRad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*toRad)*math.Cos(lat2*toRad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return meanEarthRadiusMeters * c
}

func hamming(a, b values.Vector) (float64, error) {
	av, ok := a.(values.BitVectorValue)
	if !ok {
		return 0, fmt.Errorf("knn: hamming requires bit vectors, got %s", a.Type())
	}
	bv, ok := b.(values.BitVectorValue)
	if !ok {
		return 0, fmt.Errorf("knn: hamming requires bit vectors, got %s", b.Type())
	}
	var dist float64
	for i := 0; i < av.LogicalSize(); i++ {
		if av.Bit(i) != bv.Bit(i) {
			dist++
		}
	}
	return dist, nil
}

// ComponentCost is the nominal per-component cost of this metric, used by
// an index's cost estimation.
func (m Metric) ComponentCost() float64 {
	switch m {
	case L1, Hamming:
		return 1
	case L2, AbsoluteInnerProduct:
		return 2
	case Cosine:
		return 3
	case Lp:
		return 4
	case Haversine:
		return 6
	default:
		return 1
	}
}
