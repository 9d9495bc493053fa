package correlation

import (
	"fmt"
	"math"
)

// This is the formula for incremental pearson.
// A constant input has no defined correlation; it is reported as 0.
func PearsonCorrelation(x []float64, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0.0, fmt.Errorf("correlation needs arguments of the same length (%d vs. %d)", len(x), len(y))
	}
	if len(x) == 0 {
		return 0.0, fmt.Errorf("correlation needs non-empty arguments")
	}
	var s1, s2, s3, s4, s5 float64
	for i, xi := range x {
		s1 += xi
		s2 += xi * xi
		s3 += y[i]
		s4 += y[i] * y[i]
		s5 += xi * y[i]
	}
	n := float64(len(x))

	denominator := (n*s2 - s1*s1) * (n*s4 - s3*s3)
	if denominator <= 0.0 {
		return 0.0, nil
	}
	r := (n*s5 - (s1 * s3)) / math.Sqrt(denominator)
	// Rounding can push r slightly past +-1.
	return math.Max(-1.0, math.Min(1.0, r)), nil
}

// AssociationStrength maps the pearson correlation of two fingerprints
// from [-1,1] into [0,1].
func AssociationStrength(fi []float64, fj []float64) (float64, error) {
	r, err := PearsonCorrelation(fi, fj)
	if err != nil {
		return 0.0, err
	}
	return (1.0 + r) / 2.0, nil
}
