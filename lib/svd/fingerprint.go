package svd

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// SVD factors a matrix A as USV^T where S is a diagonal
// matrix of singular values sorted in decreasing order.
// The dominant right singular vector is the first column of V
// (the first row of V^T). It summarizes the covariation pattern
// shared by the rows of A across its columns.
//
// Singular vectors are only defined up to sign. The vector returned here
// is oriented so that the rows of A load positively on it on balance,
// i.e. the first column of U sums to a non-negative value. Without this,
// two clusters with the same profile could get anti-correlated fingerprints.
func DominantRightSingularVector(m mat.Matrix) ([]float64, error) {
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil, fmt.Errorf("cannot decompose an empty %dx%d matrix", r, c)
	}
	var svd mat.SVD
	ok := svd.Factorize(m, mat.SVDThin)
	if !ok {
		return nil, fmt.Errorf("failed to find SVD of %dx%d input matrix", r, c)
	}

	var v, u mat.Dense
	svd.VTo(&v)
	svd.UTo(&u)

	ret := mat.Col(nil, 0, &v)
	if mat.Sum(u.ColView(0)) < 0.0 {
		for i := range ret {
			ret[i] = -ret[i]
		}
	}
	return ret, nil
}
