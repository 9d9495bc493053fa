package correlation

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// AssociationMatrix computes the association strength of every pair of
// fingerprints. The diagonal is 1.0 by definition. Rows are spread over
// at most workers goroutines; each goroutine owns the upper-triangle cells
// of its row, so no cell is written twice.
// Returns nil for an empty input.
func AssociationMatrix(ctx context.Context, fingerprints [][]float64, workers int) (*mat.SymDense, error) {
	n := len(fingerprints)
	if n == 0 {
		return nil, nil
	}
	ret := mat.NewSymDense(n, nil)
	if workers < 1 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ret.SetSym(i, i, 1.0)
			for j := i + 1; j < n; j++ {
				strength, err := AssociationStrength(fingerprints[i], fingerprints[j])
				if err != nil {
					return fmt.Errorf("association of fingerprints %d and %d: %w", i, j, err)
				}
				ret.SetSym(i, j, strength)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ret, nil
}
