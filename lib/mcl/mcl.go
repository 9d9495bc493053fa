// Package mcl partitions a weighted graph with the Markov cluster algorithm:
// the adjacency matrix is turned into a column-stochastic matrix, then
// expansion (matrix power) and inflation (elementwise power followed by
// renormalization) alternate until the matrix stops changing.
// Higher inflation yields smaller, tighter clusters.
package mcl

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"
)

type Options struct {
	Expansion      int
	Inflation      float64
	MaxIterations  int
	PruneThreshold float64
	// Weight of the self loop added to every node before the first
	// normalization.
	SelfLoopWeight float64
	// Convergence tolerance for successive iterates.
	Epsilon float64
}

func DefaultOptions() Options {
	return Options{
		Expansion:      2,
		Inflation:      2.0,
		MaxIterations:  100,
		PruneThreshold: 0.001,
		SelfLoopWeight: 1.0,
		Epsilon:        1e-6,
	}
}

type Result struct {
	// Clusters holds node indices. Every node is in exactly one cluster.
	// Nodes within a cluster are sorted, and clusters are sorted by their
	// smallest node.
	Clusters   [][]int
	Iterations int
	Converged  bool
}

// Cluster runs MCL on a square, non-negative adjacency matrix.
// The input is not modified.
func Cluster(adjacency mat.Matrix, opts Options) (*Result, error) {
	r, c := adjacency.Dims()
	if r != c {
		return nil, fmt.Errorf("adjacency matrix must be square but is %dx%d", r, c)
	}
	if opts.Inflation <= 1.0 {
		return nil, fmt.Errorf("inflation must be > 1 but is %f", opts.Inflation)
	}
	if opts.Expansion < 2 {
		return nil, fmt.Errorf("expansion must be >= 2 but is %d", opts.Expansion)
	}
	if opts.Epsilon <= 0.0 {
		opts.Epsilon = 1e-6
	}
	if r == 0 {
		return &Result{Clusters: [][]int{}, Converged: true}, nil
	}

	m := mat.DenseCopyOf(adjacency)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if m.At(i, j) < 0.0 {
				return nil, fmt.Errorf("negative weight %f at (%d,%d)", m.At(i, j), i, j)
			}
		}
	}
	if opts.SelfLoopWeight > 0.0 {
		for i := 0; i < r; i++ {
			m.Set(i, i, opts.SelfLoopWeight)
		}
	}
	normalizeColumns(m)

	res := &Result{}
	for res.Iterations < opts.MaxIterations {
		last := mat.DenseCopyOf(m)
		m = step(m, opts)
		res.Iterations++
		if mat.EqualApprox(m, last, opts.Epsilon) {
			res.Converged = true
			break
		}
	}
	res.Clusters = partition(m)
	return res, nil
}

func step(m *mat.Dense, opts Options) *mat.Dense {
	var expanded mat.Dense
	expanded.Pow(m, opts.Expansion)
	expanded.Apply(func(_, _ int, v float64) float64 {
		return math.Pow(v, opts.Inflation)
	}, &expanded)
	normalizeColumns(&expanded)
	if opts.PruneThreshold > 0.0 {
		prune(&expanded, opts.PruneThreshold)
		normalizeColumns(&expanded)
	}
	return &expanded
}

func normalizeColumns(m *mat.Dense) {
	r, c := m.Dims()
	for j := 0; j < c; j++ {
		sum := 0.0
		for i := 0; i < r; i++ {
			sum += m.At(i, j)
		}
		if sum == 0.0 {
			continue
		}
		for i := 0; i < r; i++ {
			m.Set(i, j, m.At(i, j)/sum)
		}
	}
}

// prune zeroes entries below threshold but always keeps the largest entry
// of each column.
func prune(m *mat.Dense, threshold float64) {
	r, c := m.Dims()
	for j := 0; j < c; j++ {
		maxRow := argmax(m, j)
		for i := 0; i < r; i++ {
			if i != maxRow && m.At(i, j) < threshold {
				m.Set(i, j, 0.0)
			}
		}
	}
}

func argmax(m *mat.Dense, column int) int {
	r, _ := m.Dims()
	best := 0
	for i := 1; i < r; i++ {
		if m.At(i, column) > m.At(best, column) {
			best = i
		}
	}
	return best
}

// Flow values closer than this count as a tie when assigning attractors.
const tieTolerance = 1e-9

// partition assigns every node (column) to the attractor (row) that holds
// most of its flow. Ties go to the lower row index.
func partition(m *mat.Dense) [][]int {
	r, c := m.Dims()
	byAttractor := make(map[int][]int)
	for j := 0; j < c; j++ {
		best := m.At(argmax(m, j), j)
		attractor := j
		if best > 0.0 {
			for i := 0; i < r; i++ {
				if m.At(i, j) >= best-tieTolerance {
					attractor = i
					break
				}
			}
		}
		byAttractor[attractor] = append(byAttractor[attractor], j)
	}
	ret := make([][]int, 0, len(byAttractor))
	for _, nodes := range byAttractor {
		slices.Sort(nodes)
		ret = append(ret, nodes)
	}
	slices.SortFunc(ret, func(a, b []int) int { return a[0] - b[0] })
	return ret
}
