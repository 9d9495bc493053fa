package merge

import (
	"context"
	"fmt"

	"github.com/kpaschen/fcmerge/lib/correlation"
	"github.com/kpaschen/fcmerge/lib/datatypes"
	"github.com/kpaschen/fcmerge/lib/mcl"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/mat"
)

// FingerprintResult carries the merged clusters together with the
// association matrix they were derived from. MatrixIDs[i] is the cluster
// id of row and column i.
type FingerprintResult struct {
	Merged            []datatypes.MergedCluster
	AssociationMatrix *mat.SymDense
	MatrixIDs         []string
}

// fingerprints computes one fingerprint per cluster on the worker pool.
// The first missing feature aborts the whole computation.
func (m *Merger) fingerprints(ctx context.Context, clusters []datatypes.FeatureCluster,
	transcripts *datatypes.FeatureTable, metabolites *datatypes.FeatureTable) ([][]float64, error) {

	ret := make([][]float64, len(clusters))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.config.Workers)
	for i, c := range clusters {
		i, c := i, c
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fp, err := ComputeFingerprint(c, transcripts, metabolites)
			if err != nil {
				return err
			}
			ret[i] = fp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ret, nil
}

// SimilarityGraph has one node per matrix row and an edge between i and j
// (i != j) whenever their association is at least threshold.
func SimilarityGraph(association mat.Symmetric, threshold float64) *simple.WeightedUndirectedGraph {
	g := simple.NewWeightedUndirectedGraph(0, 0)
	if association == nil {
		return g
	}
	n := association.SymmetricDim()
	for i := 0; i < n; i++ {
		g.AddNode(simple.Node(i))
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			w := association.At(i, j)
			if w >= threshold {
				g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(i), simple.Node(j), w))
			}
		}
	}
	return g
}

// adjacencyMatrix is the dense form of g that mcl works on.
func adjacencyMatrix(g *simple.WeightedUndirectedGraph, n int) *mat.Dense {
	ret := mat.NewDense(n, n, nil)
	edges := g.WeightedEdges()
	for edges.Next() {
		e := edges.WeightedEdge()
		i, j := int(e.From().ID()), int(e.To().ID())
		ret.Set(i, j, e.Weight())
		ret.Set(j, i, e.Weight())
	}
	return ret
}

// MergeByFingerprint computes a fingerprint for every cluster, scores all
// pairs of fingerprints, links pairs scoring at least the threshold and
// partitions the resulting graph with MCL. Each partition becomes one
// merged cluster.
//
// The fingerprint merger works on all clusters it is given; it does not
// select a decay rate.
func (m *Merger) MergeByFingerprint(ctx context.Context, clusters []datatypes.FeatureCluster,
	transcripts *datatypes.FeatureTable, metabolites *datatypes.FeatureTable) (*FingerprintResult, error) {

	if len(clusters) == 0 {
		m.logger.Warn("no clusters to fingerprint")
		return &FingerprintResult{Merged: []datatypes.MergedCluster{}}, nil
	}

	fps, err := m.fingerprints(ctx, clusters, transcripts, metabolites)
	if err != nil {
		return nil, err
	}
	m.logger.Debug("computed fingerprints", zap.Int("clusters", len(fps)))

	association, err := correlation.AssociationMatrix(ctx, fps, m.config.Workers)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(clusters))
	for i, c := range clusters {
		ids[i] = c.ID
	}
	res := &FingerprintResult{
		Merged:            []datatypes.MergedCluster{},
		AssociationMatrix: association,
		MatrixIDs:         ids,
	}
	if association == nil {
		return res, nil
	}

	g := SimilarityGraph(association, m.config.ThresholdValue())
	m.logger.Info("built similarity graph",
		zap.Int("nodes", g.Nodes().Len()),
		zap.Int("edges", g.Edges().Len()),
		zap.Int("components", len(topo.ConnectedComponents(g))),
		zap.Float64("threshold", m.config.ThresholdValue()))

	partition, err := mcl.Cluster(adjacencyMatrix(g, len(clusters)), mcl.Options{
		Expansion:      m.config.Expansion,
		Inflation:      m.config.Inflation,
		MaxIterations:  m.config.MaxIterations,
		PruneThreshold: m.config.PruneThresholdValue(),
		SelfLoopWeight: 1.0,
	})
	if err != nil {
		return nil, fmt.Errorf("partitioning similarity graph: %w", err)
	}
	mclIterations.Observe(float64(partition.Iterations))
	if !partition.Converged {
		m.logger.Warn("mcl did not converge",
			zap.Int("iterations", partition.Iterations),
			zap.Float64("inflation", m.config.Inflation))
	}

	sets := make([]*memberSet, 0, len(partition.Clusters))
	for _, nodes := range partition.Clusters {
		set := newMemberSet()
		for _, node := range nodes {
			set.absorb(clusters[node])
		}
		sets = append(sets, set)
	}
	res.Merged = assemble(sets, metabolites.Universe())

	m.logger.Info("fingerprint merge complete",
		zap.Int("clusters", len(clusters)),
		zap.Int("mergedClusters", len(res.Merged)),
		zap.Int("mclIterations", partition.Iterations))
	return res, nil
}
