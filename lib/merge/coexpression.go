package merge

import (
	"context"
	"slices"

	"github.com/kpaschen/fcmerge/lib/datatypes"
	"github.com/kpaschen/fcmerge/lib/settings"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// neighborIndex maps every gene to the genes it shares an edge of at least
// threshold with, in either direction.
func neighborIndex(edges []datatypes.CoexpressionEdge, threshold float64) map[string]datatypes.FeatureSet {
	ret := make(map[string]datatypes.FeatureSet)
	link := func(a, b string) {
		s, ok := ret[a]
		if !ok {
			s = datatypes.NewFeatureSet()
			ret[a] = s
		}
		s.Add(b)
	}
	for _, e := range edges {
		if e.EdgeWeight < threshold {
			continue
		}
		link(e.Gene1, e.Gene2)
		link(e.Gene2, e.Gene1)
	}
	return ret
}

// expansion is the growing member set of one seed cluster.
type expansion struct {
	set *memberSet
	// genes with a qualifying edge to some member of set
	frontier datatypes.FeatureSet
}

func (x *expansion) absorb(cluster datatypes.FeatureCluster, neighbors map[string]datatypes.FeatureSet) {
	x.set.absorb(cluster)
	for _, member := range cluster.Members {
		for n := range neighbors[member] {
			x.frontier.Add(n)
		}
	}
}

func (x *expansion) connectedTo(cluster datatypes.FeatureCluster) bool {
	for _, member := range cluster.Members {
		if x.frontier.Contains(member) {
			return true
		}
	}
	return false
}

// scanCandidates tests the candidates against the current frontier on the
// worker pool. The frontier is only read here; absorption happens in the
// caller once the whole pass has been decided.
func (m *Merger) scanCandidates(ctx context.Context, x *expansion,
	clusters []datatypes.FeatureCluster, candidates []int) ([]bool, error) {

	connected := make([]bool, len(candidates))
	workers := m.config.Workers
	chunk := (len(candidates) + workers - 1) / workers
	if chunk < 1 {
		chunk = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < len(candidates); start += chunk {
		start := start
		end := min(start+chunk, len(candidates))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for k := start; k < end; k++ {
				connected[k] = x.connectedTo(clusters[candidates[k]])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return connected, nil
}

// MergeByCoexpression grows each unvisited seed cluster by absorbing every
// unvisited cluster that has a gene linked to the seed's current members by
// a coexpression edge of at least the threshold. Passes repeat until one
// absorbs nothing, so chains of edges are followed to the end.
//
// Results keep the seed's id; the members of each result are sorted.
// A nil edge table is an error, an empty one is not.
func (m *Merger) MergeByCoexpression(ctx context.Context, clusters []datatypes.FeatureCluster,
	edges []datatypes.CoexpressionEdge, metabolites datatypes.FeatureSet) ([]datatypes.MergedCluster, error) {

	if edges == nil {
		return nil, MissingEvidenceError{Method: settings.METHOD_COEXPRESSION, Table: "coexpression edge"}
	}
	scoped, err := selectDecayRate(clusters, m.config.DecayRate)
	if err != nil {
		return m.emptyResult(err)
	}

	neighbors := neighborIndex(edges, m.config.ThresholdValue())
	visited := make([]bool, len(scoped))
	ret := make([]datatypes.MergedCluster, 0)
	passes := 0

	for seed, seedCluster := range scoped {
		if visited[seed] {
			continue
		}
		visited[seed] = true
		x := &expansion{set: newMemberSet(), frontier: datatypes.NewFeatureSet()}
		x.absorb(seedCluster, neighbors)

		for {
			candidates := make([]int, 0)
			for i := range scoped {
				if !visited[i] {
					candidates = append(candidates, i)
				}
			}
			if len(candidates) == 0 {
				break
			}
			passes++
			connected, err := m.scanCandidates(ctx, x, scoped, candidates)
			if err != nil {
				return nil, err
			}
			absorbed := 0
			for k, isConnected := range connected {
				if !isConnected {
					continue
				}
				visited[candidates[k]] = true
				x.absorb(scoped[candidates[k]], neighbors)
				absorbed++
			}
			if absorbed == 0 {
				break
			}
		}

		members := slices.Clone(x.set.members)
		slices.Sort(members)
		ms, gs := SplitMembers(members, metabolites)
		ret = append(ret, datatypes.MergedCluster{
			ID:          seedCluster.ID,
			SourceIDs:   x.set.sources,
			Metabolites: ms,
			Genes:       gs,
		})
	}

	m.logger.Info("coexpression merge complete",
		zap.Int("decayRate", m.config.DecayRate),
		zap.Int("clusters", len(scoped)),
		zap.Int("edges", len(edges)),
		zap.Int("linkedGenes", len(neighbors)),
		zap.Int("passes", passes),
		zap.Int("mergedClusters", len(ret)))
	return ret, nil
}
