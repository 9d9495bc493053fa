package merge

import (
	"github.com/kpaschen/fcmerge/lib/datatypes"
	"go.uber.org/zap"
)

// unionFind tracks which clusters have been merged. Roots are always the
// smallest cluster index of their group.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	u := &unionFind{parent: make([]int, n)}
	for i := range u.parent {
		u.parent[i] = i
	}
	return u
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

func (u *unionFind) union(i int, j int) {
	ri, rj := u.find(i), u.find(j)
	if ri == rj {
		return
	}
	if rj < ri {
		ri, rj = rj, ri
	}
	u.parent[rj] = ri
}

// MergeByOverlap merges the clusters of the configured decay rate that
// share anchor features. Sharing is transitive: if A and B share one anchor
// and B and C share another, A, B and C end up in one merged cluster.
// Groups that share any member, anchor or not, are merged as well.
// Clusters that share no anchor are passed through on their own.
//
// Merged clusters are emitted in the order of their first input cluster,
// so the output only depends on the order of the input clusters.
// Members are split into metabolites and genes using the metabolite universe.
func (m *Merger) MergeByOverlap(clusters []datatypes.FeatureCluster,
	anchors datatypes.FeatureSet, metabolites datatypes.FeatureSet) ([]datatypes.MergedCluster, error) {

	scoped, err := selectDecayRate(clusters, m.config.DecayRate)
	if err != nil {
		return m.emptyResult(err)
	}

	// anchor -> indices of the clusters containing it
	anchorIndex := make(map[string][]int)
	for i, c := range scoped {
		for _, member := range c.Members {
			if !anchors.Contains(member) {
				continue
			}
			indices := anchorIndex[member]
			if len(indices) > 0 && indices[len(indices)-1] == i {
				continue
			}
			anchorIndex[member] = append(indices, i)
		}
	}

	shared := datatypes.NewFeatureSet()
	for anchor, indices := range anchorIndex {
		if len(indices) > 1 {
			shared.Add(anchor)
		}
	}
	sharedAnchors := shared.Sorted()

	groups := newUnionFind(len(scoped))
	touched := make([]bool, len(scoped))
	for _, anchor := range sharedAnchors {
		indices := anchorIndex[anchor]
		for _, idx := range indices {
			touched[idx] = true
		}
		for _, idx := range indices[1:] {
			groups.union(indices[0], idx)
		}
	}

	// Groups formed around different anchors that share any member are
	// one merged cluster. Clusters outside every group stay on their own
	// even if they share members with a group.
	owner := make(map[string]int)
	for i, c := range scoped {
		if !touched[i] {
			continue
		}
		for _, member := range c.Members {
			if j, ok := owner[member]; ok {
				groups.union(j, i)
			} else {
				owner[member] = i
			}
		}
	}

	setsByRoot := make(map[int]*memberSet)
	sets := make([]*memberSet, 0)
	for i, c := range scoped {
		root := groups.find(i)
		set, exists := setsByRoot[root]
		if !exists {
			set = newMemberSet()
			setsByRoot[root] = set
			sets = append(sets, set)
		}
		set.absorb(c)
	}

	m.logger.Info("overlap merge complete",
		zap.Int("decayRate", m.config.DecayRate),
		zap.Int("clusters", len(scoped)),
		zap.Int("anchors", len(anchorIndex)),
		zap.Int("sharedAnchors", len(sharedAnchors)),
		zap.Int("mergedClusters", len(sets)))

	return assemble(sets, metabolites), nil
}
