package merge

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kpaschen/fcmerge/lib/datatypes"
	"github.com/kpaschen/fcmerge/lib/settings"
)

const (
	TABLE_OVERLAP      = "merged_cluster_overlap_metabolites"
	TABLE_FINGERPRINT  = "merged_clusters_fingerprint"
	TABLE_COEXPRESSION = "merged_cluster_coex"
)

// memberSet is a merged group before it gets an id: the ids of the
// clusters that went into it and their members, deduplicated in
// first-seen order.
type memberSet struct {
	sources []string
	members []string
	seen    datatypes.FeatureSet
}

func newMemberSet() *memberSet {
	return &memberSet{seen: datatypes.NewFeatureSet()}
}

func (s *memberSet) absorb(cluster datatypes.FeatureCluster) {
	s.sources = append(s.sources, cluster.ID)
	for _, m := range cluster.Members {
		if s.seen.Contains(m) {
			continue
		}
		s.seen.Add(m)
		s.members = append(s.members, m)
	}
}

// SplitMembers partitions members into metabolites and genes by lookup in
// the metabolite universe. Order is preserved within each part.
func SplitMembers(members []string, metabolites datatypes.FeatureSet) ([]string, []string) {
	ms := make([]string, 0)
	gs := make([]string, 0)
	for _, m := range members {
		if metabolites.Contains(m) {
			ms = append(ms, m)
		} else {
			gs = append(gs, m)
		}
	}
	return ms, gs
}

// assemble turns member sets into merged clusters with ids MC_1, MC_2, ...
// in the order the sets were produced.
func assemble(sets []*memberSet, metabolites datatypes.FeatureSet) []datatypes.MergedCluster {
	ret := make([]datatypes.MergedCluster, 0, len(sets))
	for i, s := range sets {
		ms, gs := SplitMembers(s.members, metabolites)
		ret = append(ret, datatypes.MergedCluster{
			ID:          fmt.Sprintf("MC_%d", i+1),
			SourceIDs:   s.sources,
			Metabolites: ms,
			Genes:       gs,
		})
	}
	return ret
}

// TableName appends the decay rate suffix when a decay rate is set.
func TableName(base string, decayRate int) string {
	if decayRate == 0 {
		return base
	}
	return base + "_" + settings.DecayRateLabel(decayRate)
}

func OverlapTable(merged []datatypes.MergedCluster, decayRate int) *datatypes.Table {
	t := &datatypes.Table{
		Name:    TableName(TABLE_OVERLAP, decayRate),
		Kind:    datatypes.KIND_OVERLAP,
		Columns: []string{"ID", "Metabolites", "Genes"},
		Rows:    make([][]string, 0, len(merged)),
	}
	for _, mc := range merged {
		t.Rows = append(t.Rows, []string{mc.ID,
			strings.Join(mc.Metabolites, " "), strings.Join(mc.Genes, " ")})
	}
	return t
}

func FingerprintTable(merged []datatypes.MergedCluster) *datatypes.Table {
	t := &datatypes.Table{
		Name:    TABLE_FINGERPRINT,
		Kind:    datatypes.KIND_FINGERPRINT,
		Columns: []string{"Cluster", "metabolites", "genes"},
		Rows:    make([][]string, 0, len(merged)),
	}
	for _, mc := range merged {
		t.Rows = append(t.Rows, []string{strings.Join(mc.SourceIDs, ", "),
			strings.Join(mc.Metabolites, ", "), strings.Join(mc.Genes, ", ")})
	}
	return t
}

func CoexpressionTable(merged []datatypes.MergedCluster, decayRate int) *datatypes.Table {
	t := &datatypes.Table{
		Name:    TableName(TABLE_COEXPRESSION, decayRate),
		Kind:    datatypes.KIND_COEXPRESSION,
		Columns: []string{"ID", "Members"},
		Rows:    make([][]string, 0, len(merged)),
	}
	for _, mc := range merged {
		members := mc.Members()
		slices.Sort(members)
		t.Rows = append(t.Rows, []string{mc.ID, strings.Join(members, " ")})
	}
	return t
}
