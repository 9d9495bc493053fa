package kafka

import (
	"slices"

	"github.com/kpaschen/fcmerge/lib/datatypes"
	"github.com/kpaschen/fcmerge/lib/merge"
	"github.com/kpaschen/fcmerge/lib/settings"
)

const (
	REQUEST_TOPIC = "fcmerge_requests"
)

// A MergeRequest carries everything a worker needs for one merge run.
// Feature rows are keyed by feature id and have one value per entry of
// Samples.
type MergeRequest struct {
	RequestID    string
	Config       settings.MergeSettings
	Clusters     []datatypes.FeatureCluster
	Samples      []string
	Transcripts  map[string][]float64
	Metabolites  map[string][]float64
	Coexpression []datatypes.CoexpressionEdge
}

// TableMessage is what a worker publishes for every result table.
type TableMessage struct {
	MessageID string
	RequestID string
	Table     *datatypes.Table
}

// FeatureTable builds a feature table from rows, adding features in
// sorted order.
func FeatureTable(samples []string, rows map[string][]float64) *datatypes.FeatureTable {
	ret := datatypes.NewFeatureTable(samples)
	features := make([]string, 0, len(rows))
	for f := range rows {
		features = append(features, f)
	}
	slices.Sort(features)
	for _, f := range features {
		ret.Set(f, rows[f])
	}
	return ret
}

// Inputs converts the request payload into merge inputs.
func (r MergeRequest) Inputs() merge.Inputs {
	return merge.Inputs{
		Clusters:     r.Clusters,
		Transcripts:  FeatureTable(r.Samples, r.Transcripts),
		Metabolites:  FeatureTable(r.Samples, r.Metabolites),
		Coexpression: r.Coexpression,
	}
}
