package merge

import (
	"fmt"

	"github.com/kpaschen/fcmerge/lib/datatypes"
	"github.com/kpaschen/fcmerge/lib/svd"
	"gonum.org/v1/gonum/mat"
)

// clusterMatrix stacks the measurement rows of the cluster's members,
// looking in the transcript table first and in the metabolite table second.
func clusterMatrix(cluster datatypes.FeatureCluster,
	transcripts *datatypes.FeatureTable, metabolites *datatypes.FeatureTable) (*mat.Dense, error) {

	if len(cluster.Members) == 0 {
		return nil, fmt.Errorf("cluster %s has no members", cluster.ID)
	}
	columnCount := -1
	data := make([]float64, 0)
	for _, member := range cluster.Members {
		row, ok := transcripts.Row(member)
		if !ok {
			row, ok = metabolites.Row(member)
		}
		if !ok {
			return nil, MissingFeatureError{ClusterID: cluster.ID, Feature: member}
		}
		if columnCount < 0 {
			columnCount = len(row)
		} else if columnCount != len(row) {
			return nil, fmt.Errorf("feature %s of cluster %s has %d samples, expected %d",
				member, cluster.ID, len(row), columnCount)
		}
		data = append(data, row...)
	}
	if columnCount == 0 {
		return nil, fmt.Errorf("features of cluster %s have no sample columns", cluster.ID)
	}
	return mat.NewDense(len(cluster.Members), columnCount, data), nil
}

// ComputeFingerprint returns the dominant right singular vector of the
// cluster's feature-by-sample matrix. It has one entry per sample.
func ComputeFingerprint(cluster datatypes.FeatureCluster,
	transcripts *datatypes.FeatureTable, metabolites *datatypes.FeatureTable) ([]float64, error) {

	m, err := clusterMatrix(cluster, transcripts, metabolites)
	if err != nil {
		return nil, err
	}
	fingerprint, err := svd.DominantRightSingularVector(m)
	if err != nil {
		return nil, fmt.Errorf("fingerprint of cluster %s: %w", cluster.ID, err)
	}
	return fingerprint, nil
}
