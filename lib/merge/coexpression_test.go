package merge

import (
	"context"
	"errors"
	"testing"

	"github.com/kpaschen/fcmerge/lib/datatypes"
	"github.com/kpaschen/fcmerge/lib/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeByCoexpressionThreshold(t *testing.T) {
	clusters := []datatypes.FeatureCluster{
		cluster("X", 25, "g1"),
		cluster("Y", 25, "g2"),
	}
	edges := []datatypes.CoexpressionEdge{{Gene1: "g1", Gene2: "g2", EdgeWeight: 0.9}}

	m := testMerger(t, settings.MergeSettings{DecayRate: 25, Threshold: settings.Float64(0.5)})
	merged, err := m.MergeByCoexpression(context.Background(), clusters, edges, datatypes.NewFeatureSet())
	require.NoError(t, err)
	require.Len(t, merged, 1)
	assert.Equal(t, "X", merged[0].ID)
	assert.Equal(t, []string{"g1", "g2"}, merged[0].Members())
	assert.Equal(t, []string{"X", "Y"}, merged[0].SourceIDs)

	m = testMerger(t, settings.MergeSettings{DecayRate: 25, Threshold: settings.Float64(0.95)})
	merged, err = m.MergeByCoexpression(context.Background(), clusters, edges, datatypes.NewFeatureSet())
	require.NoError(t, err)
	require.Len(t, merged, 2)
	assert.Equal(t, "X", merged[0].ID)
	assert.Equal(t, "Y", merged[1].ID)
}

func TestMergeByCoexpressionFollowsChains(t *testing.T) {
	clusters := []datatypes.FeatureCluster{
		cluster("X", 0, "g1", "m1"),
		cluster("Z", 0, "g4", "g3"),
		cluster("Y", 0, "g2"),
		cluster("W", 0, "g9"),
	}
	// X-Y is only recorded as g2->g1, and Z is only reachable through Y.
	edges := []datatypes.CoexpressionEdge{
		{Gene1: "g2", Gene2: "g1", EdgeWeight: 0.8},
		{Gene1: "g2", Gene2: "g3", EdgeWeight: 0.7},
		{Gene1: "g1", Gene2: "g9", EdgeWeight: 0.1},
	}
	m := testMerger(t, settings.MergeSettings{Threshold: settings.Float64(0.5), Workers: 3})
	merged, err := m.MergeByCoexpression(context.Background(), clusters, edges, datatypes.NewFeatureSet("m1"))
	require.NoError(t, err)
	require.Len(t, merged, 2)
	assert.Equal(t, "X", merged[0].ID)
	assert.Equal(t, []string{"m1"}, merged[0].Metabolites)
	assert.Equal(t, []string{"g1", "g2", "g3", "g4"}, merged[0].Genes)
	assert.ElementsMatch(t, []string{"X", "Y", "Z"}, merged[0].SourceIDs)
	assert.Equal(t, "W", merged[1].ID)
	assert.Equal(t, []string{"g9"}, merged[1].Genes)
	assertCoverage(t, clusters, merged, datatypes.NewFeatureSet("m1"))
}

func TestMergeByCoexpressionCoverage(t *testing.T) {
	clusters := []datatypes.FeatureCluster{
		cluster("A", 5, "g1", "m1", "g2"),
		cluster("B", 5, "g3", "g1"),
		cluster("C", 5, "g4", "m2"),
		cluster("D", 5, "g5"),
		cluster("E", 5, "g6", "g2"),
		cluster("F", 7, "g7"),
	}
	edges := []datatypes.CoexpressionEdge{
		{Gene1: "g2", Gene2: "g4", EdgeWeight: 0.6},
		{Gene1: "g5", Gene2: "g6", EdgeWeight: 0.3},
		{Gene1: "g7", Gene2: "g1", EdgeWeight: 1.0},
	}
	metabolites := datatypes.NewFeatureSet("m1", "m2")
	for _, threshold := range []float64{0.0, 0.5, 0.9} {
		m := testMerger(t, settings.MergeSettings{DecayRate: 5, Threshold: settings.Float64(threshold), Workers: 2})
		merged, err := m.MergeByCoexpression(context.Background(), clusters, edges, metabolites)
		require.NoError(t, err)
		// F is outside the decay rate.
		assertCoverage(t, clusters[:5], merged, metabolites)
	}
}

func TestMergeByCoexpressionZeroThreshold(t *testing.T) {
	clusters := []datatypes.FeatureCluster{
		cluster("X", 0, "g1"),
		cluster("Y", 0, "g2"),
	}
	edges := []datatypes.CoexpressionEdge{{Gene1: "g1", Gene2: "g2", EdgeWeight: 0.0}}

	m := testMerger(t, settings.MergeSettings{Threshold: settings.Float64(0)})
	assert.Equal(t, 0.0, m.Settings().ThresholdValue())
	merged, err := m.MergeByCoexpression(context.Background(), clusters, edges, datatypes.NewFeatureSet())
	require.NoError(t, err)
	require.Len(t, merged, 1)
	assert.Equal(t, []string{"g1", "g2"}, merged[0].Genes)
}

func TestMergeByCoexpressionMissingEvidence(t *testing.T) {
	m := testMerger(t, settings.MergeSettings{})
	_, err := m.MergeByCoexpression(context.Background(),
		[]datatypes.FeatureCluster{cluster("X", 0, "g1")}, nil, datatypes.NewFeatureSet())
	var missing MissingEvidenceError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, settings.METHOD_COEXPRESSION, missing.Method)

	merged, err := m.MergeByCoexpression(context.Background(),
		[]datatypes.FeatureCluster{cluster("X", 0, "g1"), cluster("Y", 0, "g2")},
		[]datatypes.CoexpressionEdge{}, datatypes.NewFeatureSet())
	require.NoError(t, err)
	assert.Len(t, merged, 2)
}

func TestMergeByCoexpressionEmptyDecayRate(t *testing.T) {
	m := testMerger(t, settings.MergeSettings{DecayRate: 3})
	merged, err := m.MergeByCoexpression(context.Background(),
		[]datatypes.FeatureCluster{cluster("X", 1, "g1")}, []datatypes.CoexpressionEdge{}, datatypes.NewFeatureSet())
	require.NoError(t, err)
	assert.Empty(t, merged)
}

func TestMergeByCoexpressionCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := testMerger(t, settings.MergeSettings{})
	_, err := m.MergeByCoexpression(ctx,
		[]datatypes.FeatureCluster{cluster("X", 0, "g1"), cluster("Y", 0, "g2")},
		[]datatypes.CoexpressionEdge{}, datatypes.NewFeatureSet())
	assert.ErrorIs(t, err, context.Canceled)
}
