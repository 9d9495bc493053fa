package datatypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureTable(t *testing.T) {
	table := NewFeatureTable([]string{"s1", "s2"})
	table.Set("g2", []float64{1.0, 2.0})
	table.Set("g1", []float64{3.0, 4.0})
	table.Set("g2", []float64{5.0, 6.0})

	assert.Equal(t, []string{"g2", "g1"}, table.Features())
	assert.Equal(t, 2, table.Len())
	row, ok := table.Row("g2")
	require.True(t, ok)
	assert.Equal(t, []float64{5.0, 6.0}, row)
	_, ok = table.Row("m1")
	assert.False(t, ok)

	universe := table.Universe()
	assert.True(t, universe.Contains("g1"))
	assert.False(t, universe.Contains("m1"))

	var missing *FeatureTable
	_, ok = missing.Row("g1")
	assert.False(t, ok)
	assert.Equal(t, 0, missing.Len())
}

func TestFeatureSetSorted(t *testing.T) {
	s := NewFeatureSet("m2", "g1", "m1")
	s.Add("a0")
	assert.Equal(t, []string{"a0", "g1", "m1", "m2"}, s.Sorted())
}

func TestMergedClusterMembers(t *testing.T) {
	mc := MergedCluster{Metabolites: []string{"m1"}, Genes: []string{"g1", "g2"}}
	assert.Equal(t, []string{"m1", "g1", "g2"}, mc.Members())
}

func TestMarshalTable(t *testing.T) {
	table := &Table{
		Name:    "merged_cluster_coex_DR_25",
		Kind:    KIND_COEXPRESSION,
		Columns: []string{"ID", "Members"},
		Rows:    [][]string{{"X", "g1 g2"}},
	}
	b, err := table.MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(b), `"kind":"coexpression"`)

	var reconstructed Table
	require.NoError(t, (&reconstructed).UnmarshalJSON(b))
	assert.Equal(t, *table, reconstructed)
}
