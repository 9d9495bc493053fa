package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kpaschen/fcmerge/lib/datatypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func writeFile(t *testing.T, dir string, name string, content string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseDecayRate(t *testing.T) {
	dr, ok := ParseDecayRate("clusters_DR_25.csv")
	assert.True(t, ok)
	assert.Equal(t, 25, dr)

	_, ok = ParseDecayRate("clusters.csv")
	assert.False(t, ok)
}

func TestLoadClusterTable(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "clusters.csv",
		"ID,Members,Source\nA,m1 g1 g2,DR_25\nB,m1  g3,DR_10\n")
	l := NewLoader(zaptest.NewLogger(t))

	clusters, err := l.LoadClusterTable(path)
	require.NoError(t, err)
	assert.Equal(t, []datatypes.FeatureCluster{
		{ID: "A", Members: []string{"m1", "g1", "g2"}, SourceDecayRate: 25},
		{ID: "B", Members: []string{"m1", "g3"}, SourceDecayRate: 10},
	}, clusters)

	bad := writeFile(t, dir, "bad.csv", "ID,Members,Source\nA,m1,25\n")
	_, err = l.LoadClusterTable(bad)
	assert.ErrorContains(t, err, "DR_<n>")

	missing := writeFile(t, dir, "missing.csv", "ID,Source\nA,DR_1\n")
	_, err = l.LoadClusterTable(missing)
	assert.ErrorContains(t, err, "Members")
}

func TestLoadClusterDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "fc_DR_5.csv", "Cluster,Members\n1,g1 g2\n2,m1\n")
	writeFile(t, dir, "fc_DR_25.csv", "Cluster,Members\n1,g3 m1\n")
	writeFile(t, dir, "notes.csv", "Cluster,Members\n1,g9\n")
	writeFile(t, dir, "readme.txt", "ignored")
	l := NewLoader(zaptest.NewLogger(t))

	clusters, err := l.LoadClusterDirectory(dir)
	require.NoError(t, err)
	require.Len(t, clusters, 3)
	assert.Equal(t, "cluster001_DR_25_1", clusters[0].ID)
	assert.Equal(t, 25, clusters[0].SourceDecayRate)
	assert.Equal(t, "cluster002_DR_5_1", clusters[1].ID)
	assert.Equal(t, "cluster003_DR_5_2", clusters[2].ID)
	assert.Equal(t, []string{"m1"}, clusters[2].Members)

	_, err = l.LoadClusterDirectory(t.TempDir())
	assert.Error(t, err)
}

func TestZScore(t *testing.T) {
	x := []float64{1, 2, 3}
	ZScore(x)
	assert.InDeltaSlice(t, []float64{-1.2247, 0, 1.2247}, x, 0.0001)

	c := []float64{4, 4, 4}
	ZScore(c)
	assert.Equal(t, []float64{0, 0, 0}, c)
}

func TestHarmonizeFeatureTables(t *testing.T) {
	transcripts := "gene,s2,s1,t_only\ng1,1,10,5\ng2,2,20,5\ng3,3,30,5\n"
	metabolites := "metabolite,s1,s2,m_only\nm1,1,4,0\nm2,3,4,0\n"
	l := NewLoader(zaptest.NewLogger(t))

	tt, mt, err := l.HarmonizeFeatureTables(strings.NewReader(transcripts), strings.NewReader(metabolites))
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2"}, tt.Samples)
	assert.Equal(t, []string{"s1", "s2"}, mt.Samples)
	assert.Equal(t, []string{"g1", "g2", "g3"}, tt.Features())

	row, ok := tt.Row("g1")
	require.True(t, ok)
	assert.InDeltaSlice(t, []float64{-1.2247, -1.2247}, row, 0.0001)

	row, ok = mt.Row("m2")
	require.True(t, ok)
	assert.InDeltaSlice(t, []float64{1.0, 0.0}, row, 0.0001)
}

func TestHarmonizeFeatureTablesErrors(t *testing.T) {
	l := NewLoader(nil)
	_, _, err := l.HarmonizeFeatureTables(strings.NewReader("gene,a\ng1,1\n"),
		strings.NewReader("metabolite,b\nm1,1\n"))
	assert.ErrorContains(t, err, "no sample columns in common")

	_, _, err = l.HarmonizeFeatureTables(strings.NewReader("gene,a\ng1,x\n"),
		strings.NewReader("metabolite,a\nm1,1\n"))
	assert.ErrorContains(t, err, "line 2")

	_, _, err = l.HarmonizeFeatureTables(strings.NewReader("name,a\ng1,1\n"),
		strings.NewReader("metabolite,a\nm1,1\n"))
	assert.Error(t, err)
}

func TestLoadFeatureTablesFromFiles(t *testing.T) {
	dir := t.TempDir()
	tp := writeFile(t, dir, "transcripts.csv", "feature,s1\ng1,1\ng2,3\n")
	mp := writeFile(t, dir, "metabolites.csv", "metabolite,s1\nm1,2\n")
	l := NewLoader(zaptest.NewLogger(t))

	tt, mt, err := l.LoadFeatureTables(tp, mp)
	require.NoError(t, err)
	assert.Equal(t, 2, tt.Len())
	row, _ := mt.Row("m1")
	assert.Equal(t, []float64{0}, row)
}

func TestLoadCoexpressionEdges(t *testing.T) {
	dir := t.TempDir()
	l := NewLoader(zaptest.NewLogger(t))

	path := writeFile(t, dir, "coex.csv", "gene1,gene2,edgeweight\ng1,g2,0.9\ng2,g3, 0.25\n")
	edges, err := l.LoadCoexpressionEdges(path)
	require.NoError(t, err)
	assert.Equal(t, []datatypes.CoexpressionEdge{
		{Gene1: "g1", Gene2: "g2", EdgeWeight: 0.9},
		{Gene1: "g2", Gene2: "g3", EdgeWeight: 0.25},
	}, edges)

	empty := writeFile(t, dir, "empty.csv", "gene1,gene2,edgeweight\n")
	edges, err = l.LoadCoexpressionEdges(empty)
	require.NoError(t, err)
	assert.NotNil(t, edges)
	assert.Empty(t, edges)

	_, err = l.LoadCoexpressionEdges(filepath.Join(dir, "nope.csv"))
	assert.Error(t, err)
}

func TestLoadAnchorList(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "targeted.csv",
		"ID,metabolites,genes\nT1,\"m1, m2\",g1\nT2,\"m2, m3\",g2\nT3,,g3\n")
	l := NewLoader(zaptest.NewLogger(t))

	anchors, err := l.LoadAnchorList(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2", "m3"}, anchors)
}
