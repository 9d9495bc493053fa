package reporter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gonum.org/v1/gonum/mat"
)

func TestCsvReporter(t *testing.T) {
	dir := t.TempDir()
	r, err := NewCsvReporter(dir, zaptest.NewLogger(t))
	require.NoError(t, err)

	table := testTables()[1]
	require.NoError(t, r.Store(context.Background(), table))
	content, err := os.ReadFile(filepath.Join(dir, "merged_clusters_fingerprint.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Cluster,metabolites,genes\n\"c1, c2\",m1,\"g1, g2\"\n", string(content))
}

func TestWriteAssociationMatrix(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "association.csv")
	m := mat.NewSymDense(2, []float64{1, 0.25, 0.25, 1})

	require.NoError(t, WriteAssociationMatrix(path, []string{"A", "B"}, m))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, ",A,B\nA,1.000000,0.250000\nB,0.250000,1.000000\n", string(content))

	assert.Error(t, WriteAssociationMatrix(path, []string{"A"}, m))
}
