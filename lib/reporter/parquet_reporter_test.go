package reporter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/kpaschen/fcmerge/lib/datatypes"
	"github.com/kpaschen/fcmerge/lib/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testTables() []*datatypes.Table {
	return []*datatypes.Table{
		{
			Name:    "merged_cluster_overlap_metabolites_DR_25",
			Kind:    datatypes.KIND_OVERLAP,
			Columns: []string{"ID", "Metabolites", "Genes"},
			Rows:    [][]string{{"MC_1", "m1", "g1 g2 g3"}, {"MC_2", "", "g4 g5"}},
		},
		{
			Name:    "merged_clusters_fingerprint",
			Kind:    datatypes.KIND_FINGERPRINT,
			Columns: []string{"Cluster", "metabolites", "genes"},
			Rows:    [][]string{{"c1, c2", "m1", "g1, g2"}},
		},
		{
			Name:    "merged_cluster_coex",
			Kind:    datatypes.KIND_COEXPRESSION,
			Columns: []string{"ID", "Members"},
			Rows:    [][]string{},
		},
	}
}

func TestParquetReporterRoundTrip(t *testing.T) {
	dir := t.TempDir()
	r, err := NewParquetReporter(filepath.Join(dir, "results"), 1, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer r.Close()

	for _, table := range testTables() {
		require.NoError(t, r.Store(context.Background(), table))
		path := filepath.Join(dir, "results", table.Name+PARQUET_SUFFIX)
		readBack, err := ReadParquetTable(path)
		require.NoError(t, err)
		assert.Equal(t, table, readBack)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "results"))
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestParquetReporterReplacesTable(t *testing.T) {
	dir := t.TempDir()
	r, err := NewParquetReporter(dir, 100, zaptest.NewLogger(t))
	require.NoError(t, err)

	table := testTables()[0]
	require.NoError(t, r.Store(context.Background(), table))
	table.Rows = table.Rows[:1]
	require.NoError(t, r.Store(context.Background(), table))

	readBack, err := ReadParquetTable(filepath.Join(dir, table.Name+PARQUET_SUFFIX))
	require.NoError(t, err)
	assert.Len(t, readBack.Rows, 1)
}

func TestParquetReporterUnknownKind(t *testing.T) {
	dir := t.TempDir()
	r, err := NewParquetReporter(dir, 100, zaptest.NewLogger(t))
	require.NoError(t, err)
	err = r.Store(context.Background(), &datatypes.Table{Name: "x", Kind: "heatmap"})
	assert.Error(t, err)
	_, statErr := os.Stat(filepath.Join(dir, "x"+PARQUET_SUFFIX))
	assert.True(t, os.IsNotExist(statErr))
}

func TestNewTableStore(t *testing.T) {
	dir := t.TempDir()
	logger := zaptest.NewLogger(t)
	for store, expected := range map[string]any{
		settings.STORE_PARQUET: &ParquetReporter{},
		settings.STORE_CSV:     &CsvReporter{},
		settings.STORE_KAFKA:   &KafkaReporter{},
		settings.STORE_REDIS:   &RedisReporter{},
		settings.STORE_NONE:    &discardStore{},
	} {
		s, err := NewTableStore(settings.MergeSettings{
			Store:            store,
			ResultsDirectory: dir,
			KafkaURL:         "localhost:9092",
			RedisAddress:     "localhost:6379",
		}, logger)
		require.NoError(t, err, store)
		assert.IsType(t, expected, s)
		require.NoError(t, s.Close())
	}

	_, err := NewTableStore(settings.MergeSettings{Store: "sqlite"}, logger)
	assert.Error(t, err)
}
