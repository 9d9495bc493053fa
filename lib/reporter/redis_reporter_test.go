package reporter

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRedisReporter(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	r := NewRedisReporter(mr.Addr(), zaptest.NewLogger(t))
	defer r.Close()
	ctx := context.Background()

	for _, table := range testTables() {
		require.NoError(t, r.Store(ctx, table))
	}
	assert.True(t, mr.Exists(REDIS_KEY_PREFIX+"merged_cluster_coex"))

	names, err := r.Tables(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"merged_cluster_overlap_metabolites_DR_25",
		"merged_clusters_fingerprint",
		"merged_cluster_coex",
	}, names)

	table, err := r.Load(ctx, "merged_cluster_overlap_metabolites_DR_25")
	require.NoError(t, err)
	assert.Equal(t, testTables()[0], table)

	_, err = r.Load(ctx, "missing")
	assert.Error(t, err)
}
