// Package merge consolidates overlapping gene/metabolite clusters from
// upstream clustering runs into merged clusters, using one of three
// methods: shared anchor features, fingerprint similarity, or external
// coexpression evidence.
package merge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kpaschen/fcmerge/lib/datatypes"
	"github.com/kpaschen/fcmerge/lib/settings"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// A Merger runs merges with a fixed set of parameters. It holds no state
// between calls and may be used from several goroutines.
type Merger struct {
	config settings.MergeSettings
	logger *zap.Logger
}

func NewMerger(config settings.MergeSettings, logger *zap.Logger) *Merger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Merger{
		config: config.ComputeSettingsFields(),
		logger: logger,
	}
}

func (m *Merger) Settings() settings.MergeSettings {
	return m.config
}

// emptyResult turns EmptyInputError into an empty result and passes every
// other error through.
func (m *Merger) emptyResult(err error) ([]datatypes.MergedCluster, error) {
	var empty EmptyInputError
	if errors.As(err, &empty) {
		m.logger.Warn("nothing to merge", zap.Error(err))
		return []datatypes.MergedCluster{}, nil
	}
	return nil, err
}

// Inputs bundles everything a merge run may read. Which fields are needed
// depends on the method: overlap only needs Clusters and the metabolite
// universe, fingerprinting needs both feature tables, coexpression needs
// the edge table.
type Inputs struct {
	Clusters     []datatypes.FeatureCluster
	Transcripts  *datatypes.FeatureTable
	Metabolites  *datatypes.FeatureTable
	Coexpression []datatypes.CoexpressionEdge
}

// Output is the result of one merge run.
type Output struct {
	RunID  string
	Method string
	Merged []datatypes.MergedCluster
	// The table to hand to a store.
	Table *datatypes.Table
	// Only set by the fingerprinting method.
	AssociationMatrix *mat.SymDense
	MatrixIDs         []string
}

// anchors returns the explicit anchor list if one is configured, and the
// metabolite universe otherwise.
func (m *Merger) anchors(metabolites *datatypes.FeatureTable) datatypes.FeatureSet {
	if len(m.config.AnchorFeatures) > 0 {
		return datatypes.NewFeatureSet(m.config.AnchorFeatures...)
	}
	return metabolites.Universe()
}

// Run validates the settings and dispatches to the configured merger.
func (m *Merger) Run(ctx context.Context, in Inputs) (*Output, error) {
	method := m.config.Method
	out := &Output{RunID: uuid.NewString(), Method: method}
	logger := m.logger.With(zap.String("runId", out.RunID), zap.String("method", method))

	if err := m.config.Validate(); err != nil {
		return nil, err
	}

	mergeRuns.WithLabelValues(method).Inc()
	inputClusters.WithLabelValues(method).Set(float64(len(in.Clusters)))
	start := time.Now()

	var err error
	switch method {
	case settings.METHOD_OVERLAP:
		out.Merged, err = m.MergeByOverlap(in.Clusters, m.anchors(in.Metabolites), in.Metabolites.Universe())
		if err == nil {
			out.Table = OverlapTable(out.Merged, m.config.DecayRate)
		}
	case settings.METHOD_FINGERPRINTING:
		var res *FingerprintResult
		res, err = m.MergeByFingerprint(ctx, in.Clusters, in.Transcripts, in.Metabolites)
		if err == nil {
			out.Merged = res.Merged
			out.AssociationMatrix = res.AssociationMatrix
			out.MatrixIDs = res.MatrixIDs
			out.Table = FingerprintTable(out.Merged)
		}
	case settings.METHOD_COEXPRESSION:
		out.Merged, err = m.MergeByCoexpression(ctx, in.Clusters, in.Coexpression, in.Metabolites.Universe())
		if err == nil {
			out.Table = CoexpressionTable(out.Merged, m.config.DecayRate)
		}
	default:
		err = InvalidMergeMethodError{Method: method}
	}

	if err != nil {
		mergeFailures.WithLabelValues(method).Inc()
		logger.Error("merge failed", zap.Error(err))
		return nil, fmt.Errorf("merge run %s: %w", out.RunID, err)
	}

	elapsed := time.Since(start)
	mergeDuration.Observe(float64(elapsed.Milliseconds()))
	mergedClusters.WithLabelValues(method).Set(float64(len(out.Merged)))
	logger.Info("merge run complete",
		zap.Int("decayRate", m.config.DecayRate),
		zap.Int("inputClusters", len(in.Clusters)),
		zap.Int("mergedClusters", len(out.Merged)),
		zap.String("table", out.Table.Name),
		zap.Duration("elapsed", elapsed))
	return out, nil
}
