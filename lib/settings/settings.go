// Package settings contains all the parameters for the cluster merging algorithms.
package settings

import (
	"fmt"
	"runtime"
)

const (
	METHOD_OVERLAP        = "overlap"
	METHOD_FINGERPRINTING = "fingerprinting"
	METHOD_COEXPRESSION   = "coexpression"

	STORE_PARQUET = "parquet"
	STORE_CSV     = "csv"
	STORE_KAFKA   = "kafka"
	STORE_REDIS   = "redis"
	STORE_NONE    = "none" // for tests

	DEFAULT_THRESHOLD       = 0.5
	DEFAULT_PRUNE_THRESHOLD = 0.001
)

// MergeSettings is handed by value to every merge call. Nothing in here
// survives from one invocation to the next.
type MergeSettings struct {
	// Selects which upstream clustering run to operate on. 0 means unset.
	DecayRate int `mapstructure:"decay_rate"`

	// One of the METHOD_ constants.
	Method string `mapstructure:"method"`

	// Similarity or edge weight cutoff, in [0,1]. 0 is a valid cutoff, so
	// unset is nil.
	Threshold *float64 `mapstructure:"threshold"`

	// MCL granularity. Must be > 1.
	Inflation float64 `mapstructure:"inflation"`
	// MCL expansion power.
	Expansion int `mapstructure:"expansion"`
	// Upper bound on MCL iterations.
	MaxIterations int `mapstructure:"max_iterations"`
	// Matrix entries below this value are set to zero after inflation.
	// 0 turns pruning off; nil means the default.
	PruneThreshold *float64 `mapstructure:"prune_threshold"`

	// Size of the worker pool for pairwise computations.
	Workers int `mapstructure:"workers"`

	// Overrides the metabolite universe as merge anchors when non-empty.
	AnchorFeatures []string `mapstructure:"anchor_features"`

	// Where the table store puts its output.
	ResultsDirectory string `mapstructure:"results_directory"`
	Store            string `mapstructure:"store"`
	KafkaURL         string `mapstructure:"kafka_url"`
	KafkaTopic       string `mapstructure:"kafka_topic"`
	RedisAddress     string `mapstructure:"redis_address"`

	// Number of rows per row group in Parquet.
	// This is an int64 because the parquet library takes that type.
	MaxRowsPerRowGroup int64 `mapstructure:"max_rows_per_row_group"`

	// If set, the fingerprint merger writes the association matrix here.
	// The file grows with the square of the cluster count.
	AssociationMatrixFile string `mapstructure:"association_matrix_file"`
}

// Float64 returns a pointer to v, for the optional fields of MergeSettings.
func Float64(v float64) *float64 {
	return &v
}

// ThresholdValue is the similarity cutoff, or the default if none is set.
func (s MergeSettings) ThresholdValue() float64 {
	if s.Threshold == nil {
		return DEFAULT_THRESHOLD
	}
	return *s.Threshold
}

func (s MergeSettings) PruneThresholdValue() float64 {
	if s.PruneThreshold == nil {
		return DEFAULT_PRUNE_THRESHOLD
	}
	return *s.PruneThreshold
}

func (s MergeSettings) ComputeSettingsFields() MergeSettings {
	if s.Method == "" {
		s.Method = METHOD_OVERLAP
	}
	if s.Threshold == nil {
		s.Threshold = Float64(DEFAULT_THRESHOLD)
	}
	if s.Inflation == 0.0 {
		s.Inflation = 2.0
	}
	if s.Expansion == 0 {
		s.Expansion = 2
	}
	if s.MaxIterations == 0 {
		s.MaxIterations = 100
	}
	if s.PruneThreshold == nil {
		s.PruneThreshold = Float64(DEFAULT_PRUNE_THRESHOLD)
	}
	if s.Workers <= 0 {
		s.Workers = runtime.NumCPU()
	}
	if s.Store == "" {
		s.Store = STORE_PARQUET
	}
	if s.KafkaTopic == "" {
		s.KafkaTopic = "fcmerge_tables"
	}
	if s.MaxRowsPerRowGroup == 0 {
		s.MaxRowsPerRowGroup = 100000
	}
	return s
}

// ParameterError reports a tunable that is out of range.
type ParameterError struct {
	Name  string
	Value any
	Want  string
}

func (e ParameterError) Error() string {
	return fmt.Sprintf("invalid value %v for parameter %s: must be %s", e.Value, e.Name, e.Want)
}

// Validate checks the numeric tunables. The method string is checked at
// dispatch time so that callers get the merge package's error type.
func (s MergeSettings) Validate() error {
	if t := s.ThresholdValue(); t < 0.0 || t > 1.0 {
		return ParameterError{Name: "threshold", Value: t, Want: "in [0,1]"}
	}
	if p := s.PruneThresholdValue(); p < 0.0 {
		return ParameterError{Name: "prune_threshold", Value: p, Want: ">= 0"}
	}
	if s.Inflation <= 1.0 {
		return ParameterError{Name: "inflation", Value: s.Inflation, Want: "> 1"}
	}
	if s.Expansion < 2 {
		return ParameterError{Name: "expansion", Value: s.Expansion, Want: ">= 2"}
	}
	if s.DecayRate < 0 {
		return ParameterError{Name: "decay_rate", Value: s.DecayRate, Want: ">= 0"}
	}
	switch s.Store {
	case STORE_PARQUET, STORE_CSV, STORE_KAFKA, STORE_REDIS, STORE_NONE:
	default:
		return ParameterError{Name: "store", Value: s.Store, Want: "one of parquet, csv, kafka, redis"}
	}
	return nil
}

// DecayRateLabel is the Source tag used by the cluster tables, e.g. DR_25.
func DecayRateLabel(decayRate int) string {
	return fmt.Sprintf("DR_%d", decayRate)
}
