package merge

import (
	"fmt"
)

// MissingFeatureError means a cluster references a feature that is in
// neither feature table. The cluster table and the feature tables are out
// of sync, so the run is aborted.
type MissingFeatureError struct {
	ClusterID string
	Feature   string
}

func (e MissingFeatureError) Error() string {
	return fmt.Sprintf("feature %s of cluster %s is not in the transcript or the metabolite table",
		e.Feature, e.ClusterID)
}

// MissingEvidenceError means a merge method that needs an external edge
// table was called without one.
type MissingEvidenceError struct {
	Method string
	Table  string
}

func (e MissingEvidenceError) Error() string {
	return fmt.Sprintf("merge method %s requires a %s table but none was supplied", e.Method, e.Table)
}

type InvalidMergeMethodError struct {
	Method string
}

func (e InvalidMergeMethodError) Error() string {
	return fmt.Sprintf("unsupported merge method %q (want overlap, fingerprinting or coexpression)", e.Method)
}

// EmptyInputError means there were no clusters for the requested decay
// rate. The mergers turn it into an empty result.
type EmptyInputError struct {
	DecayRate int
}

func (e EmptyInputError) Error() string {
	return fmt.Sprintf("no clusters found for decay rate %d", e.DecayRate)
}
