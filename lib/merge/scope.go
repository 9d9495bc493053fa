package merge

import (
	"github.com/kpaschen/fcmerge/lib/datatypes"
)

// selectDecayRate restricts clusters to one upstream clustering run.
// A decay rate of 0 means no restriction.
func selectDecayRate(clusters []datatypes.FeatureCluster, decayRate int) ([]datatypes.FeatureCluster, error) {
	if decayRate == 0 {
		if len(clusters) == 0 {
			return nil, EmptyInputError{DecayRate: decayRate}
		}
		return clusters, nil
	}
	ret := make([]datatypes.FeatureCluster, 0, len(clusters))
	for _, c := range clusters {
		if c.SourceDecayRate == decayRate {
			ret = append(ret, c)
		}
	}
	if len(ret) == 0 {
		return nil, EmptyInputError{DecayRate: decayRate}
	}
	return ret, nil
}
