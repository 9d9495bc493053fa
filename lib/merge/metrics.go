package merge

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mergeRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fcmerge_merge_runs_total",
			Help: "Total number of merge runs.",
		},
		[]string{"method"},
	)
	mergeFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fcmerge_merge_failures_total",
			Help: "Total number of merge runs that ended in an error.",
		},
		[]string{"method"},
	)
	inputClusters = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fcmerge_input_clusters",
			Help: "number of clusters given to the last merge run",
		},
		[]string{"method"},
	)
	mergedClusters = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fcmerge_merged_clusters",
			Help: "number of merged clusters produced by the last merge run",
		},
		[]string{"method"},
	)
	mergeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:                            "fcmerge_merge_duration_milliseconds",
			Help:                            "Duration of merge runs.",
			Buckets:                         prometheus.ExponentialBuckets(1, 4, 10),
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  10,
			NativeHistogramMinResetDuration: 1 * time.Hour,
		},
	)
	mclIterations = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fcmerge_mcl_iterations",
			Help:    "Number of MCL iterations per fingerprint merge.",
			Buckets: prometheus.LinearBuckets(5, 5, 20),
		},
	)
)

func init() {
	prometheus.MustRegister(mergeRuns)
	prometheus.MustRegister(mergeFailures)
	prometheus.MustRegister(inputClusters)
	prometheus.MustRegister(mergedClusters)
	prometheus.MustRegister(mergeDuration)
	prometheus.MustRegister(mclIterations)
}
