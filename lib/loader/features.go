package loader

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/kpaschen/fcmerge/lib/datatypes"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

const FEATURE_COLUMN = "feature"

// rawFeatureTable is a feature CSV with its key column renamed to feature.
type rawFeatureTable struct {
	*csvTable
	keyColumn int
}

func readFeatureCsv(t *csvTable, keyColumn string) (*rawFeatureTable, error) {
	key, err := t.column(keyColumn, FEATURE_COLUMN)
	if err != nil {
		return nil, err
	}
	delete(t.columns, t.header[key])
	t.columns[FEATURE_COLUMN] = key
	return &rawFeatureTable{csvTable: t, keyColumn: key}, nil
}

// commonSamples returns the sorted labels both tables share, minus the
// feature column.
func commonSamples(a, b *rawFeatureTable) []string {
	ret := make([]string, 0)
	for label := range a.columns {
		if label == FEATURE_COLUMN {
			continue
		}
		if _, ok := b.columns[label]; ok {
			ret = append(ret, label)
		}
	}
	slices.Sort(ret)
	return ret
}

// project parses the given sample columns into a feature table and z-scores
// each sample column across features.
func (t *rawFeatureTable) project(samples []string) (*datatypes.FeatureTable, error) {
	n := len(t.records)
	columns := make([][]float64, len(samples))
	for s, sample := range samples {
		idx := t.columns[sample]
		columns[s] = make([]float64, n)
		for i, record := range t.records {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[idx]), 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d, column %s: %w", t.name, i+2, sample, err)
			}
			columns[s][i] = v
		}
		ZScore(columns[s])
	}

	ret := datatypes.NewFeatureTable(samples)
	for i, record := range t.records {
		row := make([]float64, len(samples))
		for s := range samples {
			row[s] = columns[s][i]
		}
		ret.Set(record[t.keyColumn], row)
	}
	return ret, nil
}

// ZScore standardizes x in place using the population standard deviation.
// A constant column becomes all zeros.
func ZScore(x []float64) {
	if len(x) == 0 {
		return
	}
	mean, std := stat.PopMeanStdDev(x, nil)
	for i := range x {
		if std == 0.0 {
			x[i] = 0.0
		} else {
			x[i] = stat.StdScore(x[i], mean, std)
		}
	}
}

// HarmonizeFeatureTables reads a transcript table keyed by gene and a
// metabolite table keyed by metabolite (either may use feature instead),
// keeps the sample columns the two have in common, in sorted order, and
// z-scores every sample column.
func (l *Loader) HarmonizeFeatureTables(transcripts io.Reader, metabolites io.Reader) (
	*datatypes.FeatureTable, *datatypes.FeatureTable, error) {

	tt, err := readCsv("transcript table", transcripts)
	if err != nil {
		return nil, nil, err
	}
	mt, err := readCsv("metabolite table", metabolites)
	if err != nil {
		return nil, nil, err
	}
	return l.harmonize(tt, mt)
}

func (l *Loader) LoadFeatureTables(transcriptPath string, metabolitePath string) (
	*datatypes.FeatureTable, *datatypes.FeatureTable, error) {

	tt, err := readCsvFile(transcriptPath)
	if err != nil {
		return nil, nil, err
	}
	mt, err := readCsvFile(metabolitePath)
	if err != nil {
		return nil, nil, err
	}
	return l.harmonize(tt, mt)
}

func (l *Loader) harmonize(tt *csvTable, mt *csvTable) (*datatypes.FeatureTable, *datatypes.FeatureTable, error) {
	transcripts, err := readFeatureCsv(tt, "gene")
	if err != nil {
		return nil, nil, err
	}
	metabolites, err := readFeatureCsv(mt, "metabolite")
	if err != nil {
		return nil, nil, err
	}

	samples := commonSamples(transcripts, metabolites)
	if len(samples) == 0 {
		return nil, nil, fmt.Errorf("%s and %s have no sample columns in common", tt.name, mt.name)
	}
	dropped := len(tt.header) + len(mt.header) - 2 - 2*len(samples)
	if dropped > 0 {
		l.logger.Warn("dropping sample columns not present in both feature tables",
			zap.Int("dropped", dropped))
	}

	t, err := transcripts.project(samples)
	if err != nil {
		return nil, nil, err
	}
	m, err := metabolites.project(samples)
	if err != nil {
		return nil, nil, err
	}
	l.logger.Info("harmonized feature tables",
		zap.Int("samples", len(samples)),
		zap.Int("transcripts", t.Len()),
		zap.Int("metabolites", m.Len()))
	return t, m, nil
}
