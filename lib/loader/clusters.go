package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/kpaschen/fcmerge/lib/datatypes"
	"go.uber.org/zap"
)

var decayRatePattern = regexp.MustCompile(`DR_(\d+)`)

// ParseDecayRate extracts n from the first DR_<n> tag in s.
func ParseDecayRate(s string) (int, bool) {
	match := decayRatePattern.FindStringSubmatch(s)
	if match == nil {
		return 0, false
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func splitMembers(s string) []string {
	return strings.Fields(s)
}

// LoadClusterTable reads a combined cluster table with the columns
// ID, Members (space separated) and Source (DR_<n>).
func (l *Loader) LoadClusterTable(path string) ([]datatypes.FeatureCluster, error) {
	t, err := readCsvFile(path)
	if err != nil {
		return nil, err
	}
	idCol, err := t.column("ID")
	if err != nil {
		return nil, err
	}
	membersCol, err := t.column("Members")
	if err != nil {
		return nil, err
	}
	sourceCol, err := t.column("Source")
	if err != nil {
		return nil, err
	}

	ret := make([]datatypes.FeatureCluster, 0, len(t.records))
	for line, record := range t.records {
		dr, ok := ParseDecayRate(record[sourceCol])
		if !ok {
			return nil, fmt.Errorf("%s line %d: source %q is not of the form DR_<n>",
				path, line+2, record[sourceCol])
		}
		ret = append(ret, datatypes.FeatureCluster{
			ID:              record[idCol],
			Members:         splitMembers(record[membersCol]),
			SourceDecayRate: dr,
		})
	}
	l.logger.Info("loaded cluster table", zap.String("path", path), zap.Int("clusters", len(ret)))
	return ret, nil
}

// LoadClusterDirectory reads every CSV file in dir whose name carries a
// DR_<n> tag, in lexical file name order. Files with an ID column keep
// their ids; otherwise ids are built from a running counter, the decay
// rate and the Cluster column, e.g. cluster007_DR_25_3.
func (l *Loader) LoadClusterDirectory(dir string) ([]datatypes.FeatureCluster, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".csv" {
			continue
		}
		names = append(names, e.Name())
	}
	slices.Sort(names)

	ret := make([]datatypes.FeatureCluster, 0)
	for _, name := range names {
		dr, ok := ParseDecayRate(name)
		if !ok {
			l.logger.Warn("skipping cluster file without decay rate tag", zap.String("file", name))
			continue
		}
		path := filepath.Join(dir, name)
		t, err := readCsvFile(path)
		if err != nil {
			return nil, err
		}
		membersCol, err := t.column("Members")
		if err != nil {
			return nil, err
		}
		idCol, clusterCol := -1, -1
		if t.hasColumn("ID") {
			idCol, _ = t.column("ID")
		} else if clusterCol, err = t.column("Cluster"); err != nil {
			return nil, err
		}
		for _, record := range t.records {
			var id string
			if idCol >= 0 {
				id = record[idCol]
			} else {
				id = fmt.Sprintf("cluster%03d_DR_%d_%s", len(ret)+1, dr, record[clusterCol])
			}
			ret = append(ret, datatypes.FeatureCluster{
				ID:              id,
				Members:         splitMembers(record[membersCol]),
				SourceDecayRate: dr,
			})
		}
		l.logger.Debug("loaded cluster file", zap.String("file", name),
			zap.Int("decayRate", dr), zap.Int("clusters", len(t.records)))
	}
	if len(ret) == 0 {
		return nil, fmt.Errorf("no clusters found in %s", dir)
	}
	l.logger.Info("loaded cluster directory", zap.String("dir", dir),
		zap.Int("files", len(names)), zap.Int("clusters", len(ret)))
	return ret, nil
}
