package loader

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kpaschen/fcmerge/lib/datatypes"
	"go.uber.org/zap"
)

// LoadCoexpressionEdges reads the gene1,gene2,edgeweight edge table.
// An edge table without data rows yields an empty, non-nil slice.
func (l *Loader) LoadCoexpressionEdges(path string) ([]datatypes.CoexpressionEdge, error) {
	t, err := readCsvFile(path)
	if err != nil {
		return nil, err
	}
	g1, err := t.column("gene1")
	if err != nil {
		return nil, err
	}
	g2, err := t.column("gene2")
	if err != nil {
		return nil, err
	}
	w, err := t.column("edgeweight")
	if err != nil {
		return nil, err
	}
	ret := make([]datatypes.CoexpressionEdge, 0, len(t.records))
	for line, record := range t.records {
		weight, err := strconv.ParseFloat(strings.TrimSpace(record[w]), 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line+2, err)
		}
		ret = append(ret, datatypes.CoexpressionEdge{
			Gene1:      record[g1],
			Gene2:      record[g2],
			EdgeWeight: weight,
		})
	}
	l.logger.Info("loaded coexpression edges", zap.String("path", path), zap.Int("edges", len(ret)))
	return ret, nil
}

// LoadAnchorList reads a targeted list with columns ID, metabolites and
// genes, where metabolites holds ", " separated identifiers. The result is
// deduplicated and keeps first-seen order.
func (l *Loader) LoadAnchorList(path string) ([]string, error) {
	t, err := readCsvFile(path)
	if err != nil {
		return nil, err
	}
	col, err := t.column("metabolites")
	if err != nil {
		return nil, err
	}
	seen := datatypes.NewFeatureSet()
	ret := make([]string, 0)
	for _, record := range t.records {
		for _, m := range strings.Split(record[col], ",") {
			m = strings.TrimSpace(m)
			if m == "" || seen.Contains(m) {
				continue
			}
			seen.Add(m)
			ret = append(ret, m)
		}
	}
	l.logger.Info("loaded targeted anchor list", zap.String("path", path), zap.Int("anchors", len(ret)))
	return ret, nil
}
