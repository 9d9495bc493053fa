// Package explorer reads merge result tables back from a results directory.
package explorer

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/kpaschen/fcmerge/lib/datatypes"
	"github.com/kpaschen/fcmerge/lib/reporter"
	"go.uber.org/zap"
)

// NotFoundError is returned for unknown tables and cluster ids.
type NotFoundError struct {
	What string
	Name string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.What, e.Name)
}

type ParquetExplorer struct {
	filenameBase string
	logger       *zap.Logger
}

func NewParquetExplorer(filenameBase string, logger *zap.Logger) *ParquetExplorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ParquetExplorer{filenameBase: filenameBase, logger: logger}
}

// ListTables returns the tables in the results directory sorted by name.
// Files that cannot be read are skipped.
func (p *ParquetExplorer) ListTables() ([]TableInfo, error) {
	entries, err := os.ReadDir(p.filenameBase)
	if err != nil {
		return nil, err
	}
	ret := make([]TableInfo, 0)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), reporter.PARQUET_SUFFIX) {
			continue
		}
		table, err := reporter.ReadParquetTable(filepath.Join(p.filenameBase, e.Name()))
		if err != nil {
			p.logger.Warn("skipping unreadable table file", zap.String("file", e.Name()), zap.Error(err))
			continue
		}
		info := TableInfo{Name: table.Name, Kind: string(table.Kind), Rows: len(table.Rows)}
		if fi, err := e.Info(); err == nil {
			info.Modified = fi.ModTime().UTC()
		}
		ret = append(ret, info)
	}
	slices.SortFunc(ret, func(a, b TableInfo) int { return strings.Compare(a.Name, b.Name) })
	return ret, nil
}

// ReadTable loads one table by name.
func (p *ParquetExplorer) ReadTable(name string) (*datatypes.Table, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return nil, fmt.Errorf("invalid table name %q", name)
	}
	path := filepath.Join(p.filenameBase, name+reporter.PARQUET_SUFFIX)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, NotFoundError{What: "table", Name: name}
	}
	return reporter.ReadParquetTable(path)
}

func splitList(s string, sep string) []string {
	ret := make([]string, 0)
	for _, part := range strings.Split(s, sep) {
		part = strings.TrimSpace(part)
		if part != "" {
			ret = append(ret, part)
		}
	}
	return ret
}

// Clusters turns the rows of a table into cluster views. Fingerprint
// tables carry no ids, so their rows are numbered MC_1, MC_2, ...
func Clusters(table *datatypes.Table) []ClusterView {
	ret := make([]ClusterView, 0, len(table.Rows))
	for i, row := range table.Rows {
		var c ClusterView
		switch table.Kind {
		case datatypes.KIND_OVERLAP:
			c = ClusterView{ID: row[0], Metabolites: strings.Fields(row[1]), Genes: strings.Fields(row[2])}
		case datatypes.KIND_FINGERPRINT:
			c = ClusterView{
				ID:          fmt.Sprintf("MC_%d", i+1),
				Sources:     splitList(row[0], ","),
				Metabolites: splitList(row[1], ","),
				Genes:       splitList(row[2], ","),
			}
		case datatypes.KIND_COEXPRESSION:
			c = ClusterView{ID: row[0], Members: strings.Fields(row[1])}
		default:
			continue
		}
		if c.Members == nil {
			c.Members = append(append([]string{}, c.Metabolites...), c.Genes...)
		}
		ret = append(ret, c)
	}
	return ret
}

// LookupCluster finds the merged cluster with the given id in a table.
func (p *ParquetExplorer) LookupCluster(tableName string, id string) (*ClusterView, error) {
	table, err := p.ReadTable(tableName)
	if err != nil {
		return nil, err
	}
	for _, c := range Clusters(table) {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, NotFoundError{What: "cluster", Name: id}
}

// ClustersWithFeature returns every merged cluster of the table that
// contains feature.
func (p *ParquetExplorer) ClustersWithFeature(tableName string, feature string) ([]ClusterView, error) {
	table, err := p.ReadTable(tableName)
	if err != nil {
		return nil, err
	}
	ret := make([]ClusterView, 0)
	for _, c := range Clusters(table) {
		if c.hasMember(feature) {
			ret = append(ret, c)
		}
	}
	return ret, nil
}
