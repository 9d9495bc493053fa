package reporter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kpaschen/fcmerge/lib/datatypes"
	"github.com/parquet-go/parquet-go"
	"go.uber.org/zap"
)

const (
	PARQUET_SUFFIX = ".pq"

	metadataKind = "fcmerge.kind"
	metadataName = "fcmerge.table"
)

// Row types, one per table kind. Member lists are stored the way they
// appear in the table, as joined strings.
type OverlapRow struct {
	ID          string `parquet:"ID"`
	Metabolites string `parquet:"Metabolites,optional,zstd"`
	Genes       string `parquet:"Genes,optional,zstd"`
}

type FingerprintRow struct {
	Cluster     string `parquet:"Cluster,zstd"`
	Metabolites string `parquet:"metabolites,optional,zstd"`
	Genes       string `parquet:"genes,optional,zstd"`
}

type CoexpressionRow struct {
	ID      string `parquet:"ID"`
	Members string `parquet:"Members,optional,zstd"`
}

// ParquetReporter writes every table to <directory>/<table name>.pq.
type ParquetReporter struct {
	filenameBase       string
	maxRowsPerRowGroup int64
	logger             *zap.Logger
}

func NewParquetReporter(filenameBase string, maxRows int64, logger *zap.Logger) (*ParquetReporter, error) {
	if err := os.MkdirAll(filenameBase, 0750); err != nil {
		return nil, fmt.Errorf("creating results directory: %w", err)
	}
	if maxRows <= 0 {
		maxRows = 100000
	}
	return &ParquetReporter{
		filenameBase:       filenameBase,
		maxRowsPerRowGroup: maxRows,
		logger:             logger,
	}, nil
}

func writeRows[T any](file io.Writer, rows []T, options ...parquet.WriterOption) error {
	writer := parquet.NewGenericWriter[T](file, options...)
	if _, err := writer.Write(rows); err != nil {
		writer.Close()
		return err
	}
	return writer.Close()
}

func (r *ParquetReporter) Store(_ context.Context, table *datatypes.Table) error {
	path := filepath.Join(r.filenameBase, table.Name+PARQUET_SUFFIX)
	// Write to a temporary file first so readers never see a partial table.
	tmp := path + ".tmp"
	file, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0640)
	if err != nil {
		return err
	}
	options := []parquet.WriterOption{
		parquet.MaxRowsPerRowGroup(r.maxRowsPerRowGroup),
		parquet.KeyValueMetadata(metadataKind, string(table.Kind)),
		parquet.KeyValueMetadata(metadataName, table.Name),
	}

	switch table.Kind {
	case datatypes.KIND_OVERLAP:
		err = writeRows(file, OverlapRows(table), options...)
	case datatypes.KIND_FINGERPRINT:
		err = writeRows(file, FingerprintRows(table), options...)
	case datatypes.KIND_COEXPRESSION:
		err = writeRows(file, CoexpressionRows(table), options...)
	default:
		err = fmt.Errorf("unknown table kind %q", table.Kind)
	}
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing parquet table %s: %w", table.Name, err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return err
	}
	r.logger.Info("stored table", zap.String("table", table.Name),
		zap.String("path", path), zap.Int("rows", len(table.Rows)))
	return nil
}

func (r *ParquetReporter) Close() error {
	return nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func OverlapRows(table *datatypes.Table) []OverlapRow {
	ret := make([]OverlapRow, len(table.Rows))
	for i, row := range table.Rows {
		ret[i] = OverlapRow{ID: cell(row, 0), Metabolites: cell(row, 1), Genes: cell(row, 2)}
	}
	return ret
}

func FingerprintRows(table *datatypes.Table) []FingerprintRow {
	ret := make([]FingerprintRow, len(table.Rows))
	for i, row := range table.Rows {
		ret[i] = FingerprintRow{Cluster: cell(row, 0), Metabolites: cell(row, 1), Genes: cell(row, 2)}
	}
	return ret
}

func CoexpressionRows(table *datatypes.Table) []CoexpressionRow {
	ret := make([]CoexpressionRow, len(table.Rows))
	for i, row := range table.Rows {
		ret[i] = CoexpressionRow{ID: cell(row, 0), Members: cell(row, 1)}
	}
	return ret
}

func readRows[T any](file *parquet.File) ([]T, error) {
	reader := parquet.NewGenericReader[T](file)
	defer reader.Close()
	ret := make([]T, 0, file.NumRows())
	buffer := make([]T, 100)
	for {
		n, err := reader.Read(buffer)
		ret = append(ret, buffer[:n]...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return ret, nil
			}
			return nil, err
		}
	}
}

// ReadParquetTable reads a table written by ParquetReporter back into
// memory. The table kind comes from the file metadata.
func ReadParquetTable(path string) (*datatypes.Table, error) {
	pqfile, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer pqfile.Close()
	stat, err := pqfile.Stat()
	if err != nil {
		return nil, err
	}
	file, err := parquet.OpenFile(pqfile, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("opening parquet table %s: %w", path, err)
	}

	kind, _ := file.Lookup(metadataKind)
	name, ok := file.Lookup(metadataName)
	if !ok {
		name = strings.TrimSuffix(filepath.Base(path), PARQUET_SUFFIX)
	}
	table := &datatypes.Table{Name: name, Kind: datatypes.TableKind(kind)}

	switch table.Kind {
	case datatypes.KIND_OVERLAP:
		rows, err := readRows[OverlapRow](file)
		if err != nil {
			return nil, err
		}
		table.Columns = []string{"ID", "Metabolites", "Genes"}
		for _, row := range rows {
			table.Rows = append(table.Rows, []string{row.ID, row.Metabolites, row.Genes})
		}
	case datatypes.KIND_FINGERPRINT:
		rows, err := readRows[FingerprintRow](file)
		if err != nil {
			return nil, err
		}
		table.Columns = []string{"Cluster", "metabolites", "genes"}
		for _, row := range rows {
			table.Rows = append(table.Rows, []string{row.Cluster, row.Metabolites, row.Genes})
		}
	case datatypes.KIND_COEXPRESSION:
		rows, err := readRows[CoexpressionRow](file)
		if err != nil {
			return nil, err
		}
		table.Columns = []string{"ID", "Members"}
		for _, row := range rows {
			table.Rows = append(table.Rows, []string{row.ID, row.Members})
		}
	default:
		return nil, fmt.Errorf("parquet file %s has unknown table kind %q", path, kind)
	}
	if table.Rows == nil {
		table.Rows = [][]string{}
	}
	return table, nil
}
