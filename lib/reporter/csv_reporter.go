package reporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/kpaschen/fcmerge/lib/datatypes"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// CsvReporter writes every table to <directory>/<table name>.csv with a
// header line.
type CsvReporter struct {
	filenameBase string
	logger       *zap.Logger
}

func NewCsvReporter(filenameBase string, logger *zap.Logger) (*CsvReporter, error) {
	if err := os.MkdirAll(filenameBase, 0750); err != nil {
		return nil, fmt.Errorf("creating results directory: %w", err)
	}
	return &CsvReporter{filenameBase: filenameBase, logger: logger}, nil
}

func writeCsv(path string, header []string, rows [][]string) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0640)
	if err != nil {
		return err
	}
	defer file.Close()
	writer := csv.NewWriter(file)
	if err = writer.Write(header); err != nil {
		return err
	}
	for i, record := range rows {
		if err = writer.Write(record); err != nil {
			return err
		}
		if i%1000 == 999 {
			writer.Flush()
			if err = writer.Error(); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

func (c *CsvReporter) Store(_ context.Context, table *datatypes.Table) error {
	path := filepath.Join(c.filenameBase, table.Name+".csv")
	if err := writeCsv(path, table.Columns, table.Rows); err != nil {
		return fmt.Errorf("writing csv table %s: %w", table.Name, err)
	}
	c.logger.Info("stored table", zap.String("table", table.Name),
		zap.String("path", path), zap.Int("rows", len(table.Rows)))
	return nil
}

func (c *CsvReporter) Close() error {
	// This reporter does no internal buffering.
	return nil
}

// WriteAssociationMatrix dumps a labeled association matrix as CSV: a
// header of cluster ids, then one row per cluster starting with its id.
func WriteAssociationMatrix(path string, ids []string, m mat.Symmetric) error {
	n := m.SymmetricDim()
	if len(ids) != n {
		return fmt.Errorf("association matrix has %d rows but %d ids were given", n, len(ids))
	}
	header := make([]string, 0, n+1)
	header = append(header, "")
	header = append(header, ids...)
	rows := make([][]string, n)
	for i := 0; i < n; i++ {
		record := make([]string, 0, n+1)
		record = append(record, ids[i])
		for j := 0; j < n; j++ {
			record = append(record, strconv.FormatFloat(m.At(i, j), 'f', 6, 64))
		}
		rows[i] = record
	}
	return writeCsv(path, header, rows)
}
