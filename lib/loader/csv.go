// Package loader reads cluster tables, feature tables, coexpression edges
// and targeted anchor lists from CSV files and harmonizes them for merging.
package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

type Loader struct {
	logger *zap.Logger
}

func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{logger: logger}
}

// csvTable is a CSV file read into memory with its header indexed.
type csvTable struct {
	name    string
	header  []string
	columns map[string]int
	records [][]string
}

func readCsv(name string, r io.Reader) (*csvTable, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s has no header line", name)
	}
	t := &csvTable{
		name:    name,
		header:  records[0],
		columns: make(map[string]int, len(records[0])),
		records: records[1:],
	}
	for i, h := range t.header {
		t.columns[strings.TrimSpace(h)] = i
	}
	return t, nil
}

func readCsvFile(path string) (*csvTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return readCsv(path, file)
}

// column returns the index of the first of names present in the header.
func (t *csvTable) column(names ...string) (int, error) {
	for _, n := range names {
		if i, ok := t.columns[n]; ok {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%s has none of the columns %v", t.name, names)
}

func (t *csvTable) hasColumn(name string) bool {
	_, ok := t.columns[name]
	return ok
}
