package datatypes

import (
	"encoding/json"
	"slices"
)

// A FeatureCluster is a group of gene and metabolite identifiers produced
// by one upstream clustering run. It is read-only inside this module.
type FeatureCluster struct {
	ID              string
	Members         []string
	SourceDecayRate int
}

// A MergedCluster is the output unit of every merger.
// Metabolites and Genes are disjoint and together hold every member of the
// clusters listed in SourceIDs exactly once.
type MergedCluster struct {
	ID          string
	SourceIDs   []string
	Metabolites []string
	Genes       []string
}

// Members returns metabolites followed by genes.
func (m MergedCluster) Members() []string {
	ret := make([]string, 0, len(m.Metabolites)+len(m.Genes))
	ret = append(ret, m.Metabolites...)
	return append(ret, m.Genes...)
}

// FeatureSet is a set of feature identifiers.
type FeatureSet map[string]struct{}

func NewFeatureSet(features ...string) FeatureSet {
	s := make(FeatureSet, len(features))
	for _, f := range features {
		s[f] = struct{}{}
	}
	return s
}

func (s FeatureSet) Contains(feature string) bool {
	_, ok := s[feature]
	return ok
}

func (s FeatureSet) Add(feature string) {
	s[feature] = struct{}{}
}

// Sorted returns the members of s in lexical order.
func (s FeatureSet) Sorted() []string {
	ret := make([]string, 0, len(s))
	for f := range s {
		ret = append(ret, f)
	}
	slices.Sort(ret)
	return ret
}

// A FeatureTable holds one row of per-sample measurements per feature.
// All rows have len(Samples) entries.
type FeatureTable struct {
	Samples []string
	rows    map[string][]float64
	order   []string
}

func NewFeatureTable(samples []string) *FeatureTable {
	return &FeatureTable{
		Samples: samples,
		rows:    make(map[string][]float64),
	}
}

// Set adds or replaces the row for feature.
func (t *FeatureTable) Set(feature string, values []float64) {
	if _, exists := t.rows[feature]; !exists {
		t.order = append(t.order, feature)
	}
	t.rows[feature] = values
}

func (t *FeatureTable) Row(feature string) ([]float64, bool) {
	if t == nil {
		return nil, false
	}
	row, ok := t.rows[feature]
	return row, ok
}

// Features returns the feature ids in insertion order.
func (t *FeatureTable) Features() []string {
	if t == nil {
		return nil
	}
	return t.order
}

func (t *FeatureTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.order)
}

// Universe returns the set of feature ids in t.
func (t *FeatureTable) Universe() FeatureSet {
	return NewFeatureSet(t.Features()...)
}

// A CoexpressionEdge is one row of the external gene-gene edge table.
type CoexpressionEdge struct {
	Gene1      string  `json:"gene1"`
	Gene2      string  `json:"gene2"`
	EdgeWeight float64 `json:"edgeweight"`
}

// TableKind identifies which merger produced a Table, and with it the
// column layout.
type TableKind string

const (
	KIND_OVERLAP      TableKind = "overlap"
	KIND_FINGERPRINT  TableKind = "fingerprint"
	KIND_COEXPRESSION TableKind = "coexpression"
)

// A Table is what gets handed to the persistence layer: a name plus
// string-valued rows in the column order given by Columns.
type Table struct {
	Name    string
	Kind    TableKind
	Columns []string
	Rows    [][]string
}

func (t *Table) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Name    string     `json:"name"`
		Kind    TableKind  `json:"kind"`
		Columns []string   `json:"columns"`
		Rows    [][]string `json:"rows"`
	}{
		Name:    t.Name,
		Kind:    t.Kind,
		Columns: t.Columns,
		Rows:    t.Rows,
	})
}

func (t *Table) UnmarshalJSON(data []byte) error {
	tt := &struct {
		Name    string     `json:"name"`
		Kind    TableKind  `json:"kind"`
		Columns []string   `json:"columns"`
		Rows    [][]string `json:"rows"`
	}{}
	if err := json.Unmarshal(data, &tt); err != nil {
		return err
	}
	t.Name = tt.Name
	t.Kind = tt.Kind
	t.Columns = tt.Columns
	t.Rows = tt.Rows
	return nil
}
