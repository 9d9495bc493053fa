package explorer

import (
	"time"
)

// TableInfo describes one stored table file.
type TableInfo struct {
	Name     string    `json:"name"`
	Kind     string    `json:"kind"`
	Rows     int       `json:"rows"`
	Modified time.Time `json:"modified"`
}

// A ClusterView is one row of a stored table, with its member lists split
// back out. Members is always set; Metabolites and Genes are only known for
// overlap and fingerprint tables.
type ClusterView struct {
	ID          string   `json:"id"`
	Sources     []string `json:"sources,omitempty"`
	Metabolites []string `json:"metabolites,omitempty"`
	Genes       []string `json:"genes,omitempty"`
	Members     []string `json:"members"`
}

func (c ClusterView) hasMember(feature string) bool {
	for _, m := range c.Members {
		if m == feature {
			return true
		}
	}
	return false
}
