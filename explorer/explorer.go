package explorer

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	explorerlib "github.com/kpaschen/fcmerge/lib/explorer"
	"go.uber.org/zap"
)

// Types for the REST API
type tableListResponse struct {
	Tables []explorerlib.TableInfo `json:"tables"`
}

type tableResponse struct {
	Name     string                    `json:"name"`
	Kind     string                    `json:"kind"`
	Columns  []string                  `json:"columns"`
	Clusters []explorerlib.ClusterView `json:"clusters"`
}

type featureResponse struct {
	Feature  string                    `json:"feature"`
	Clusters []explorerlib.ClusterView `json:"clusters"`
}

// A TableExplorer serves the stored merge results over HTTP.
type TableExplorer struct {
	FilenameBase string
	tables       *explorerlib.ParquetExplorer
	logger       *zap.Logger
}

func NewTableExplorer(filenameBase string, logger *zap.Logger) *TableExplorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TableExplorer{
		FilenameBase: filenameBase,
		tables:       explorerlib.NewParquetExplorer(filenameBase, logger),
		logger:       logger,
	}
}

// Router registers all explorer endpoints on a new router.
func (c *TableExplorer) Router() *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/tables", c.GetTables).Methods("GET")
	router.HandleFunc("/tables/{table}", c.GetTable).Methods("GET")
	router.HandleFunc("/tables/{table}/clusters/{id}", c.GetCluster).Methods("GET")
	router.HandleFunc("/tables/{table}/features/{feature}", c.GetFeature).Methods("GET")
	return router
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func (c *TableExplorer) writeError(w http.ResponseWriter, err error) {
	var notFound explorerlib.NotFoundError
	if errors.As(err, &notFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	c.logger.Warn("explorer request failed", zap.Error(err))
	http.Error(w, err.Error(), http.StatusBadRequest)
}

func (c *TableExplorer) GetTables(w http.ResponseWriter, r *http.Request) {
	tables, err := c.tables.ListTables()
	if err != nil {
		c.logger.Error("failed to list tables", zap.String("dir", c.FilenameBase), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, tableListResponse{Tables: tables})
}

func (c *TableExplorer) GetTable(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["table"]
	table, err := c.tables.ReadTable(name)
	if err != nil {
		c.writeError(w, err)
		return
	}
	writeJSON(w, tableResponse{
		Name:     table.Name,
		Kind:     string(table.Kind),
		Columns:  table.Columns,
		Clusters: explorerlib.Clusters(table),
	})
}

func (c *TableExplorer) GetCluster(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	cluster, err := c.tables.LookupCluster(vars["table"], vars["id"])
	if err != nil {
		c.writeError(w, err)
		return
	}
	writeJSON(w, cluster)
}

// GetFeature lists the merged clusters a gene or metabolite ended up in.
func (c *TableExplorer) GetFeature(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	clusters, err := c.tables.ClustersWithFeature(vars["table"], vars["feature"])
	if err != nil {
		c.writeError(w, err)
		return
	}
	writeJSON(w, featureResponse{Feature: vars["feature"], Clusters: clusters})
}
