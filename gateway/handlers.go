package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/sqlmcp/logger"
)

// Invoker executes tool calls against a running tool host. The HTTP layer
// never touches the database directly.
type Invoker interface {
	DescribeTable(ctx context.Context, tableName, schema string) (any, error)
	ReadData(ctx context.Context, query string, limit int) (any, error)
}

type API struct {
	invoker Invoker
	log     *logger.Logger
}

func NewAPI(invoker Invoker, log *logger.Logger) *API {
	return &API{invoker: invoker, log: log}
}

type queryRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// GET /api/tables/{table}?schema=
func (a *API) handleDescribeTable(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	if table == "" {
		writeError(w, http.StatusBadRequest, "table name is required")
		return
	}
	schema := r.URL.Query().Get("schema")

	result, err := a.invoker.DescribeTable(r.Context(), table, schema)
	if err != nil {
		a.log.Error(fmt.Sprintf("describe_table call failed: %v", err))
		writeError(w, http.StatusBadGateway, "tool host unavailable")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// POST /api/query
func (a *API) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request body is not valid JSON")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	result, err := a.invoker.ReadData(r.Context(), req.Query, req.Limit)
	if err != nil {
		a.log.Error(fmt.Sprintf("read_data call failed: %v", err))
		writeError(w, http.StatusBadGateway, "tool host unavailable")
		return
	}
	// rejected queries arrive here as ordinary error documents and
	// still serialize as 200: the transport worked, the tool declined
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"status": "error", "message": msg})
}
