package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/textsql/textsql/internal/config"
	"github.com/textsql/textsql/internal/nl2sql"
	"github.com/textsql/textsql/internal/query"
	"github.com/textsql/textsql/internal/render"
)

type queryRequest struct {
	SQL      string `json:"sql"`
	Database string `json:"database"`
	MaxRows  int    `json:"max_rows"`
}

type translateRequest struct {
	Question string `json:"question"`
}

type askRequest struct {
	Question string `json:"question"`
	Database string `json:"database"`
	MaxRows  int    `json:"max_rows"`
}

type askResponse struct {
	Question      string                `json:"question"`
	Database      string                `json:"database"`
	Resolution    nl2sql.Resolution     `json:"resolution"`
	Result        query.ExecutionResult `json:"result"`
	Visualization *render.Visualization `json:"visualization"`
	Message       string                `json:"message"`
}

// handleQuery answers 200 for denied or failing SQL; the failure travels in
// the result body.
func handleQuery(cfg config.Config, deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Executor == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "QUERY_NOT_CONFIGURED", "query executor is not configured", false, nil)
		return
	}

	var request queryRequest
	if err := decodeJSON(r, &request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid query request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(request.SQL) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "SQL_REQUIRED", "sql is required", false, nil)
		return
	}
	_, path, ok := resolveDatabase(cfg, w, r, request.Database)
	if !ok {
		return
	}

	result := deps.Executor.Execute(r.Context(), query.Request{
		SQL:          request.SQL,
		DatabasePath: path,
		MaxRows:      maxRows(cfg, request.MaxRows),
	})
	writeJSON(w, http.StatusOK, result)
}

func handleTranslate(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Resolver == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "TRANSLATE_NOT_CONFIGURED", "question resolver is not configured", false, nil)
		return
	}

	var request translateRequest
	if err := decodeJSON(r, &request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid translation request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(request.Question) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return
	}

	writeJSON(w, http.StatusOK, deps.Resolver.Resolve(r.Context(), request.Question))
}

func handleAsk(cfg config.Config, deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Resolver == nil || deps.Executor == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "ASK_NOT_CONFIGURED", "resolver and executor are required", false, nil)
		return
	}

	var request askRequest
	if err := decodeJSON(r, &request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid ask request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(request.Question) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return
	}
	name, path, ok := resolveDatabase(cfg, w, r, request.Database)
	if !ok {
		return
	}

	resolution := deps.Resolver.Resolve(r.Context(), request.Question)
	result := deps.Executor.Execute(r.Context(), query.Request{
		SQL:          resolution.SQL,
		DatabasePath: path,
		MaxRows:      maxRows(cfg, request.MaxRows),
	})

	message := result.Error
	if count, ok := result.RowCount(); ok {
		message = fmt.Sprintf("Found %d rows", count)
	}
	writeJSON(w, http.StatusOK, askResponse{
		Question:      request.Question,
		Database:      name,
		Resolution:    resolution,
		Result:        result,
		Visualization: render.Suggest(request.Question, result),
		Message:       message,
	})
}

func maxRows(cfg config.Config, requested int) int {
	if requested > 0 {
		return requested
	}
	if cfg.Database.MaxRows > 0 {
		return cfg.Database.MaxRows
	}
	return query.DefaultMaxRows
}
