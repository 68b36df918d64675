package api

import (
	"net/http"
	"strings"

	"github.com/textsql/textsql/internal/config"
)

// ExampleQuestions are offered by the UI and the CLI.
var ExampleQuestions = []string{
	"How many customers do we have?",
	"Show me the top 10 cities by customer count",
	"List recent customers",
	"What cities do we have customers in?",
}

type databaseInfo struct {
	Name    string `json:"name"`
	Default bool   `json:"default"`
}

func handleListDatabases(cfg config.Config, w http.ResponseWriter, _ *http.Request) {
	names := cfg.Database.Names()
	databases := make([]databaseInfo, 0, len(names))
	for _, name := range names {
		databases = append(databases, databaseInfo{Name: name, Default: name == cfg.Database.Default})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"databases": databases,
		"default":   cfg.Database.Default,
		"max_rows":  cfg.Database.MaxRows,
	})
}

func handleSchema(cfg config.Config, deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Inspector == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SCHEMA_NOT_CONFIGURED", "schema inspector is not configured", false, nil)
		return
	}
	name, path, ok := resolveDatabase(cfg, w, r, r.URL.Query().Get("database"))
	if !ok {
		return
	}

	tables, err := deps.Inspector.Describe(r.Context(), path)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "SCHEMA_FETCH_FAILED", "failed to load schema", true, map[string]any{"details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"database": name,
		"tables":   tables,
	})
}

// resolveDatabase maps a requested database name to its file. An empty name
// selects the default. It writes the 404 itself.
func resolveDatabase(cfg config.Config, w http.ResponseWriter, r *http.Request, requested string) (string, string, bool) {
	name := strings.TrimSpace(requested)
	if name == "" {
		name = cfg.Database.Default
	}
	path, ok := cfg.Database.Path(name)
	if !ok {
		writeError(r.Context(), w, http.StatusNotFound, "DATABASE_NOT_FOUND", "unknown database", false, map[string]any{
			"database":  name,
			"available": cfg.Database.Names(),
		})
		return "", "", false
	}
	return name, path, true
}
