package query

import (
	"context"
	"encoding/json"
	"fmt"
)

type Request struct {
	SQL          string
	DatabasePath string
	MaxRows      int
}

// ExecutionResult is the uniform outcome of one guarded execution. Exactly
// one branch is populated: Columns/Rows on success, Error on failure.
type ExecutionResult struct {
	Success bool
	Columns []string
	Rows    [][]any
	Error   string
}

func Succeeded(columns []string, rows [][]any) ExecutionResult {
	if columns == nil {
		columns = []string{}
	}
	if rows == nil {
		rows = [][]any{}
	}
	return ExecutionResult{Success: true, Columns: columns, Rows: rows}
}

func Failed(message string) ExecutionResult {
	return ExecutionResult{Success: false, Error: message}
}

// RowCount reports the number of rows; ok is false for failed results.
func (r ExecutionResult) RowCount() (int, bool) {
	if !r.Success {
		return 0, false
	}
	return len(r.Rows), true
}

// Records returns rows keyed by RecordKeys, or nil for failed results.
func (r ExecutionResult) Records() []map[string]any {
	if !r.Success {
		return nil
	}
	keys := r.RecordKeys()
	records := make([]map[string]any, 0, len(r.Rows))
	for _, row := range r.Rows {
		record := make(map[string]any, len(keys))
		for i, key := range keys {
			if i < len(row) {
				record[key] = row[i]
			}
		}
		records = append(records, record)
	}
	return records
}

// RecordKeys returns the column names with repeats suffixed ("a", "a_1") so
// every value keeps its own key.
func (r ExecutionResult) RecordKeys() []string {
	keys := make([]string, len(r.Columns))
	taken := make(map[string]struct{}, len(r.Columns))
	for _, column := range r.Columns {
		taken[column] = struct{}{}
	}
	seen := make(map[string]int, len(r.Columns))
	for i, column := range r.Columns {
		seen[column]++
		if seen[column] == 1 {
			keys[i] = column
			continue
		}
		for n := seen[column] - 1; ; n++ {
			candidate := fmt.Sprintf("%s_%d", column, n)
			if _, exists := taken[candidate]; !exists {
				taken[candidate] = struct{}{}
				seen[column] = n + 1
				keys[i] = candidate
				break
			}
		}
	}
	return keys
}

type executionResultJSON struct {
	Success  bool             `json:"success"`
	Columns  []string         `json:"columns"`
	Data     []map[string]any `json:"data"`
	RowCount *int             `json:"row_count"`
	Error    *string          `json:"error"`
}

func (r ExecutionResult) MarshalJSON() ([]byte, error) {
	out := executionResultJSON{Success: r.Success}
	if r.Success {
		count := len(r.Rows)
		out.Columns = r.RecordKeys()
		out.Data = r.Records()
		out.RowCount = &count
	} else {
		message := r.Error
		out.Error = &message
	}
	return json.Marshal(out)
}

type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

type Executor interface {
	Execute(ctx context.Context, request Request) ExecutionResult
}

type SchemaInspector interface {
	Describe(ctx context.Context, databasePath string) ([]Table, error)
}
