package nl2sql

import (
	"context"
	"strings"
)

const defaultTable = "customers"

type Request struct {
	Question string   `json:"question"`
	Tables   []string `json:"tables"`
}

type Result struct {
	SQL      string `json:"sql"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

type Translator interface {
	Translate(ctx context.Context, req Request) (Result, error)
}

// BuildPrompt renders the model input: "tables: <t1, t2> | <question>".
func BuildPrompt(tables []string, question string) string {
	names := make([]string, 0, len(tables))
	for _, table := range tables {
		table = strings.TrimSpace(table)
		if table != "" {
			names = append(names, table)
		}
	}
	if len(names) == 0 {
		names = append(names, defaultTable)
	}
	return "tables: " + strings.Join(names, ", ") + " | " + question
}
