// Package render picks a presentation for a query result.
package render

import (
	"github.com/dustin/go-humanize"

	"github.com/textsql/textsql/internal/query"
)

const (
	KindMetric = "metric"
	KindBar    = "bar"
	KindTable  = "table"

	maxBarPoints = 15
)

type Point struct {
	X any `json:"x"`
	Y any `json:"y"`
}

type Visualization struct {
	Kind    string  `json:"kind"`
	Label   string  `json:"label,omitempty"`
	Value   any     `json:"value,omitempty"`
	Display string  `json:"display,omitempty"`
	X       string  `json:"x,omitempty"`
	Y       string  `json:"y,omitempty"`
	Points  []Point `json:"points,omitempty"`
}

// Suggest returns nil for failed results.
func Suggest(question string, result query.ExecutionResult) *Visualization {
	if !result.Success {
		return nil
	}

	var numeric, text []int
	for i := range result.Columns {
		switch {
		case isNumericColumn(result.Rows, i):
			numeric = append(numeric, i)
		case isTextColumn(result.Rows, i):
			text = append(text, i)
		}
	}

	switch {
	case len(result.Rows) == 1 && len(numeric) == 1:
		value := result.Rows[0][numeric[0]]
		return &Visualization{
			Kind:    KindMetric,
			Label:   question,
			Value:   value,
			Display: formatNumber(value),
			Y:       result.Columns[numeric[0]],
		}
	case len(text) > 0 && len(numeric) > 0:
		x, y := text[0], numeric[0]
		limit := min(len(result.Rows), maxBarPoints)
		points := make([]Point, 0, limit)
		for _, row := range result.Rows[:limit] {
			points = append(points, Point{X: row[x], Y: row[y]})
		}
		return &Visualization{
			Kind:   KindBar,
			Label:  question,
			X:      result.Columns[x],
			Y:      result.Columns[y],
			Points: points,
		}
	default:
		return &Visualization{Kind: KindTable, Label: question}
	}
}

func isNumericColumn(rows [][]any, col int) bool {
	seen := false
	for _, row := range rows {
		switch cell(row, col).(type) {
		case nil:
		case int, int32, int64, float32, float64:
			seen = true
		default:
			return false
		}
	}
	return seen
}

func isTextColumn(rows [][]any, col int) bool {
	for _, row := range rows {
		switch cell(row, col).(type) {
		case nil, string:
		default:
			return false
		}
	}
	return true
}

func cell(row []any, col int) any {
	if col < len(row) {
		return row[col]
	}
	return nil
}

func formatNumber(value any) string {
	switch v := value.(type) {
	case int:
		return humanize.Comma(int64(v))
	case int32:
		return humanize.Comma(int64(v))
	case int64:
		return humanize.Comma(v)
	case float32:
		return humanize.Commaf(float64(v))
	case float64:
		return humanize.Commaf(v)
	default:
		return ""
	}
}
