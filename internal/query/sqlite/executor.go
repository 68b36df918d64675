package sqlite

import (
	"context"
	"io"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/textsql/textsql/internal/observability"
	"github.com/textsql/textsql/internal/query"
)

const sqlErrorPrefix = "SQL Error: "

// Executor runs guarded read queries, one connection per call.
type Executor struct {
	Open   Opener
	Logger *slog.Logger
}

func NewExecutor(logger *slog.Logger) *Executor {
	return &Executor{Open: OpenReadOnly, Logger: logger}
}

func (e *Executor) Execute(ctx context.Context, request query.Request) query.ExecutionResult {
	start := time.Now()
	logger := e.logger()

	if keyword, denied := query.DeniedKeyword(request.SQL); denied {
		observability.ObserveExecute(observability.OutcomeDenied, 0, time.Since(start))
		logger.WarnContext(ctx, "sql rejected by denylist",
			slog.String("trace_id", observability.TraceIDFromContext(ctx)),
			slog.String("keyword", keyword),
		)
		return query.Failed(query.DeniedMessage(keyword))
	}

	sqlText := query.EnforceLimit(request.SQL, request.MaxRows)
	if query.HasMultipleStatements(sqlText) {
		observability.ObserveExecute(observability.OutcomeError, 0, time.Since(start))
		logger.WarnContext(ctx, "sql rejected: multiple statements",
			slog.String("trace_id", observability.TraceIDFromContext(ctx)),
			slog.String("sql", sqlText),
		)
		return query.Failed(sqlErrorPrefix + query.MultipleStatementsMessage)
	}
	columns, rows, err := e.run(ctx, request.DatabasePath, sqlText)
	if err != nil {
		observability.ObserveExecute(observability.OutcomeError, 0, time.Since(start))
		logger.WarnContext(ctx, "sql execution failed",
			slog.String("trace_id", observability.TraceIDFromContext(ctx)),
			slog.String("sql", sqlText),
			slog.Any("error", err),
		)
		return query.Failed(sqlErrorPrefix + err.Error())
	}

	observability.ObserveExecute(observability.OutcomeSuccess, len(rows), time.Since(start))
	logger.DebugContext(ctx, "sql executed",
		slog.String("trace_id", observability.TraceIDFromContext(ctx)),
		slog.String("sql", sqlText),
		slog.Int("rows", len(rows)),
		slog.String("duration", time.Since(start).String()),
	)
	return query.Succeeded(columns, rows)
}

// run returns driver errors unwrapped; their text is shown to users.
func (e *Executor) run(ctx context.Context, path, sqlText string) ([]string, [][]any, error) {
	open := e.Open
	if open == nil {
		open = OpenReadOnly
	}
	db, err := open(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	resultRows := make([][]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, nil, err
		}
		resultRows = append(resultRows, normalizeValues(values))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return columns, resultRows, nil
}

func (e *Executor) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func normalizeValues(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case []byte:
			// Binary blobs stay []byte and encode as base64 in JSON.
			if utf8.Valid(typed) {
				normalized[i] = string(typed)
			} else {
				normalized[i] = append([]byte(nil), typed...)
			}
		case time.Time:
			normalized[i] = typed.Format(time.RFC3339Nano)
		default:
			normalized[i] = typed
		}
	}
	return normalized
}
