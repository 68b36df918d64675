package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/textsql/textsql/internal/query"
)

type Inspector struct {
	Open   Opener
	hidden map[string]struct{}
}

// NewInspector returns an inspector that leaves the named bookkeeping tables
// out of listings.
func NewInspector(hidden ...string) *Inspector {
	set := make(map[string]struct{}, len(hidden))
	for _, name := range hidden {
		set[name] = struct{}{}
	}
	return &Inspector{Open: OpenReadOnly, hidden: set}
}

func (i *Inspector) Describe(ctx context.Context, path string) ([]query.Table, error) {
	open := i.Open
	if open == nil {
		open = OpenReadOnly
	}
	db, err := open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	names, err := i.listTables(ctx, db)
	if err != nil {
		return nil, err
	}

	tables := make([]query.Table, 0, len(names))
	for _, name := range names {
		columns, err := describeTable(ctx, db, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, query.Table{Name: name, Columns: columns})
	}
	return tables, nil
}

func (i *Inspector) listTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		if _, skip := i.hidden[name]; skip {
			continue
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}
	return names, nil
}

func describeTable(ctx context.Context, db *sql.DB, table string) ([]query.Column, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table)))
	if err != nil {
		return nil, fmt.Errorf("describe table %q: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	columns := make([]query.Column, 0)
	for rows.Next() {
		var (
			cid        int
			name       string
			columnType string
			notNull    int
			defaultVal sql.NullString
			primaryKey int
		)
		if err := rows.Scan(&cid, &name, &columnType, &notNull, &defaultVal, &primaryKey); err != nil {
			return nil, fmt.Errorf("scan column of %q: %w", table, err)
		}
		columns = append(columns, query.Column{Name: name, Type: columnType})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns of %q: %w", table, err)
	}
	return columns, nil
}
