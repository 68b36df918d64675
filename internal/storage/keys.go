package storage

import (
	"fmt"
	"path"
	"regexp"
	"time"
)

const (
	ContentTypeSQLite  = "application/vnd.sqlite3"
	ContentTypeParquet = "application/vnd.apache.parquet"
)

var keyComponentPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

// DatasetKey is where the database file for a named dataset is published.
func DatasetKey(database string) (string, error) {
	if err := validateKeyComponent(database, "database name"); err != nil {
		return "", err
	}
	return path.Join("datasets", database, database+".db"), nil
}

// ExportKey names a parquet export of one table taken at exportedAt.
func ExportKey(database, table string, exportedAt time.Time) (string, error) {
	if err := validateKeyComponent(database, "database name"); err != nil {
		return "", err
	}
	if err := validateKeyComponent(table, "table name"); err != nil {
		return "", err
	}
	ts := exportedAt.UTC()
	return path.Join(
		"exports",
		database,
		table,
		fmt.Sprintf("date=%04d-%02d-%02d", ts.Year(), ts.Month(), ts.Day()),
		fmt.Sprintf("%s-%d.parquet", table, ts.Unix()),
	), nil
}

func validateKeyComponent(value, field string) error {
	if !keyComponentPattern.MatchString(value) {
		return fmt.Errorf("invalid %s: %q", field, value)
	}
	return nil
}
