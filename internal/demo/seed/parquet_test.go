package seed

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/parquet-go/parquet-go"
)

func TestEncodeCustomersToParquet(t *testing.T) {
	customers := []Customer{
		{ID: 1, Name: "Ada Lovelace", Email: "ada@example.com", City: "Boston", RegistrationDate: "2025-03-01"},
		{ID: 2, Name: "Alan Turing", Email: "alan@example.com", City: "Austin", RegistrationDate: "2024-11-20"},
	}

	result, err := EncodeCustomersToParquet(customers)
	if err != nil {
		t.Fatalf("EncodeCustomersToParquet() error = %v", err)
	}
	if result.RecordCount != 2 {
		t.Fatalf("RecordCount = %d", result.RecordCount)
	}
	if result.MinRegistration != "2024-11-20" || result.MaxRegistration != "2025-03-01" {
		t.Fatalf("registration range = %s..%s", result.MinRegistration, result.MaxRegistration)
	}

	reader := parquet.NewGenericReader[Customer](bytes.NewReader(result.Data))
	defer func() { _ = reader.Close() }()
	rows := make([]Customer, 2)
	count, err := reader.Read(rows)
	if err != nil && !errors.Is(err, io.EOF) {
		t.Fatalf("reader.Read() error = %v", err)
	}
	if count != 2 {
		t.Fatalf("read rows = %d", count)
	}
	if rows[0] != customers[0] || rows[1] != customers[1] {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestEncodeCustomersToParquetRequiresRows(t *testing.T) {
	if _, err := EncodeCustomersToParquet(nil); err == nil {
		t.Fatal("expected error for empty input")
	}
}
