package seed

import (
	"bytes"
	"fmt"

	"github.com/parquet-go/parquet-go"
)

type ParquetEncodeResult struct {
	Data        []byte
	RecordCount int64
	// MinRegistration and MaxRegistration are empty when no rows were written.
	MinRegistration string
	MaxRegistration string
}

// EncodeCustomersToParquet writes customers as a single parquet file.
func EncodeCustomersToParquet(customers []Customer) (ParquetEncodeResult, error) {
	if len(customers) == 0 {
		return ParquetEncodeResult{}, fmt.Errorf("customers are required")
	}

	result := ParquetEncodeResult{RecordCount: int64(len(customers))}
	for _, customer := range customers {
		if result.MinRegistration == "" || customer.RegistrationDate < result.MinRegistration {
			result.MinRegistration = customer.RegistrationDate
		}
		if customer.RegistrationDate > result.MaxRegistration {
			result.MaxRegistration = customer.RegistrationDate
		}
	}

	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[Customer](buf)
	if _, err := writer.Write(customers); err != nil {
		return ParquetEncodeResult{}, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return ParquetEncodeResult{}, fmt.Errorf("close parquet writer: %w", err)
	}
	result.Data = buf.Bytes()
	return result, nil
}
