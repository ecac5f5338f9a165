package reporting

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"solana-signal-lab/internal/domain"
)

// WriteParquet writes results as a Parquet file to w.
func WriteParquet(w io.Writer, results []*domain.SweepResult) error {
	if err := parquet.Write(w, Rows(results)); err != nil {
		return fmt.Errorf("write parquet: %w", err)
	}
	return nil
}

// WriteParquetFile writes results to path, creating parent directories.
func WriteParquetFile(path string, results []*domain.SweepResult) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := parquet.WriteFile(path, Rows(results)); err != nil {
		return fmt.Errorf("write parquet %s: %w", path, err)
	}
	return nil
}

// ReadParquetFile reads rows written by WriteParquetFile.
func ReadParquetFile(path string) ([]Row, error) {
	rows, err := parquet.ReadFile[Row](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}
	return rows, nil
}
