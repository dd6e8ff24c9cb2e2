package pkg

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// WriteCSV writes the table with a leading unnamed index column numbering the rows from 0.
func WriteCSV(path string, table *Table) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed creating directory for %s: %w", path, err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed creating %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed closing %s: %w", path, cerr)
		}
	}()

	writer := csv.NewWriter(file)
	if err := writer.Write(append([]string{""}, table.Columns...)); err != nil {
		return fmt.Errorf("failed writing header to %s: %w", path, err)
	}
	for i, row := range table.Rows {
		if err := writer.Write(append([]string{strconv.Itoa(i)}, row...)); err != nil {
			return fmt.Errorf("failed writing row %d to %s: %w", i, path, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed flushing %s: %w", path, err)
	}
	return nil
}

// ReadCSV reads a file written by WriteCSV, dropping the index column.
func ReadCSV(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed opening %s: %w", path, err)
	}
	defer file.Close() // nolint: errcheck

	table, err := ParseCSV(file)
	if err != nil {
		return nil, fmt.Errorf("failed parsing %s: %w", path, err)
	}
	if len(table.Columns) == 0 || table.Columns[0] != "" {
		return table, nil
	}
	columns := table.Columns[1:]
	out := NewTable(columns)
	for _, row := range table.Rows {
		out.Rows = append(out.Rows, row[1:])
	}
	return out, nil
}
