package pkg

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFetch marks a failed download of one of the source tables.
	ErrFetch = errors.New("fetch failed")

	// ErrSchema marks a source table missing an expected column.
	ErrSchema = errors.New("schema mismatch")
)

// FetchError describes a source that could not be downloaded or parsed.
type FetchError struct {
	Source     string
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s from %s: unexpected status %d", e.Source, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetching %s from %s: %v", e.Source, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}

// SchemaError is returned when a column is absent from a table.
type SchemaError struct {
	Column  string
	Columns []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("column %q not found in [%s]", e.Column, strings.Join(e.Columns, ", "))
}

func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}
