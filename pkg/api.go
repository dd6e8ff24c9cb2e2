package pkg

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/net/context"
	"golang.org/x/net/context/ctxhttp"
)

type Fetcher struct {
	client *http.Client
	logger *zerolog.Logger
}

func NewFetcher(client *http.Client, logger *zerolog.Logger) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{client: client, logger: loggerOrNop(logger)}
}

// Fetch downloads a CSV source and parses it into a table. The first record is the header.
func (f *Fetcher) Fetch(ctx context.Context, source Source) (*Table, error) {
	resp, err := ctxhttp.Get(ctx, f.client, source.URL)
	if err != nil {
		return nil, &FetchError{Source: source.Name, URL: source.URL, Err: err}
	}
	defer resp.Body.Close() // nolint: errcheck
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Source: source.Name, URL: source.URL, StatusCode: resp.StatusCode}
	}
	table, err := ParseCSV(resp.Body)
	if err != nil {
		return nil, &FetchError{Source: source.Name, URL: source.URL, Err: err}
	}
	f.logger.Debug().Str("source", source.Name).Int("rows", table.Len()).
		Int("columns", len(table.Columns)).Msg("Fetched source table")
	return table, nil
}

// ParseCSV reads a header row followed by records. Short records are padded with missing values.
func ParseCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty csv: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed reading csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	table := NewTable(header)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed reading csv record: %w", err)
		}
		if len(record) > len(header) {
			return nil, fmt.Errorf("csv record has %d fields, header has %d", len(record), len(header))
		}
		table.Append(record)
	}
	return table, nil
}
