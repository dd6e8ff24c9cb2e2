package pkg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRoundTrip(t *testing.T) {
	src := table([]string{"iso_code", "location", "owid_total_vaccinations"},
		[]string{"XXX", "X, the land", "100"},
		[]string{"YYY", "Y \"quoted\"", ""},
	)
	path := filepath.Join(t.TempDir(), "nested", "merged.csv")

	require.NoError(t, WriteCSV(path, src))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), ",iso_code,location,owid_total_vaccinations\n0,XXX,")

	read, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, src.Columns, read.Columns)
	assert.Equal(t, src.Rows, read.Rows)
}

func TestParseCSVEmpty(t *testing.T) {
	_, err := ParseCSV(stringsReader(""))
	assert.Error(t, err)
}

func TestParseCSVStripsBOM(t *testing.T) {
	parsed, err := ParseCSV(stringsReader("\ufeffCode,Name\nXXX,x\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Code", "Name"}, parsed.Columns)
}
