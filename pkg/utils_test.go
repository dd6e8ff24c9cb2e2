package pkg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSnapshotName(t *testing.T) {
	now := time.Date(2021, 6, 1, 9, 5, 7, 42000, time.UTC)
	assert.Equal(t, "2021-06-01-09-05-07-000042-merged.csv", SnapshotName(now, MergedFolder))
	assert.Equal(t, "2021-06-01-09-05-07-000042-comparison.csv", SnapshotName(now, ComparisonFolder))
}

func TestGroupByKey(t *testing.T) {
	grouped := GroupByKey([]CountryObservation{
		{CountryCode: "AAA"}, {CountryCode: "BBB"}, {CountryCode: "AAA"},
	})
	assert.Len(t, grouped, 2)
	assert.Len(t, grouped["AAA"], 2)
}

func TestIsStringInlist(t *testing.T) {
	assert.True(t, IsStringInlist([]string{"a", "b"}, "b"))
	assert.False(t, IsStringInlist(nil, "a"))
}
