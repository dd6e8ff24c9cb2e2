package pkg

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2021, 6, 1, 12, 30, 45, 123456000, time.UTC)

func stringsReader(s string) io.Reader {
	return strings.NewReader(s)
}

func total(v float64) *float64 {
	return &v
}

func TestSummarizeScenario(t *testing.T) {
	observations := []CountryObservation{
		{CountryCode: "XXX", OWIDDate: "2021-05-01", WHODate: "2021-05-01", OWIDTotal: total(100), WHOTotal: total(100)},
		{CountryCode: "YYY", OWIDDate: "2021-05-01", WHODate: "2021-05-03", OWIDTotal: total(50), WHOTotal: total(80)},
		{CountryCode: "ZZZ", OWIDDate: "2021-05-04", WHODate: "2021-05-03", OWIDTotal: total(90), WHOTotal: total(70)},
	}

	summary := Summarize(observations, fixedNow)

	assert.Equal(t, fixedNow, summary.Date)
	assert.Equal(t, 3, summary.TotalCountries)
	assert.Equal(t, TotalsPartition{Count: 1, WHOTotal: 100, OWIDTotal: 100}, summary.Matching)
	assert.Equal(t, TotalsPartition{Count: 1, WHOTotal: 80, OWIDTotal: 50, Diff: 30}, summary.OWIDLesser)
	assert.Equal(t, TotalsPartition{Count: 1, WHOTotal: 70, OWIDTotal: 90, Diff: 20}, summary.OWIDGreater)
	assert.Equal(t, int64(240), summary.OWIDTotal)
	assert.Equal(t, int64(250), summary.WHOTotal)
	assert.Equal(t, int64(10), summary.Diff)
	assert.Equal(t, 1, summary.DatesMatching)
	assert.Equal(t, 1, summary.DatesOWIDGreater)
	assert.Equal(t, 1, summary.DatesOWIDLesser)
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil, fixedNow)
	assert.Equal(t, DiscrepancySummary{Date: fixedNow}, summary)
}

func TestSummarizeMissingValues(t *testing.T) {
	observations := []CountryObservation{
		{CountryCode: "AAA", OWIDDate: "2021-05-01", WHODate: "", OWIDTotal: total(10), WHOTotal: nil},
		{CountryCode: "BBB", OWIDDate: "2021-05-01", WHODate: "2021-05-01", OWIDTotal: nil, WHOTotal: total(5)},
		{CountryCode: "CCC", OWIDDate: "2021-05-02", WHODate: "2021-05-01", OWIDTotal: total(3), WHOTotal: total(3)},
	}

	summary := Summarize(observations, fixedNow)

	assert.Equal(t, 1, summary.DatesIncomparable)
	assert.Equal(t, 2, summary.TotalsIncomparable)
	assert.Equal(t, summary.TotalCountries,
		summary.DatesMatching+summary.DatesOWIDGreater+summary.DatesOWIDLesser+summary.DatesIncomparable)
	assert.Equal(t, summary.TotalCountries,
		summary.Matching.Count+summary.OWIDGreater.Count+summary.OWIDLesser.Count+summary.TotalsIncomparable)
	assert.Equal(t, int64(13), summary.OWIDTotal)
	assert.Equal(t, int64(8), summary.WHOTotal)
	assert.Equal(t, int64(-5), summary.Diff)
}

func TestSummarizeIsRepeatable(t *testing.T) {
	observations := []CountryObservation{
		{CountryCode: "XXX", OWIDDate: "2021-05-01", WHODate: "2021-05-02", OWIDTotal: total(1), WHOTotal: total(2)},
		{CountryCode: "YYY", OWIDDate: "2021-05-03", WHODate: "2021-05-02", OWIDTotal: total(4), WHOTotal: total(3)},
	}
	first := Summarize(observations, fixedNow)
	second := Summarize(observations, fixedNow.Add(time.Hour))
	second.Date = first.Date
	assert.Equal(t, first, second)
}

func TestSummaryTable(t *testing.T) {
	summary := Summarize([]CountryObservation{
		{CountryCode: "YYY", OWIDDate: "2021-05-01", WHODate: "2021-05-03", OWIDTotal: total(50), WHOTotal: total(80)},
	}, fixedNow)

	rendered := summary.Table()
	require.Equal(t, 1, rendered.Len())
	assert.Equal(t, len(rendered.Columns), len(rendered.Rows[0]))

	value := func(col string) string {
		v, err := rendered.Value(0, col)
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, "2021-06-01 12:30:45.123456+00:00", value("Date"))
	assert.Equal(t, "1", value("Total countries"))
	assert.Equal(t, "1", value("Dates - OWID lesser"))
	assert.Equal(t, "30", value("Total Vax - OWID lesser - Diff"))
	assert.Equal(t, "30", value("Total Vax - Diff"))
}

func TestReportTime(t *testing.T) {
	reported := ReportTime(fixedNow, nil)
	assert.True(t, reported.Equal(fixedNow))
	assert.Equal(t, "America/New_York", reported.Location().String())
}

func TestReportTimeUnknownZone(t *testing.T) {
	zone := ReportZone
	ReportZone = "Nowhere/Unknown"
	t.Cleanup(func() { ReportZone = zone })

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	reported := ReportTime(fixedNow, &logger)

	assert.Equal(t, time.UTC, reported.Location())
	assert.True(t, reported.Equal(fixedNow))
	assert.Contains(t, buf.String(), "Failed to load report time zone")
	assert.Contains(t, buf.String(), "Nowhere/Unknown")
}

func TestSummarizeNaNTotalsAreIncomparable(t *testing.T) {
	merged := table([]string{ColWHOISO3, ColOWIDDate, ColWHODate, ColOWIDTotal, ColWHOTotal},
		[]string{"XXX", "2021-05-01", "2021-05-01", "100", "NaN"},
		[]string{"YYY", "2021-05-01", "2021-05-03", "50", "80"},
		[]string{"ZZZ", "2021-05-01", "2021-05-01", "Inf", "NA"},
	)
	observations, err := Observations(merged)
	require.NoError(t, err)
	assert.Nil(t, observations[0].WHOTotal)
	assert.Nil(t, observations[2].OWIDTotal)

	summary := Summarize(observations, fixedNow)

	assert.Equal(t, 2, summary.TotalsIncomparable)
	assert.Equal(t, TotalsPartition{Count: 1, WHOTotal: 80, OWIDTotal: 50, Diff: 30}, summary.OWIDLesser)
	assert.Equal(t, int64(80), summary.WHOTotal)
	assert.Equal(t, int64(150), summary.OWIDTotal)
	assert.Equal(t, int64(-70), summary.Diff)
	assert.Equal(t, summary.TotalCountries,
		summary.Matching.Count+summary.OWIDGreater.Count+summary.OWIDLesser.Count+summary.TotalsIncomparable)
}
