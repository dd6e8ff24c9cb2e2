package pkg

import (
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// ReportZone is the zone the summary timestamp is expressed in.
var ReportZone = "America/New_York"

var comparisonColumns = []string{
	"Date",
	"Total countries",
	"Dates - matching",
	"Dates - OWID greater",
	"Dates - OWID lesser",
	"Dates - incomparable",
	"Total Vax - matching",
	"Total Vax - matching- WHO total",
	"Total Vax - matching- OWID total",
	"Total Vax - OWID greater - count",
	"Total Vax - OWID greater - WHO total",
	"Total Vax - OWID greater - OWID total",
	"Total Vax - OWID greater - Diff",
	"Total Vax - OWID lesser - count",
	"Total Vax - OWID lesser - WHO total",
	"Total Vax - OWID lesser - OWID total",
	"Total Vax - OWID lesser - Diff",
	"Total Vax - incomparable",
	"Total Vax - WHO total",
	"Total Vax - OWID total",
	"Total Vax - Diff",
}

// Summarize compares the OWID and WHO report dates and totals of every observation.
// A row missing either date is counted in DatesIncomparable, a row missing either total in
// TotalsIncomparable; such rows fall in no partition. Grand totals add every present value.
func Summarize(observations []CountryObservation, now time.Time) DiscrepancySummary {
	summary := DiscrepancySummary{
		Date:           now,
		TotalCountries: len(observations),
	}
	for _, obs := range observations {
		switch {
		case obs.OWIDDate == "" || obs.WHODate == "":
			summary.DatesIncomparable++
		case obs.OWIDDate == obs.WHODate:
			summary.DatesMatching++
		case obs.OWIDDate > obs.WHODate:
			summary.DatesOWIDGreater++
		default:
			summary.DatesOWIDLesser++
		}

		if obs.WHOTotal != nil {
			summary.WHOTotal += int64(*obs.WHOTotal)
		}
		if obs.OWIDTotal != nil {
			summary.OWIDTotal += int64(*obs.OWIDTotal)
		}

		var partition *TotalsPartition
		switch {
		case obs.OWIDTotal == nil || obs.WHOTotal == nil:
			summary.TotalsIncomparable++
			continue
		case *obs.OWIDTotal == *obs.WHOTotal:
			partition = &summary.Matching
		case *obs.OWIDTotal > *obs.WHOTotal:
			partition = &summary.OWIDGreater
		default:
			partition = &summary.OWIDLesser
		}
		partition.Count++
		partition.WHOTotal += int64(*obs.WHOTotal)
		partition.OWIDTotal += int64(*obs.OWIDTotal)
	}
	summary.OWIDGreater.Diff = summary.OWIDGreater.OWIDTotal - summary.OWIDGreater.WHOTotal
	summary.OWIDLesser.Diff = summary.OWIDLesser.WHOTotal - summary.OWIDLesser.OWIDTotal
	summary.Diff = summary.WHOTotal - summary.OWIDTotal
	return summary
}

// ReportTime returns now in ReportZone. An unknown zone falls back to UTC with a warning.
func ReportTime(now time.Time, logger *zerolog.Logger) time.Time {
	loc, err := time.LoadLocation(ReportZone)
	if err != nil {
		loggerOrNop(logger).Warn().Err(err).Str("zone", ReportZone).
			Msg("Failed to load report time zone, stamping summary in UTC")
		return now.UTC()
	}
	return now.In(loc)
}

// Table renders the summary as a single-row table.
func (s DiscrepancySummary) Table() *Table {
	itoa := func(v int) string { return strconv.Itoa(v) }
	i64 := func(v int64) string { return strconv.FormatInt(v, 10) }
	table := NewTable(comparisonColumns)
	table.Append([]string{
		s.Date.Format("2006-01-02 15:04:05.000000-07:00"),
		itoa(s.TotalCountries),
		itoa(s.DatesMatching),
		itoa(s.DatesOWIDGreater),
		itoa(s.DatesOWIDLesser),
		itoa(s.DatesIncomparable),
		itoa(s.Matching.Count),
		i64(s.Matching.WHOTotal),
		i64(s.Matching.OWIDTotal),
		itoa(s.OWIDGreater.Count),
		i64(s.OWIDGreater.WHOTotal),
		i64(s.OWIDGreater.OWIDTotal),
		i64(s.OWIDGreater.Diff),
		itoa(s.OWIDLesser.Count),
		i64(s.OWIDLesser.WHOTotal),
		i64(s.OWIDLesser.OWIDTotal),
		i64(s.OWIDLesser.Diff),
		itoa(s.TotalsIncomparable),
		i64(s.WHOTotal),
		i64(s.OWIDTotal),
		i64(s.Diff),
	})
	return table
}
