package pkg

import "time"

const (
	OWIDURL           = "https://raw.githubusercontent.com/owid/covid-19-data/master/public/data/vaccinations/vaccinations.csv"
	WHOURL            = "https://covid19.who.int/who-data/vaccination-data.csv"
	ClassificationURL = "https://docs.google.com/spreadsheets/d/e/2PACX-1vTDKyIaQVtTIy7kn5pD2W8oKM3YoX3YOdSsH3q-r0INH2axjQl6YxgDHBi4HikKx_cmRElde_E-2vlr/pub?gid=2040574494&single=true&output=csv"
)

// Merged table columns.
const (
	ColISOCode        = "iso_code"
	ColLocation       = "location"
	ColOWIDDate       = "owid_date"
	ColOWIDTotal      = "owid_total_vaccinations"
	ColWHOISO3        = "ISO3"
	ColWHODate        = "WHO_DATE"
	ColWHOTotal       = "WHO_TOTAL_VACCINATIONS"
	ColCode           = "Code"
	ColSourceCategory = "OWID Vax Source Category"
	ColPopulation     = "population"
	ColDiff           = "diff_total_vaccinations"
)

// Source is one CSV resource downloaded per run.
type Source struct {
	Name string
	URL  string
}

// ApiMetadata holds the three sources the merger pulls.
type ApiMetadata struct {
	OWID           Source
	WHO            Source
	Classification Source
}

func DefaultApiMetadata() *ApiMetadata {
	return &ApiMetadata{
		OWID:           Source{Name: "owid", URL: OWIDURL},
		WHO:            Source{Name: "who", URL: WHOURL},
		Classification: Source{Name: "classification", URL: ClassificationURL},
	}
}

// CountryObservation is one row of the merged table. Nil numbers are missing values.
type CountryObservation struct {
	CountryCode    string
	Location       string
	OWIDDate       string
	WHODate        string
	OWIDTotal      *float64
	WHOTotal       *float64
	Diff           *float64
	Population     *float64
	SourceCategory string
}

// TotalsPartition aggregates the rows falling into one totals comparison bucket.
type TotalsPartition struct {
	Count     int   `structs:"count" yaml:"count"`
	WHOTotal  int64 `structs:"who_total" yaml:"who_total"`
	OWIDTotal int64 `structs:"owid_total" yaml:"owid_total"`
	Diff      int64 `structs:"diff" yaml:"diff"`
}

// DiscrepancySummary compares the OWID and WHO figures across all merged countries.
// Rows with a missing date or total are counted in the Incomparable fields rather than
// in any partition.
type DiscrepancySummary struct {
	Date               time.Time       `structs:"date" yaml:"date"`
	TotalCountries     int             `structs:"total_countries" yaml:"total_countries"`
	DatesMatching      int             `structs:"dates_matching" yaml:"dates_matching"`
	DatesOWIDGreater   int             `structs:"dates_owid_greater" yaml:"dates_owid_greater"`
	DatesOWIDLesser    int             `structs:"dates_owid_lesser" yaml:"dates_owid_lesser"`
	DatesIncomparable  int             `structs:"dates_incomparable" yaml:"dates_incomparable"`
	Matching           TotalsPartition `structs:"matching" yaml:"matching"`
	OWIDGreater        TotalsPartition `structs:"owid_greater" yaml:"owid_greater"`
	OWIDLesser         TotalsPartition `structs:"owid_lesser" yaml:"owid_lesser"`
	TotalsIncomparable int             `structs:"totals_incomparable" yaml:"totals_incomparable"`
	WHOTotal           int64           `structs:"who_total" yaml:"who_total"`
	OWIDTotal          int64           `structs:"owid_total" yaml:"owid_total"`
	Diff               int64           `structs:"diff" yaml:"diff"`
}
