package pkg

import (
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/net/context"
)

var (
	owidCumulativeColumns = []string{"total_vaccinations", "people_vaccinated", "total_boosters"}

	owidDerivedColumns = []string{
		"daily_vaccinations",
		"total_vaccinations_per_hundred",
		"people_vaccinated_per_hundred",
		"people_fully_vaccinated_per_hundred",
		"total_boosters_per_hundred",
		"daily_vaccinations_per_million",
		"daily_people_vaccinated",
		"daily_people_vaccinated_per_hundred",
		"daily_vaccinations_raw",
	}

	whoDroppedColumns = []string{
		"WHO_REGION",
		"TOTAL_VACCINATIONS_PER100",
		"PERSONS_VACCINATED_1PLUS_DOSE_PER100",
		"PERSONS_FULLY_VACCINATED_PER100",
		"VACCINES_USED",
		"FIRST_VACCINE_DATE",
		"NUMBER_VACCINES_TYPES_USED",
		"PERSONS_BOOSTER_ADD_DOSE_PER100",
		"PERSONS_BOOSTER_ADD_DOSE",
		"PERSONS_VACCINATED_1PLUS_DOSE",
		"PERSONS_FULLY_VACCINATED",
		"people_vaccinated",
	}

	mergedRenames = map[string]string{
		"date":               ColOWIDDate,
		"DATE_UPDATED":       ColWHODate,
		"total_vaccinations": ColOWIDTotal,
		"TOTAL_VACCINATIONS": ColWHOTotal,
	}
)

// TableSource yields a parsed CSV table for a source. Fetcher is the network implementation.
type TableSource interface {
	Fetch(ctx context.Context, source Source) (*Table, error)
}

type Merger struct {
	api     *ApiMetadata
	sources TableSource
	logger  *zerolog.Logger
}

func NewMerger(api *ApiMetadata, sources TableSource, logger *zerolog.Logger) *Merger {
	if api == nil {
		api = DefaultApiMetadata()
	}
	return &Merger{api: api, sources: sources, logger: loggerOrNop(logger)}
}

// GetMergedTable pulls the three sources and joins them into one row per country.
func (m *Merger) GetMergedTable(ctx context.Context) (*Table, error) {
	owid, err := m.sources.Fetch(ctx, m.api.OWID)
	if err != nil {
		m.logger.Err(err).Str("source", m.api.OWID.Name).Msg("Failed to fetch OWID vaccinations")
		return nil, err
	}
	latest, err := LatestObservations(owid)
	if err != nil {
		m.logger.Err(err).Msg("Failed to reduce OWID data to latest observations")
		return nil, err
	}
	m.logger.Debug().Int("rows", latest.Len()).Msg("Reduced OWID data to latest observation per country")

	who, err := m.sources.Fetch(ctx, m.api.WHO)
	if err != nil {
		m.logger.Err(err).Str("source", m.api.WHO.Name).Msg("Failed to fetch WHO vaccinations")
		return nil, err
	}
	classification, err := m.sources.Fetch(ctx, m.api.Classification)
	if err != nil {
		m.logger.Err(err).Str("source", m.api.Classification.Name).Msg("Failed to fetch source classifications")
		return nil, err
	}

	merged, err := MergeSources(latest, who, classification)
	if err != nil {
		m.logger.Err(err).Msg("Failed to merge OWID, WHO and classification tables")
		return nil, err
	}
	m.logger.Info().Int("countries", merged.Len()).Msg("Merged vaccination sources")
	return merged, nil
}

// LatestObservations drops the derived OWID columns, forward-fills the cumulative ones per
// country and keeps the rows dated at each country's maximum date. Several rows sharing the
// maximum date are all kept.
func LatestObservations(owid *Table) (*Table, error) {
	cumulative, err := owid.Drop(owidDerivedColumns...)
	if err != nil {
		return nil, fmt.Errorf("failed dropping derived OWID columns: %w", err)
	}
	if err := cumulative.ForwardFill(ColISOCode, owidCumulativeColumns...); err != nil {
		return nil, fmt.Errorf("failed forward-filling OWID data: %w", err)
	}
	latestDates, err := cumulative.GroupMax(ColISOCode, "date")
	if err != nil {
		return nil, fmt.Errorf("failed finding latest OWID dates: %w", err)
	}
	return InnerJoinOn(latestDates, cumulative, ColISOCode, "date")
}

// MergeSources joins the latest OWID rows with the WHO snapshot on ISO3 code, then with the
// classification sheet, and appends the WHO minus OWID total difference.
func MergeSources(latest, who, classification *Table) (*Table, error) {
	categories, err := classification.Select(ColCode, ColSourceCategory)
	if err != nil {
		return nil, fmt.Errorf("failed selecting classification columns: %w", err)
	}
	merged, err := InnerJoin(latest, who, ColISOCode, ColWHOISO3)
	if err != nil {
		return nil, fmt.Errorf("failed joining OWID and WHO data: %w", err)
	}
	merged, err = merged.Drop(whoDroppedColumns...)
	if err != nil {
		return nil, fmt.Errorf("failed dropping WHO columns: %w", err)
	}
	merged.Rename(mergedRenames)
	merged, err = InnerJoin(merged, categories, ColWHOISO3, ColCode)
	if err != nil {
		return nil, fmt.Errorf("failed joining source classifications: %w", err)
	}
	for _, col := range []string{ColOWIDTotal, ColWHOTotal} {
		if _, err := merged.Column(col); err != nil {
			return nil, err
		}
	}
	merged.AddColumn(ColDiff, func(row int) string {
		whoTotal, ok := merged.Float(row, ColWHOTotal)
		if !ok {
			return ""
		}
		owidTotal, ok := merged.Float(row, ColOWIDTotal)
		if !ok {
			return ""
		}
		return formatFloat(whoTotal - owidTotal)
	})
	return merged, nil
}

// Observations converts a merged table into typed rows.
func Observations(merged *Table) ([]CountryObservation, error) {
	for _, col := range []string{ColWHOISO3, ColOWIDDate, ColWHODate, ColOWIDTotal, ColWHOTotal} {
		if _, err := merged.Column(col); err != nil {
			return nil, err
		}
	}
	text := func(row int, col string) string {
		value, _ := merged.Value(row, col)
		return value
	}
	number := func(row int, col string) *float64 {
		value, ok := merged.Float(row, col)
		if !ok {
			return nil
		}
		return &value
	}
	observations := make([]CountryObservation, 0, merged.Len())
	for i := range merged.Rows {
		observations = append(observations, CountryObservation{
			CountryCode:    text(i, ColWHOISO3),
			Location:       text(i, ColLocation),
			OWIDDate:       text(i, ColOWIDDate),
			WHODate:        text(i, ColWHODate),
			OWIDTotal:      number(i, ColOWIDTotal),
			WHOTotal:       number(i, ColWHOTotal),
			Diff:           number(i, ColDiff),
			Population:     number(i, ColPopulation),
			SourceCategory: text(i, ColSourceCategory),
		})
	}
	return observations, nil
}
