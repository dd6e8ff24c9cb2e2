package pkg

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const snapshotLayout = "2006-01-02 15:04:05.000000"

func GroupByKey(observations []CountryObservation) map[string][]CountryObservation {
	result := make(map[string][]CountryObservation, len(observations))
	for _, observation := range observations {
		result[observation.CountryCode] = append(result[observation.CountryCode], observation)
	}
	return result
}

func IsStringInlist(items []string, val string) bool {
	for _, item := range items {
		if item == val {
			return true
		}
	}
	return false
}

// SnapshotName builds "<timestamp>-<suffix>.csv" with spaces, colons and periods of the
// timestamp replaced by hyphens.
func SnapshotName(now time.Time, suffix string) string {
	stamp := strings.NewReplacer(" ", "-", ":", "-", ".", "-").Replace(now.Format(snapshotLayout))
	return fmt.Sprintf("%s-%s.csv", stamp, suffix)
}

func loggerOrNop(logger *zerolog.Logger) *zerolog.Logger {
	if logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return logger
}
