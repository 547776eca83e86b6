package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// CityReport bundles every summary for one city.
type CityReport struct {
	ID             string                `json:"id"`
	City           string                `json:"city"`
	Records        int                   `json:"records"`
	Yearly         YearlyAggregate       `json:"yearly"`
	Monthly        MonthlyAggregate      `json:"monthly"`
	Peaks          PeakSet               `json:"peaks"`
	Presence       PresenceCount         `json:"presence"`
	WeeklyPresence PresenceCount         `json:"weekly_presence"`
	Overlays       []ScaledOverlaySeries `json:"overlays"`
	GeneratedAt    time.Time             `json:"generated_at"`
}

// BuildCityReport computes all summaries for s, with k peak months and one
// overlay per covariate in the subset's schema.
func BuildCityReport(s CitySubset, k int) CityReport {
	monthly := MonthlySeasonalAverage(s)
	yearly := YearlyTotals(s)

	overlays := make([]ScaledOverlaySeries, 0, len(s.covariates))
	for _, c := range s.covariates {
		// The covariate comes from the subset's own schema, so this cannot fail.
		o, err := OverlaySeries(s, c)
		if err != nil {
			continue
		}
		overlays = append(overlays, o)
	}

	return CityReport{
		ID:             generateReportID(s.City, s.Len(), yearly),
		City:           s.City,
		Records:        s.Len(),
		Yearly:         yearly,
		Monthly:        monthly,
		Peaks:          TopPeakMonths(monthly, k),
		Presence:       PresenceCounts(s),
		WeeklyPresence: PresenceCountsByWeek(s),
		Overlays:       overlays,
		GeneratedAt:    clock.Now().UTC(),
	}
}

// generateReportID derives a deterministic ID from the city and the data the
// report summarizes, so republishing an unchanged snapshot yields the same key.
func generateReportID(city string, records int, yearly YearlyAggregate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%d", city, records)
	for _, y := range yearly {
		fmt.Fprintf(&b, "|%d:%d", y.Year, y.Cases)
	}
	hash := sha256.Sum256([]byte(b.String()))
	return "report-" + hex.EncodeToString(hash[:8])
}
