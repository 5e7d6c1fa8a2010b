package analysis

import (
	"coverage-platform/internal/config"
	"coverage-platform/internal/models"
	"coverage-platform/internal/pipeline"
)

// sensitivityFactors are the baseline fractions the desert classification is
// re-run at to show how the flagged set responds to the cutoff choice.
var sensitivityFactors = []float64{0.4, 0.5, 0.6}

// SensitivityRow records the desert classification outcome at one baseline
// factor.
type SensitivityRow struct {
	BaselineFactor     float64 `json:"baseline_factor"`
	DesertCount        int     `json:"desert_count"`
	AffectedPopulation float64 `json:"affected_population"`
}

// DesertSensitivity reclassifies service deserts at each sensitivity factor,
// holding every other threshold fixed. Thresholds are passed by value, so
// each variation works on its own copy.
func DesertSensitivity(
	aggs []*models.PincodeAggregate,
	baselines map[string]*models.DistrictBaseline,
	th config.Thresholds,
) []SensitivityRow {
	rows := make([]SensitivityRow, 0, len(sensitivityFactors))
	for _, factor := range sensitivityFactors {
		varied := th
		varied.DesertBaselineFactor = factor

		row := SensitivityRow{BaselineFactor: factor}
		for _, rec := range pipeline.ClassifyServiceDeserts(aggs, baselines, varied) {
			if rec.IsDesert {
				row.DesertCount++
				row.AffectedPopulation += rec.Population
			}
		}
		rows = append(rows, row)
	}
	return rows
}
