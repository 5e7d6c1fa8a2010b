package pipeline

import (
	"coverage-platform/internal/models"
)

// ResolutionStats counts how populations were resolved, by source.
type ResolutionStats struct {
	Original       int
	DistrictMedian int
	StateMedian    int
	GlobalMedian   int
}

// Imputed returns the number of pincodes whose population was filled.
func (s ResolutionStats) Imputed() int {
	return s.DistrictMedian + s.StateMedian + s.GlobalMedian
}

// ResolvePopulations fills missing or non-positive populations through the
// district → state → global median hierarchy and tags every aggregate with
// its imputation source. All medians are computed from originally valid
// populations BEFORE any mutation, so imputed values never feed back into
// the baselines. Rows are never removed. Fails with
// NoValidPopulationDataError when the global median is undefined.
func ResolvePopulations(aggs []*models.PincodeAggregate) (ResolutionStats, error) {
	var stats ResolutionStats
	if len(aggs) == 0 {
		return stats, &models.NoValidPopulationDataError{PincodeCount: 0}
	}

	valid := func(agg *models.PincodeAggregate) bool {
		return agg.HasRawPopulation && agg.Population > 0
	}

	districtPops := make(map[string][]float64)
	statePops := make(map[string][]float64)
	var globalPops []float64
	for _, agg := range aggs {
		if !valid(agg) {
			continue
		}
		districtPops[agg.District] = append(districtPops[agg.District], agg.Population)
		statePops[agg.State] = append(statePops[agg.State], agg.Population)
		globalPops = append(globalPops, agg.Population)
	}

	globalMedian, ok := Median(globalPops)
	if !ok {
		return stats, &models.NoValidPopulationDataError{PincodeCount: len(aggs)}
	}

	districtMedian := make(map[string]float64, len(districtPops))
	for d, pops := range districtPops {
		m, _ := Median(pops)
		districtMedian[d] = m
	}
	stateMedian := make(map[string]float64, len(statePops))
	for st, pops := range statePops {
		m, _ := Median(pops)
		stateMedian[st] = m
	}

	for _, agg := range aggs {
		if valid(agg) {
			agg.ImputationSource = models.ImputationOriginal
			stats.Original++
			continue
		}

		if m, ok := districtMedian[agg.District]; ok {
			agg.Population = m
			agg.ImputationSource = models.ImputationDistrictMedian
			stats.DistrictMedian++
		} else if m, ok := stateMedian[agg.State]; ok {
			agg.Population = m
			agg.ImputationSource = models.ImputationStateMedian
			stats.StateMedian++
		} else {
			agg.Population = globalMedian
			agg.ImputationSource = models.ImputationGlobalMedian
			stats.GlobalMedian++
		}
	}

	// Population is now guaranteed > 0 everywhere; derive the rate.
	for _, agg := range aggs {
		agg.ActivityPer100k = activityPer100k(agg.TotalActivity, agg.Population)
	}

	return stats, nil
}

// activityPer100k derives the per-capita rate, defined as 0 when population
// is 0 rather than infinite.
func activityPer100k(totalActivity, population float64) float64 {
	if population <= 0 {
		return 0
	}
	return totalActivity / (population / 100000)
}
