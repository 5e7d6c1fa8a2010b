package analysis

import (
	"math/rand"

	"coverage-platform/internal/models"
	"coverage-platform/internal/pipeline"
)

const (
	bootstrapResamples = 10000
	bootstrapSeed      = 42
)

// ConfidenceInterval is a bootstrap 95% interval for a group's median rate
type ConfidenceInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// GroupStats summarizes one urban/rural cohort
type GroupStats struct {
	PincodeCount     int                `json:"pincode_count"`
	TotalPopulation  float64            `json:"total_population"`
	MeanRate         float64            `json:"mean_activity_per_100k"`
	MedianRate       float64            `json:"median_activity_per_100k"`
	MedianPopulation float64            `json:"median_population"`
	MedianRateCI     ConfidenceInterval `json:"median_rate_ci_95"`
}

// RuralUrbanComparison is the comparison artifact between the two cohorts.
// Pincodes with unknown classification are counted but excluded from both
// cohorts. MedianDifference is rural median minus urban median; its interval
// comes from resampling both cohorts jointly.
type RuralUrbanComparison struct {
	Rural              GroupStats         `json:"rural"`
	Urban              GroupStats         `json:"urban"`
	UnknownPincodes    int                `json:"unknown_pincodes"`
	MedianRateGapPct   float64            `json:"median_rate_gap_pct"`
	MedianDifference   float64            `json:"median_difference"`
	MedianDifferenceCI ConfidenceInterval `json:"median_difference_ci_95"`
}

// CompareRuralUrban computes cohort summary statistics with seeded bootstrap
// intervals on each cohort's median rate and on the rural-minus-urban median
// difference. The fixed seed keeps the artifact reproducible across runs over
// the same dataset.
func CompareRuralUrban(aggs []*models.PincodeAggregate) *RuralUrbanComparison {
	var ruralRates, urbanRates []float64
	var ruralPops, urbanPops []float64
	comparison := &RuralUrbanComparison{}

	for _, agg := range aggs {
		switch agg.UrbanFlag {
		case models.UrbanFlagRural:
			ruralRates = append(ruralRates, agg.ActivityPer100k)
			ruralPops = append(ruralPops, agg.Population)
			comparison.Rural.TotalPopulation += agg.Population
		case models.UrbanFlagUrban:
			urbanRates = append(urbanRates, agg.ActivityPer100k)
			urbanPops = append(urbanPops, agg.Population)
			comparison.Urban.TotalPopulation += agg.Population
		default:
			comparison.UnknownPincodes++
		}
	}

	rng := rand.New(rand.NewSource(bootstrapSeed))
	comparison.Rural = groupStats(ruralRates, ruralPops, comparison.Rural.TotalPopulation, rng)
	comparison.Urban = groupStats(urbanRates, urbanPops, comparison.Urban.TotalPopulation, rng)

	if comparison.Urban.MedianRate > 0 {
		comparison.MedianRateGapPct = (comparison.Rural.MedianRate - comparison.Urban.MedianRate) /
			comparison.Urban.MedianRate * 100
	}

	if len(ruralRates) > 0 && len(urbanRates) > 0 {
		comparison.MedianDifference = comparison.Rural.MedianRate - comparison.Urban.MedianRate
		comparison.MedianDifferenceCI = bootstrapDifferenceCI(ruralRates, urbanRates, rng)
	}

	return comparison
}

func groupStats(rates, pops []float64, totalPop float64, rng *rand.Rand) GroupStats {
	stats := GroupStats{
		PincodeCount:    len(rates),
		TotalPopulation: totalPop,
	}
	if len(rates) == 0 {
		return stats
	}

	stats.MeanRate = pipeline.Mean(rates)
	stats.MedianRate, _ = pipeline.Median(rates)
	stats.MedianPopulation, _ = pipeline.Median(pops)
	stats.MedianRateCI = bootstrapMedianCI(rates, rng)
	return stats
}

// bootstrapMedianCI resamples the cohort with replacement and takes the
// 2.5th and 97.5th percentiles of the resampled medians.
func bootstrapMedianCI(values []float64, rng *rand.Rand) ConfidenceInterval {
	if len(values) < 2 {
		var v float64
		if len(values) == 1 {
			v = values[0]
		}
		return ConfidenceInterval{Lower: v, Upper: v}
	}

	medians := make([]float64, bootstrapResamples)
	sample := make([]float64, len(values))
	for i := 0; i < bootstrapResamples; i++ {
		for j := range sample {
			sample[j] = values[rng.Intn(len(values))]
		}
		medians[i], _ = pipeline.Median(sample)
	}

	lower, _ := pipeline.Quantile(medians, 0.025)
	upper, _ := pipeline.Quantile(medians, 0.975)
	return ConfidenceInterval{Lower: lower, Upper: upper}
}

// bootstrapDifferenceCI resamples both cohorts on each iteration and takes
// the 2.5th and 97.5th percentiles of median(rural) - median(urban).
func bootstrapDifferenceCI(rural, urban []float64, rng *rand.Rand) ConfidenceInterval {
	if len(rural) < 2 && len(urban) < 2 {
		rm, _ := pipeline.Median(rural)
		um, _ := pipeline.Median(urban)
		d := rm - um
		return ConfidenceInterval{Lower: d, Upper: d}
	}

	diffs := make([]float64, bootstrapResamples)
	ruralSample := make([]float64, len(rural))
	urbanSample := make([]float64, len(urban))
	for i := 0; i < bootstrapResamples; i++ {
		for j := range ruralSample {
			ruralSample[j] = rural[rng.Intn(len(rural))]
		}
		for j := range urbanSample {
			urbanSample[j] = urban[rng.Intn(len(urban))]
		}
		rm, _ := pipeline.Median(ruralSample)
		um, _ := pipeline.Median(urbanSample)
		diffs[i] = rm - um
	}

	lower, _ := pipeline.Quantile(diffs, 0.025)
	upper, _ := pipeline.Quantile(diffs, 0.975)
	return ConfidenceInterval{Lower: lower, Upper: upper}
}
