package pipeline

import (
	"math"

	"coverage-platform/internal/config"
	"coverage-platform/internal/models"
)

// ScoreConsistency measures how far each pincode's activity rate deviates
// from its district's median, in district standard deviations. Districts
// with zero variance (including single-pincode districts) use a divisor of
// 1 so they neither divide by zero nor manufacture extreme scores. The
// deviations are capped at their global 95th percentile before inverting
// onto [0,1], which bounds the influence of extreme outliers on everyone
// else's scale.
func ScoreConsistency(
	aggs []*models.PincodeAggregate,
	th config.Thresholds,
) []*models.ConsistencyRecord {
	if len(aggs) == 0 {
		return nil
	}

	districtRates := make(map[string][]float64)
	for _, agg := range aggs {
		districtRates[agg.District] = append(districtRates[agg.District], agg.ActivityPer100k)
	}

	type districtStats struct {
		median float64
		std    float64
	}
	stats := make(map[string]districtStats, len(districtRates))
	for d, rates := range districtRates {
		median, _ := Median(rates)
		std := StdDev(rates)
		if std == 0 {
			std = 1
		}
		stats[d] = districtStats{median: median, std: std}
	}

	out := make([]*models.ConsistencyRecord, len(aggs))
	deviations := make([]float64, len(aggs))
	for i, agg := range aggs {
		ds := stats[agg.District]
		dev := math.Abs(agg.ActivityPer100k-ds.median) / ds.std
		deviations[i] = dev
		out[i] = &models.ConsistencyRecord{
			Pincode:             agg.Pincode,
			RelativeDeviation:   dev,
			BelowDistrictMedian: agg.ActivityPer100k < ds.median,
		}
	}

	cap, _ := Quantile(deviations, th.ConsistencyCapQuantile)
	for i, rec := range out {
		if cap > 0 {
			rec.ConsistencyScore = 1 - math.Min(deviations[i], cap)/cap
		} else {
			// Every pincode matches its district exactly.
			rec.ConsistencyScore = 1
		}

		switch {
		case rec.ConsistencyScore <= th.InconsistentTierMax:
			rec.ConsistencyTier = models.TierInconsistentPattern
		case rec.ConsistencyScore <= th.ModerateTierMax:
			rec.ConsistencyTier = models.TierModerateConsistency
		default:
			rec.ConsistencyTier = models.TierHighConsistency
		}

		rec.StressSignal = rec.BelowDistrictMedian && rec.ConsistencyScore < th.StressScoreMax
	}

	return out
}
