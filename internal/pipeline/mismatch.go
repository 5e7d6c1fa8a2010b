package pipeline

import (
	"math"

	"coverage-platform/internal/config"
	"coverage-platform/internal/models"
)

// ClassifyCapacityMismatch buckets every pincode by its rank percentile in
// the NATIONAL activity-rate distribution (deliberately not per-district:
// this is the global counterpart to the desert classifier's local
// comparison). Mismatch magnitude compares absolute activity against a
// single national expected-activity anchor derived from the global median
// population and the global median rate, recomputed each run.
func ClassifyCapacityMismatch(
	aggs []*models.PincodeAggregate,
	th config.Thresholds,
) []*models.CapacityMismatchRecord {
	if len(aggs) == 0 {
		return nil
	}

	rates := make([]float64, len(aggs))
	pops := make([]float64, len(aggs))
	for i, agg := range aggs {
		rates[i] = agg.ActivityPer100k
		pops[i] = agg.Population
	}

	percentiles := RankPercentiles(rates)

	medianPop, _ := Median(pops)
	medianRate, _ := Median(rates)
	expectedActivity := medianPop / 100000 * medianRate

	out := make([]*models.CapacityMismatchRecord, len(aggs))
	for i, agg := range aggs {
		rec := &models.CapacityMismatchRecord{
			Pincode:               agg.Pincode,
			UtilizationPercentile: percentiles[i],
			MismatchType:          models.MismatchBalanced,
		}

		if percentiles[i] > th.HighActivityPercentile {
			rec.MismatchType = models.MismatchHighActivity
		} else if percentiles[i] < th.LowActivityPercentile {
			rec.MismatchType = models.MismatchLowActivity
		}

		if expectedActivity > 0 {
			rec.MismatchMagnitude = math.Abs(agg.TotalActivity-expectedActivity) / expectedActivity
		}

		out[i] = rec
	}
	return out
}
