package pipeline

import (
	"sort"

	"coverage-platform/internal/models"
)

// ComputeDistrictBaselines re-aggregates resolved pincode aggregates by
// district. The district rate is recomputed from the summed values, not
// averaged from pincode rates: the two differ whenever pincode populations
// differ, and the desert classifier depends on the population-weighted
// version. The population floor uses the median (not mean) of constituent
// pincode populations so outlier pincodes cannot skew it. Idempotent given
// identical inputs.
func ComputeDistrictBaselines(aggs []*models.PincodeAggregate) []*models.DistrictBaseline {
	byDistrict := make(map[string]*models.DistrictBaseline)
	pincodePops := make(map[string][]float64)

	for _, agg := range aggs {
		b, ok := byDistrict[agg.District]
		if !ok {
			b = &models.DistrictBaseline{
				District: agg.District,
				State:    agg.State,
			}
			byDistrict[agg.District] = b
		}
		b.Population += agg.Population
		b.TotalActivity += agg.TotalActivity
		b.BioCount += agg.BioCount
		b.DemoCount += agg.DemoCount
		b.EnrollCount += agg.EnrollCount
		b.PincodeCount++
		pincodePops[agg.District] = append(pincodePops[agg.District], agg.Population)
	}

	out := make([]*models.DistrictBaseline, 0, len(byDistrict))
	for district, b := range byDistrict {
		b.ActivityPer100k = activityPer100k(b.TotalActivity, b.Population)
		if m, ok := Median(pincodePops[district]); ok {
			b.MedianPincodePopulation = m
		}
		out = append(out, b)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].District < out[j].District })
	return out
}

// IndexBaselines builds the district lookup used by the classifiers.
func IndexBaselines(baselines []*models.DistrictBaseline) map[string]*models.DistrictBaseline {
	idx := make(map[string]*models.DistrictBaseline, len(baselines))
	for _, b := range baselines {
		idx[b.District] = b
	}
	return idx
}
