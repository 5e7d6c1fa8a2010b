package pipeline

import (
	"math"
	"sort"

	"coverage-platform/internal/config"
	"coverage-platform/internal/models"
)

// ClassifyServiceDeserts applies the locked desert definition to every
// pincode: rural AND activity rate below the threshold fraction of the
// district baseline AND population at or above the district median. A
// district whose baseline is zero or undefined can claim no deserts, which
// also keeps a 0<0 comparison from manufacturing flags in all-zero
// districts. Pure: identical inputs yield identical flags.
func ClassifyServiceDeserts(
	aggs []*models.PincodeAggregate,
	baselines map[string]*models.DistrictBaseline,
	th config.Thresholds,
) []*models.ServiceDesertRecord {
	out := make([]*models.ServiceDesertRecord, 0, len(aggs))

	for _, agg := range aggs {
		rec := &models.ServiceDesertRecord{
			Pincode:         agg.Pincode,
			District:        agg.District,
			State:           agg.State,
			Population:      agg.Population,
			UrbanFlag:       agg.UrbanFlag,
			TotalActivity:   agg.TotalActivity,
			ActivityPer100k: agg.ActivityPer100k,
		}

		b, ok := baselines[agg.District]
		if ok {
			rec.DistrictActivityPer100k = b.ActivityPer100k
		}

		if ok && b.ActivityPer100k > 0 {
			rec.RelativeGapPct = (agg.ActivityPer100k - b.ActivityPer100k) / b.ActivityPer100k * 100

			rec.IsDesert = agg.UrbanFlag == models.UrbanFlagRural &&
				agg.ActivityPer100k < th.DesertBaselineFactor*b.ActivityPer100k &&
				agg.Population >= b.MedianPincodePopulation

			if rec.IsDesert {
				rec.SeverityScore = b.ActivityPer100k - agg.ActivityPer100k
				rec.PriorityScore = rec.SeverityScore * math.Log1p(agg.Population)
			}
		}

		out = append(out, rec)
	}

	rankDeserts(out)
	return out
}

// rankDeserts assigns dense ranks to flagged deserts ordered by descending
// priority score: ties share a rank and the next rank is rank+1. Non-deserts
// keep rank 0.
func rankDeserts(records []*models.ServiceDesertRecord) {
	deserts := make([]*models.ServiceDesertRecord, 0)
	for _, r := range records {
		if r.IsDesert {
			deserts = append(deserts, r)
		}
	}
	if len(deserts) == 0 {
		return
	}

	sort.SliceStable(deserts, func(i, j int) bool {
		return deserts[i].PriorityScore > deserts[j].PriorityScore
	})

	rank := 0
	prev := math.Inf(1)
	for _, r := range deserts {
		if r.PriorityScore != prev {
			rank++
			prev = r.PriorityScore
		}
		r.PriorityRank = rank
	}
}
